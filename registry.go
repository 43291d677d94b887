package kreuzberg

import (
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
)

type regEntry[T Plugin] struct {
	plugin T
	seq    uint64
}

// registry is the generic storage behind each extension point. A
// monotonic sequence number per insertion gives deterministic
// tie-breaks without depending on map order.
type registry[T Plugin] struct {
	kind string

	mu      sync.RWMutex
	entries map[string]regEntry[T]
	nextSeq uint64
}

func newRegistry[T Plugin](kind string) *registry[T] {
	return &registry[T]{kind: kind, entries: make(map[string]regEntry[T])}
}

// guardMutation restores the previous state if the mutation panics, so
// a misbehaving plugin hook cannot leave the registry half-written.
// Returns a LockPoisoned error describing the recovered panic.
func (r *registry[T]) guardMutation(fn func() error) (err error) {
	snapshot := maps.Clone(r.entries)
	defer func() {
		if recovered := recover(); recovered != nil {
			r.entries = snapshot
			logger().Warn().
				Str("registry", r.kind).
				Interface("panic", recovered).
				Msg("registry mutation panicked, state restored")
			err = NewError(KindLockPoisoned, "%s registry mutation panicked: %v", r.kind, recovered)
		}
	}()
	return fn()
}

// register validates the name, runs Initialize, and inserts the plugin.
// If a plugin with the same name exists it is replaced and its Shutdown
// runs after the lock is released.
func (r *registry[T]) register(p T) error {
	name := p.Name()
	if err := validatePluginName(name); err != nil {
		return err
	}
	if err := p.Initialize(); err != nil {
		return PluginError(name, WrapError(KindPlugin, err, "initialize"))
	}

	var replaced T
	var hadOld bool
	r.mu.Lock()
	err := r.guardMutation(func() error {
		if old, ok := r.entries[name]; ok {
			replaced, hadOld = old.plugin, true
		}
		r.nextSeq++
		r.entries[name] = regEntry[T]{plugin: p, seq: r.nextSeq}
		return nil
	})
	r.mu.Unlock()
	if err != nil {
		return err
	}

	logger().Debug().Str("registry", r.kind).Str("plugin", name).Msg("registered")
	if hadOld {
		if serr := replaced.Shutdown(); serr != nil {
			logger().Warn().
				Str("registry", r.kind).
				Str("plugin", name).
				Err(serr).
				Msg("shutdown of replaced plugin failed")
		}
	}
	return nil
}

// unregister removes the named plugin and runs its Shutdown outside the
// lock. Unknown names are a no-op.
func (r *registry[T]) unregister(name string) error {
	var removed T
	var found bool
	r.mu.Lock()
	err := r.guardMutation(func() error {
		if old, ok := r.entries[name]; ok {
			removed, found = old.plugin, true
			delete(r.entries, name)
		}
		return nil
	})
	r.mu.Unlock()
	if err != nil || !found {
		return err
	}
	if serr := removed.Shutdown(); serr != nil {
		return PluginError(name, WrapError(KindPlugin, serr, "shutdown"))
	}
	return nil
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.plugin, ok
}

// list returns registered names sorted for stable output.
func (r *registry[T]) list() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// snapshot returns every entry ordered by registration sequence.
func (r *registry[T]) snapshot() []regEntry[T] {
	r.mu.RLock()
	out := make([]regEntry[T], 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// clear removes everything, shutting each plugin down. All entries are
// removed even when some shutdowns fail; failures are joined.
func (r *registry[T]) clear() error {
	r.mu.Lock()
	old := r.entries
	r.entries = make(map[string]regEntry[T])
	r.mu.Unlock()

	var errs []error
	for name, e := range old {
		if serr := e.plugin.Shutdown(); serr != nil {
			errs = append(errs, PluginError(name, WrapError(KindPlugin, serr, "shutdown")))
		}
	}
	return errors.Join(errs...)
}

// Process-wide registries, created on first use.
var (
	extractorRegistryOnce = sync.OnceValue(func() *registry[DocumentExtractor] {
		return newRegistry[DocumentExtractor]("extractor")
	})
	ocrRegistryOnce = sync.OnceValue(func() *registry[OcrBackend] {
		return newRegistry[OcrBackend]("ocr")
	})
	postProcessorRegistryOnce = sync.OnceValue(func() *registry[PostProcessor] {
		return newRegistry[PostProcessor]("post-processor")
	})
	validatorRegistryOnce = sync.OnceValue(func() *registry[Validator] {
		return newRegistry[Validator]("validator")
	})
)

// RegisterExtractor adds a document extractor to the global registry,
// replacing any extractor with the same name.
func RegisterExtractor(e DocumentExtractor) error { return extractorRegistryOnce().register(e) }

// UnregisterExtractor removes an extractor by name. Missing names are a
// no-op.
func UnregisterExtractor(name string) error { return extractorRegistryOnce().unregister(name) }

// GetExtractor looks an extractor up by name.
func GetExtractor(name string) (DocumentExtractor, bool) { return extractorRegistryOnce().get(name) }

// ListExtractors returns registered extractor names, sorted.
func ListExtractors() []string { return extractorRegistryOnce().list() }

// ClearExtractors removes every extractor, shutting each down.
func ClearExtractors() error { return extractorRegistryOnce().clear() }

// RegisterOcrBackend adds an OCR backend to the global registry.
func RegisterOcrBackend(b OcrBackend) error { return ocrRegistryOnce().register(b) }

// UnregisterOcrBackend removes an OCR backend by name.
func UnregisterOcrBackend(name string) error { return ocrRegistryOnce().unregister(name) }

// GetOcrBackend looks an OCR backend up by name.
func GetOcrBackend(name string) (OcrBackend, bool) { return ocrRegistryOnce().get(name) }

// ListOcrBackends returns registered backend names, sorted.
func ListOcrBackends() []string { return ocrRegistryOnce().list() }

// ClearOcrBackends removes every OCR backend, shutting each down.
func ClearOcrBackends() error { return ocrRegistryOnce().clear() }

// RegisterPostProcessor adds a post-processor to the global registry.
func RegisterPostProcessor(p PostProcessor) error { return postProcessorRegistryOnce().register(p) }

// UnregisterPostProcessor removes a post-processor by name.
func UnregisterPostProcessor(name string) error { return postProcessorRegistryOnce().unregister(name) }

// ListPostProcessors returns registered post-processor names, sorted.
func ListPostProcessors() []string { return postProcessorRegistryOnce().list() }

// ClearPostProcessors removes every post-processor, shutting each down.
func ClearPostProcessors() error { return postProcessorRegistryOnce().clear() }

// RegisterValidator adds a validator to the global registry.
func RegisterValidator(v Validator) error { return validatorRegistryOnce().register(v) }

// UnregisterValidator removes a validator by name.
func UnregisterValidator(name string) error { return validatorRegistryOnce().unregister(name) }

// ListValidators returns registered validator names, sorted.
func ListValidators() []string { return validatorRegistryOnce().list() }

// ClearValidators removes every validator, shutting each down.
func ClearValidators() error { return validatorRegistryOnce().clear() }

// mimeMatches reports whether claimed covers mime, honoring "type/*"
// wildcards. Exact is distinguished so dispatch can prefer it.
func mimeMatches(claimed, mime string) (match, exact bool) {
	if claimed == mime {
		return true, true
	}
	if cat, ok := strings.CutSuffix(claimed, "/*"); ok {
		if got, _, found := strings.Cut(mime, "/"); found && got == cat {
			return true, false
		}
	}
	return false, false
}

// selectExtractor picks the extractor for a mime type: exact claims
// beat wildcard claims, then higher priority, then the most recently
// registered.
func selectExtractor(mime string) (DocumentExtractor, bool) {
	var best DocumentExtractor
	var bestExact bool
	var bestPriority int
	var bestSeq uint64
	found := false

	for _, e := range extractorRegistryOnce().snapshot() {
		for _, claimed := range e.plugin.SupportedMimeTypes() {
			match, exact := mimeMatches(claimed, mime)
			if !match {
				continue
			}
			p := e.plugin.Priority()
			better := !found ||
				(exact && !bestExact) ||
				(exact == bestExact && p > bestPriority) ||
				(exact == bestExact && p == bestPriority && e.seq > bestSeq)
			if better {
				best, bestExact, bestPriority, bestSeq = e.plugin, exact, p, e.seq
				found = true
			}
		}
	}
	return best, found
}

// selectOcrBackend picks an OCR backend: the configured name when set,
// otherwise the highest priority backend (ties go to the most recently
// registered).
func selectOcrBackend(cfg *OcrConfig) (OcrBackend, error) {
	if cfg != nil && cfg.Backend != "" {
		b, ok := ocrRegistryOnce().get(cfg.Backend)
		if !ok {
			return nil, NewError(KindOcr, "ocr backend %q is not registered", cfg.Backend)
		}
		return b, nil
	}

	var best OcrBackend
	var bestPriority int
	var bestSeq uint64
	for _, e := range ocrRegistryOnce().snapshot() {
		p := e.plugin.Priority()
		if best == nil || p > bestPriority || (p == bestPriority && e.seq > bestSeq) {
			best, bestPriority, bestSeq = e.plugin, p, e.seq
		}
	}
	if best == nil {
		return nil, NewError(KindMissingDependency, "no ocr backend registered")
	}
	return best, nil
}

// orderedPostProcessors returns the processors for one stage, priority
// descending, registration order for ties.
func orderedPostProcessors(stage ProcessingStage) []PostProcessor {
	entries := postProcessorRegistryOnce().snapshot()
	selected := entries[:0]
	for _, e := range entries {
		if e.plugin.ProcessingStage() == stage {
			selected = append(selected, e)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].plugin.Priority() > selected[j].plugin.Priority()
	})
	out := make([]PostProcessor, len(selected))
	for i, e := range selected {
		out[i] = e.plugin
	}
	return out
}

// orderedValidators returns validators priority descending, registration
// order for ties.
func orderedValidators() []Validator {
	entries := validatorRegistryOnce().snapshot()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].plugin.Priority() > entries[j].plugin.Priority()
	})
	out := make([]Validator, len(entries))
	for i, e := range entries {
		out[i] = e.plugin
	}
	return out
}
