package kreuzberg

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// PanicContext records where a recovered panic happened so it can be
// reported across foreign boundaries that cannot carry Go errors.
type PanicContext struct {
	File      string
	Line      int
	Function  string
	Message   string
	Timestamp time.Time
}

// Format renders the context as a single human-readable line.
func (c *PanicContext) Format() string {
	return fmt.Sprintf("Panic at %s:%d:%s - %s", c.File, c.Line, c.Function, c.Message)
}

// Panic messages are truncated so a hostile payload cannot blow up the
// error side channel.
const maxPanicMessageLen = 4096

func panicMessage(recovered any) string {
	var msg string
	switch v := recovered.(type) {
	case string:
		msg = v
	case error:
		msg = v.Error()
	default:
		msg = fmt.Sprintf("%v", v)
	}
	if len(msg) > maxPanicMessageLen {
		cut := maxPanicMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "... [truncated]"
	}
	return msg
}

// capturePanicContext walks the stack from inside a deferred recover and
// locates the first frame outside the runtime, which is the panic site.
func capturePanicContext(function string, recovered any) *PanicContext {
	ctx := &PanicContext{
		File:      "unknown",
		Function:  function,
		Message:   panicMessage(recovered),
		Timestamp: time.Now(),
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.HasPrefix(frame.Function, "runtime.") &&
			!strings.HasPrefix(frame.Function, "github.com/kreuzberg/kreuzberg-go.ShieldCall") {
			ctx.File = frame.File
			ctx.Line = frame.Line
			break
		}
		if !more {
			break
		}
	}
	return ctx
}

// StructuredError is the cross-boundary error representation: a stable
// numeric code, a message, and the panic capture site when the failure
// was an unwind rather than a returned error.
type StructuredError struct {
	Message string
	Code    Kind
	Panic   *PanicContext
}

// FullMessage includes the panic location when present.
func (s *StructuredError) FullMessage() string {
	if s.Panic != nil {
		return fmt.Sprintf("%s (at %s:%d:%s)", s.Message, s.Panic.File, s.Panic.Line, s.Panic.Function)
	}
	return s.Message
}

// ErrCodeNone is returned by LastErrorCode when no error is stored.
const ErrCodeNone int32 = -1

// Shield guards calls that cross into plugin or foreign code. A panic
// inside a guarded call never propagates: it is converted into a
// structured error stored in the shield's slot, and the caller gets a
// regular error (or sentinel, at the FFI layer). The slot is owned by
// the caller that observed the failure until it is read and cleared.
type Shield struct {
	mu   sync.Mutex
	last *StructuredError
}

// NewShield returns an empty shield.
func NewShield() *Shield { return &Shield{} }

var processShield = NewShield()

// DefaultShield returns the process-wide shield backing the FFI error
// side channel. Only boundary entry points store into it; internal
// pipeline calls use throwaway shields so concurrent extractions cannot
// clobber each other's slot.
func DefaultShield() *Shield { return processShield }

func (s *Shield) store(se *StructuredError) {
	s.mu.Lock()
	s.last = se
	s.mu.Unlock()
}

// LastErrorMessage returns the stored error message, or "" if the slot
// is empty.
func (s *Shield) LastErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ""
	}
	return s.last.FullMessage()
}

// LastErrorCode returns the stored error's numeric code, or ErrCodeNone.
func (s *Shield) LastErrorCode() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ErrCodeNone
	}
	return s.last.Code.Code()
}

// LastPanicContext returns the stored panic context, or nil if the last
// failure was not a panic (or the slot is empty).
func (s *Shield) LastPanicContext() *PanicContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.Panic
}

// ClearLastError empties the slot.
func (s *Shield) ClearLastError() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

// ShieldCall runs fn under the shield. On a panic it captures the panic
// context, stores a structured error in the shield's slot, and returns a
// KindPanic error; the unwind stops here. Returned errors are also
// recorded in the slot so FFI callers can poll the side channel after
// observing a sentinel.
func ShieldCall[T any](s *Shield, function string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			ctx := capturePanicContext(function, recovered)
			s.store(&StructuredError{Message: ctx.Format(), Code: KindPanic, Panic: ctx})
			var zero T
			out = zero
			err = &Error{Kind: KindPanic, Message: ctx.Message, Panic: ctx}
		}
	}()
	out, err = fn()
	if err != nil {
		e := AsError(err)
		s.store(&StructuredError{Message: e.Message, Code: e.Kind, Panic: e.Panic})
	}
	return out, err
}
