// Command kreuzberg is the CLI for the extraction engine.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
	"github.com/kreuzberg/kreuzberg-go/cache"
	"github.com/kreuzberg/kreuzberg-go/internal/server"

	_ "github.com/kreuzberg/kreuzberg-go/extractors"
	_ "github.com/kreuzberg/kreuzberg-go/ocr"
)

var (
	flagConfig   string
	flagMime     string
	flagForceOCR bool
	flagChunk    bool
	flagJSON     bool
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "kreuzberg",
		Short:         "Document text extraction engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if flagVerbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()
			kreuzberg.SetLogger(log)
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML extraction config")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(extractCmd(), batchCmd(), serveCmd(), pluginsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*kreuzberg.ExtractionConfig, error) {
	var cfg *kreuzberg.ExtractionConfig
	if flagConfig != "" {
		loaded, err := kreuzberg.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &kreuzberg.ExtractionConfig{}
	}
	if flagForceOCR {
		cfg.ForceOCR = true
	}
	if flagChunk && cfg.Chunking == nil {
		cfg.Chunking = &kreuzberg.ChunkingConfig{}
	}
	return cfg, nil
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract text from one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := kreuzberg.ExtractFile(cmd.Context(), args[0], flagMime, cfg)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
	cmd.Flags().StringVar(&flagMime, "mime", "", "mime type override")
	cmd.Flags().BoolVar(&flagForceOCR, "force-ocr", false, "always run OCR")
	cmd.Flags().BoolVar(&flagChunk, "chunk", false, "chunk the output")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit the full result as JSON")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Extract text from many documents concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			results, err := kreuzberg.BatchExtractFiles(cmd.Context(), args, cfg)
			if err != nil {
				return err
			}
			if flagJSON {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			for i, r := range results {
				fmt.Printf("=== %s ===\n", args[i])
				fmt.Println(r.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagForceOCR, "force-ocr", false, "always run OCR")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit results as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := zerolog.New(os.Stderr).With().Timestamp().Logger()
			kreuzberg.SetLogger(log)

			srvCfg := server.LoadConfig()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if srvCfg.RedisAddr != "" {
				rc, err := cache.New(ctx, cache.Options{
					Addr:     srvCfg.RedisAddr,
					Password: srvCfg.RedisPassword,
					DB:       srvCfg.RedisDB,
				})
				if err != nil {
					return err
				}
				defer rc.Close()
				kreuzberg.SetCache(rc)
				log.Info().Str("addr", srvCfg.RedisAddr).Msg("redis cache attached")
			}

			return server.New(srvCfg, log).ListenAndServe(ctx)
		},
	}
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins",
		RunE: func(_ *cobra.Command, _ []string) error {
			out := map[string][]string{
				"extractors":      kreuzberg.ListExtractors(),
				"ocr_backends":    kreuzberg.ListOcrBackends(),
				"post_processors": kreuzberg.ListPostProcessors(),
				"validators":      kreuzberg.ListValidators(),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func printResult(result *kreuzberg.ExtractionResult) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Println(result.Content)
	return nil
}
