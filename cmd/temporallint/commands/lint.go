package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/linter"
	"github.com/bfv/temporallint/internal/report"
	"github.com/bfv/temporallint/internal/source"
)

// NewLintCmd builds and returns the 'lint' cobra command.
func NewLintCmd(v *viper.Viper) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Lint DDL files, directories or stdin",
		Example: `  # Lint a migrations directory
  temporallint lint migrations/

  # Lint stdin, failing on warnings too
  pg_dump --schema-only mydb | temporallint lint --strict

  # JSON output without the type-affinity rule
  temporallint lint --format json --disable R1 schema.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), "format", "strict", "workers", "evidence", "disable"); err != nil {
				return err
			}
			cfg, err := LoadConfig(v)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			provider := source.NewProvider(cmd.InOrStdin())
			code, err := runLint(cmd.Context(), provider, args, cfg, cmd.OutOrStdout(), outputFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	addLintFlags(cmd.Flags())
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	return cmd
}

// addLintFlags registers the flags shared by lint and watch.
func addLintFlags(fs *pflag.FlagSet) {
	fs.String("format", "text", "Output format: text or json")
	fs.Bool("strict", false, "Exit 1 on warnings as well as errors")
	fs.Int("workers", 0, "Files linted in parallel (0 = GOMAXPROCS)")
	fs.Bool("evidence", false, "Print the offending DDL under each finding")
	fs.StringSlice("disable", nil, "Rules to disable, by ID or short ID (e.g. R1,R10)")
}

// bindFlags binds the named cobra flags into viper so they take precedence
// over the config file and environment.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// runLint is the entry point for the lint command. It returns the process
// exit code; an error means the run could not happen at all. Unreadable
// inputs are reported as fatal findings alongside the rest.
func runLint(ctx context.Context, provider *source.Provider, paths []string, cfg *ConfigFile, stdout io.Writer, outputPath string) (code int, err error) {
	log.Debug().Strs("paths", paths).Str("format", cfg.Format).Bool("strict", cfg.Strict).Msg("lint started")

	sources := provider.Collect(paths)
	log.Debug().Int("sources", len(sources)).Msg("sources collected")

	// Resolve output writer.
	w := stdout
	if outputPath != "" {
		f, ferr := os.Create(outputPath)
		if ferr != nil {
			return 2, fmt.Errorf("creating output file %q: %w", outputPath, ferr)
		}
		bw := bufio.NewWriter(f)
		defer func() {
			if ferr := bw.Flush(); ferr != nil && err == nil {
				code, err = 2, fmt.Errorf("writing output file %q: %w", outputPath, ferr)
			}
			if cerr := f.Close(); cerr != nil && err == nil {
				code, err = 2, fmt.Errorf("closing output file %q: %w", outputPath, cerr)
			}
		}()
		w = bw
		log.Debug().Str("path", outputPath).Msg("writing to file")
	}

	code, err = lintSources(ctx, sources, cfg, w)
	if err != nil {
		return 2, err
	}
	log.Debug().Int("exit", code).Msg("lint complete")
	return code, nil
}

// lintSources lints already collected sources and writes the report.
func lintSources(ctx context.Context, sources []source.Source, cfg *ConfigFile, w io.Writer) (int, error) {
	l, err := newLinter(cfg)
	if err != nil {
		return 2, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := l.LintBatch(ctx, sources)
	if err != nil {
		return 2, err
	}
	code, err := writeResults(w, results, cfg)
	if err != nil {
		return 2, fmt.Errorf("writing output: %w", err)
	}
	return code, nil
}

// newLinter builds a linter from the decoded config.
func newLinter(cfg *ConfigFile) (*linter.Linter, error) {
	rc, err := cfg.RulesConfig()
	if err != nil {
		return nil, err
	}
	return linter.New(linter.Options{
		Config:  rc,
		Workers: cfg.Workers,
		Logger:  log.Logger,
	}), nil
}

// writeResults renders results in the configured format and returns the
// exit code they imply.
func writeResults(w io.Writer, results []*linter.Result, cfg *ConfigFile) (int, error) {
	var (
		total    finding.Summary
		fatal    bool
		sections = make([]report.Section, 0, len(results))
	)
	for _, res := range results {
		total.Merge(res.Summary)
		fatal = fatal || res.Fatal
		sections = append(sections, report.Section{Name: res.Source, Findings: res.Findings})
	}

	var err error
	switch cfg.Format {
	case "json":
		err = report.WriteJSON(w, sections)
	default:
		err = report.WriteText(w, sections, report.Options{Evidence: cfg.Evidence, Summary: true})
	}
	if err != nil {
		return 2, err
	}
	return report.ExitCode(total, fatal, cfg.Strict), nil
}
