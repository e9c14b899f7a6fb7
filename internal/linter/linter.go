// Package linter wires the pipeline together: split, parse, build the
// schema model, classify and evaluate rules. It exposes the single-source,
// batch and classification entry points used by the CLI.
package linter

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/rules"
	"github.com/bfv/temporallint/internal/schema"
	"github.com/bfv/temporallint/internal/source"
	"github.com/bfv/temporallint/internal/splitter"
)

// Options configures a Linter.
type Options struct {
	// Rules is the ordered rule list; nil means rules.Default().
	Rules []rules.Rule
	// Config selects and tunes rules; nil means rules.NewConfig().
	Config *rules.Config
	// Workers bounds LintBatch parallelism; 0 means GOMAXPROCS.
	Workers int
	Logger  zerolog.Logger
}

// Linter runs the pipeline. It is safe for concurrent use.
type Linter struct {
	engine  *rules.Engine
	workers int
	log     zerolog.Logger
}

// Result is the outcome for one source.
type Result struct {
	Source   string
	Model    *schema.Model
	Classes  map[string]classify.Classification
	Findings []finding.Finding
	Summary  finding.Summary
	// Fatal is set when no analysis was possible: the input could not be
	// read, or every recognised statement failed to parse.
	Fatal bool
}

// New builds a Linter. The zero Options lints with the default rules.
func New(opts Options) *Linter {
	list := opts.Rules
	if list == nil {
		list = rules.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Linter{
		engine:  rules.NewEngine(list, opts.Config),
		workers: workers,
		log:     opts.Logger,
	}
}

// Lint runs the full pipeline over one DDL text. It never fails: every
// recoverable problem becomes a finding.
func (l *Linter) Lint(name string, src []byte) *Result {
	log := l.log.With().Str("source", name).Logger()
	res := &Result{Source: name}

	sp := splitter.New(src)
	var decls []ddl.Decl
	parsed, failed := 0, 0
	for st := range sp.All() {
		d, err := ddl.Parse(st)
		var perr *ddl.ParseError
		switch {
		case errors.As(err, &perr):
			failed++
			log.Debug().Int("offset", perr.Offset).Str("kind", st.Kind.String()).Msg(perr.Reason)
			res.Findings = append(res.Findings, finding.Finding{
				RuleID:   finding.RuleParseError,
				Severity: finding.SeverityError,
				Message:  fmt.Sprintf("%s statement skipped: %s", st.Kind, perr.Error()),
				Evidence: finding.Excerpt(st.Text),
			})
		case err != nil:
			failed++
			res.Findings = append(res.Findings, finding.Finding{
				RuleID:   finding.RuleParseError,
				Severity: finding.SeverityError,
				Message:  err.Error(),
				Evidence: finding.Excerpt(st.Text),
			})
		case d == nil:
			log.Debug().Int("offset", st.Start).Str("kind", st.Kind.String()).Msg("statement skipped")
		default:
			parsed++
			decls = append(decls, d)
		}
	}
	for _, lerr := range sp.Errors() {
		res.Findings = append(res.Findings, finding.Finding{
			RuleID:   finding.RuleUnterminatedLiteral,
			Severity: finding.SeverityError,
			Message:  lerr.Error(),
			Evidence: finding.Excerpt(excerptAt(src, lerr.Offset)),
		})
	}

	res.Model, _ = schema.Build(decls)
	res.Classes = make(map[string]classify.Classification, res.Model.Len())
	policy := l.engine.Policy()
	res.Model.Each(func(t *ddl.TableDecl) {
		res.Classes[t.Name] = policy.Classify(t)
	})
	res.Findings = append(res.Findings, l.engine.Run(res.Model, res.Classes)...)
	res.Summary = finding.Summarize(res.Findings)
	res.Fatal = failed > 0 && parsed == 0

	log.Debug().
		Int("tables", res.Model.Len()).
		Int("errors", res.Summary.Errors).
		Int("warnings", res.Summary.Warnings).
		Int("infos", res.Summary.Infos).
		Msg("lint complete")
	return res
}

// LintBatch lints every source on a bounded worker pool. Each worker owns
// its result; results come back in input order. A source that could not be
// read yields a fatal result.
func (l *Linter) LintBatch(ctx context.Context, sources []source.Source) ([]*Result, error) {
	results := make([]*Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if src.Err != nil {
				l.log.Error().Err(src.Err).Str("source", src.Name).Msg("source unreadable")
				results[i] = FatalResult(src.Name, src.Err)
				return nil
			}
			results[i] = l.Lint(src.Name, src.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("linting batch: %w", err)
	}
	return results, nil
}

// FatalResult records a source that could not be read.
func FatalResult(name string, err error) *Result {
	f := finding.Finding{
		RuleID:   finding.RuleParseError,
		Severity: finding.SeverityError,
		Message:  err.Error(),
	}
	return &Result{
		Source:   name,
		Model:    schema.NewModel(),
		Classes:  map[string]classify.Classification{},
		Findings: []finding.Finding{f},
		Summary:  finding.Summarize([]finding.Finding{f}),
		Fatal:    true,
	}
}

// Lint runs the default pipeline over src.
func Lint(src string) (*schema.Model, []finding.Finding) {
	res := New(Options{Logger: zerolog.Nop()}).Lint("", []byte(src))
	return res.Model, res.Findings
}

// Classify categorises the temporal columns of t with the default policy.
func Classify(t *ddl.TableDecl) classify.Classification {
	return classify.Classify(t)
}

// excerptAt returns the source text starting at offset.
func excerptAt(src []byte, offset int) string {
	if offset < 0 || offset >= len(src) {
		return ""
	}
	end := min(len(src), offset+200)
	return string(src[offset:end])
}
