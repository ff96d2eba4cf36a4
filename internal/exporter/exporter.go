// Package exporter renders every library rule into files on disk, one
// file per rule per format, fanned out through a bounded worker pool.
// A cron schedule can re-run the export so generated diagrams track
// library edits.
package exporter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// DefaultWorkers bounds render concurrency when Options leaves it zero.
const DefaultWorkers = 4

// Options tune one export run.
type Options struct {
	// Dir is the output root. Each format writes into its own
	// subdirectory under it.
	Dir string

	// Formats selects registered format names. Empty means every
	// registered format.
	Formats []string

	// Orientation and ExpandAll pass through to the renderers.
	Orientation string
	ExpandAll   bool

	// Workers is the pool size. Zero means DefaultWorkers.
	Workers int
}

// Failure records one render or write that did not produce a file.
// Format is empty when the rule's source failed to parse, which skips
// every format at once.
type Failure struct {
	Rule   string `json:"rule"`
	Format string `json:"format,omitempty"`
	Err    string `json:"err"`
}

// Report summarizes one export run.
type Report struct {
	Rules    int           `json:"rules"`
	Files    int           `json:"files"`
	Failures []Failure     `json:"failures,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Exporter renders library rules through the format registry.
type Exporter struct {
	lib    library.Library
	reg    *render.Registry
	logger *slog.Logger
}

// New wires an exporter. A nil logger falls back to slog.Default.
func New(lib library.Library, reg *render.Registry, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{lib: lib, reg: reg, logger: logger}
}

// Export renders every library rule in every selected format into
// opts.Dir. Individual render or write failures land in the report;
// only infrastructure problems (unknown format, listing, directory
// creation) abort the run.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	ctx = logging.WithSurface(ctx, logging.SurfaceExport)

	formats, err := e.resolveFormats(opts.Formats)
	if err != nil {
		return nil, err
	}
	if opts.Dir == "" {
		return nil, rule.NewError(rule.ErrCodeValidation, "export directory is required")
	}
	for _, f := range formats {
		if err := os.MkdirAll(filepath.Join(opts.Dir, f), 0o755); err != nil {
			return nil, rule.NewError(rule.ErrCodeStore, "create export directory").WithCause(err)
		}
	}

	rules, err := e.lib.List(ctx, library.Filter{})
	if err != nil {
		return nil, err
	}

	report := &Report{Rules: len(rules)}
	var mu sync.Mutex
	files := 0
	fail := func(f Failure) {
		mu.Lock()
		report.Failures = append(report.Failures, f)
		mu.Unlock()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	pool := NewPool(workers)
	defer pool.Shutdown()

	for _, sr := range rules {
		parsed, perr := sr.Rule()
		if perr != nil {
			fail(Failure{Rule: sr.Name, Err: perr.Error()})
			continue
		}
		for _, format := range formats {
			jobCtx := logging.WithFormat(logging.WithRuleName(ctx, sr.Name), format)
			err := pool.Submit(jobCtx, func(ctx context.Context) error {
				if err := e.exportOne(ctx, opts, sr, parsed, format); err != nil {
					fail(Failure{Rule: sr.Name, Format: format, Err: err.Error()})
					return err
				}
				mu.Lock()
				files++
				mu.Unlock()
				return nil
			})
			if err != nil {
				// Submission fails only on cancellation or shutdown;
				// the remaining jobs would fail the same way.
				fail(Failure{Rule: sr.Name, Format: format, Err: err.Error()})
				pool.Wait()
				report.Files = files
				report.Elapsed = time.Since(start)
				return report, err
			}
		}
	}

	pool.Wait()
	report.Files = files
	report.Elapsed = time.Since(start)

	e.logger.InfoContext(ctx, "export finished",
		slog.Int("rules", report.Rules),
		slog.Int("files", report.Files),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (e *Exporter) exportOne(ctx context.Context, opts Options, sr *library.StoredRule, parsed *rule.Rule, format string) error {
	r, err := e.reg.Get(format)
	if err != nil {
		return err
	}
	res, err := r.Render(ctx, render.Request{
		Rule:        parsed,
		Orientation: opts.Orientation,
		ExpandAll:   opts.ExpandAll,
		Title:       sr.Name,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "render failed", slog.String("error", err.Error()))
		return err
	}

	path := filepath.Join(opts.Dir, format, fileStem(sr.Name)+res.Ext)
	if err := os.WriteFile(path, res.Content, 0o644); err != nil {
		e.logger.ErrorContext(ctx, "write failed", slog.String("error", err.Error()))
		return rule.NewErrorf(rule.ErrCodeStore, "write %s", path).WithCause(err)
	}
	e.logger.DebugContext(ctx, "exported", slog.String("path", path))
	return nil
}

// resolveFormats expands an empty selection to every registered format
// and verifies an explicit one up front, so an unknown name fails the
// run before any file is written.
func (e *Exporter) resolveFormats(names []string) ([]string, error) {
	if len(names) == 0 {
		infos := e.reg.List()
		out := make([]string, 0, len(infos))
		for _, in := range infos {
			out = append(out, in.Name)
		}
		return out, nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, err := e.reg.Get(n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// fileStem makes a rule name safe as a file stem. Anything outside the
// portable name alphabet becomes a dash.
func fileStem(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
