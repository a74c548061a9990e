// Package pipeline runs search targets end to end: collect candidate
// places, extract and qualify records, resolve emails and assemble the
// deduplicated lead list.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/lead"
	"github.com/sells-group/lead-cli/internal/maps"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// Collector returns candidate place URLs for a query.
type Collector interface {
	Collect(ctx context.Context, query string, maxItems int) ([]string, error)
}

// Extractor reads and qualifies place records.
type Extractor interface {
	ReadRecord(ctx context.Context, location string) (model.RawRecord, error)
	Qualify(raw model.RawRecord, orgType string) (model.Lead, error)
	ResolveEmail(ctx context.Context, website string) string
}

// Options configures a Runner.
type Options struct {
	// Concurrency bounds parallel email lookups per target. Values below 2
	// process every location strictly in sequence.
	Concurrency int
	RunID       string
}

// Runner processes search targets in order and assembles one lead list.
type Runner struct {
	collector Collector
	extractor Extractor
	opts      Options
}

// NewRunner creates a Runner.
func NewRunner(c Collector, e Extractor, opts Options) *Runner {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Runner{collector: c, extractor: e, opts: opts}
}

// RunID identifies this run in logs and database sinks.
func (r *Runner) RunID() string { return r.opts.RunID }

// Run processes targets in order. Per-target failures are recorded in the
// report and the run moves on; only infrastructure failures and context
// cancellation stop it early. The report always carries the leads gathered
// so far.
func (r *Runner) Run(ctx context.Context, targets []model.SearchTarget) (*Report, error) {
	log := zap.L().With(zap.String("run_id", r.opts.RunID))
	report := &Report{RunID: r.opts.RunID, StartedAt: time.Now().UTC()}
	asm := lead.NewAssembler()

	finish := func(err error) (*Report, error) {
		report.Leads = asm.Leads()
		report.Duration = time.Since(report.StartedAt)
		return report, err
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return finish(eris.Wrap(err, "pipeline: run cancelled"))
		}

		tr, err := r.runTarget(ctx, target, asm)
		report.Targets = append(report.Targets, tr)
		log.Info("pipeline: target complete",
			zap.String("query", tr.Query),
			zap.Int("candidates", tr.Candidates),
			zap.Int("accepted", tr.Accepted),
			zap.Int("duplicates", tr.Duplicates),
			zap.Int("discarded", tr.Discarded),
			zap.Int("failed", tr.Failed),
			zap.Duration("duration", tr.Duration),
		)
		if err != nil {
			return finish(err)
		}
	}

	log.Info("pipeline: run complete", zap.Int("leads", asm.Len()), zap.Int("duplicates", asm.Duplicates()))
	return finish(nil)
}

// candidate tracks one location through the stages of a target.
type candidate struct {
	location string
	website  string
	lead     model.Lead
	email    string
	err      error
}

func (r *Runner) runTarget(ctx context.Context, target model.SearchTarget, asm *lead.Assembler) (TargetReport, error) {
	start := time.Now()
	tr := TargetReport{Query: target.Query, Category: target.Category, MaxItems: target.MaxItems}
	log := zap.L().With(zap.String("query", target.Query))

	locations, err := r.collector.Collect(ctx, target.Query, target.MaxItems)
	tr.Candidates = len(locations)
	if err != nil {
		if resilience.IsFatal(err) || ctx.Err() != nil {
			tr.Error = err.Error()
			tr.Duration = time.Since(start)
			return tr, err
		}
		log.Warn("pipeline: collect failed, skipping target",
			zap.Stringer("kind", resilience.KindOf(err)),
			zap.Error(err),
		)
		tr.Error = err.Error()
	}

	var fatal error
	if r.opts.Concurrency > 1 {
		fatal = r.processConcurrent(ctx, target, locations, asm, &tr)
	} else {
		fatal = r.processSequential(ctx, target, locations, asm, &tr)
	}
	tr.Duration = time.Since(start)
	return tr, fatal
}

func (r *Runner) processSequential(ctx context.Context, target model.SearchTarget, locations []string, asm *lead.Assembler, tr *TargetReport) error {
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: run cancelled")
		}
		c := r.qualify(ctx, loc, target.Category)
		if c.err == nil {
			c.email = r.extractor.ResolveEmail(ctx, c.website)
		}
		if err := r.settle(c, asm, tr); err != nil {
			return err
		}
	}
	return nil
}

// processConcurrent reads records one at a time from the browser, resolves
// emails in parallel, then assembles in location order so the result matches
// processSequential.
func (r *Runner) processConcurrent(ctx context.Context, target model.SearchTarget, locations []string, asm *lead.Assembler, tr *TargetReport) error {
	candidates := make([]candidate, 0, len(locations))
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: run cancelled")
		}
		c := r.qualify(ctx, loc, target.Category)
		if resilience.IsFatal(c.err) {
			return r.settle(c, asm, tr)
		}
		candidates = append(candidates, c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i := range candidates {
		if candidates[i].err != nil {
			continue
		}
		g.Go(func() error {
			candidates[i].email = r.extractor.ResolveEmail(gctx, candidates[i].website)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "pipeline: resolve emails")
	}

	for _, c := range candidates {
		if err := r.settle(c, asm, tr); err != nil {
			return err
		}
	}
	return nil
}

// qualify reads a location and applies the gates that need no network.
func (r *Runner) qualify(ctx context.Context, location, category string) candidate {
	c := candidate{location: location}
	raw, err := r.extractor.ReadRecord(ctx, location)
	if err != nil {
		c.err = err
		return c
	}
	c.website = raw.Website
	c.lead, c.err = r.extractor.Qualify(raw, category)
	return c
}

// settle applies the email gate, adds an accepted lead to asm and updates
// the counters. It returns an error only when the run must stop.
func (r *Runner) settle(c candidate, asm *lead.Assembler, tr *TargetReport) error {
	err := c.err
	var accepted model.Lead
	if err == nil {
		accepted, err = maps.Accept(c.lead, c.email)
	}

	switch {
	case err == nil:
		if asm.Add(accepted) {
			tr.Accepted++
		} else {
			tr.Duplicates++
			zap.L().Debug("pipeline: duplicate lead", zap.String("name", accepted.Name))
		}
	case resilience.IsKind(err, resilience.KindIncompleteRecord):
		tr.Discarded++
		zap.L().Debug("pipeline: record discarded",
			zap.String("location", c.location),
			zap.String("reason", resilience.ReasonOf(err)),
		)
	case resilience.IsFatal(err):
		tr.Failed++
		return err
	default:
		tr.Failed++
		zap.L().Warn("pipeline: record failed",
			zap.String("location", c.location),
			zap.Stringer("kind", resilience.KindOf(err)),
			zap.Error(err),
		)
	}
	return nil
}
