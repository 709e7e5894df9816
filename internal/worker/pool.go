package worker

import (
	"bucketscan/internal/scanner"
	"bucketscan/pkg/domain"
	"bucketscan/pkg/logger"
	"bucketscan/pkg/serrors"
	"bucketscan/pkg/storage"
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reporter receives every terminal result in completion order together with
// the number of completed tasks and the total. Calls are serialized.
type Reporter interface {
	Report(res domain.Result, completed, total int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(res domain.Result, completed, total int)

// Report implements Reporter.
func (f ReporterFunc) Report(res domain.Result, completed, total int) { f(res, completed, total) }

// Summary aggregates the outcome of a run.
type Summary struct {
	// Total is the number of domains submitted.
	Total int
	// Excluded domains were never probed.
	Excluded int
	// Clean domains got a response without the deleted-bucket signature.
	Clean int
	// Findings is the number of findings written.
	Findings int
	// Errors is the number of error records written.
	Errors int
	// WriteErrors counts records the sink failed to persist.
	WriteErrors int
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Options configure the pool.
type Options struct {
	// MaxTasks bounds the number of live task goroutines. Zero means one
	// goroutine per domain; the admission gate still bounds requests.
	MaxTasks int
}

// Pool fans domains out to the scanner and routes every result to the sink.
type Pool struct {
	scanner scanner.Scanner
	sink    storage.Sink
	options Options

	results metric.Int64Counter
}

// Run probes every domain and returns once each of them reached a terminal
// result. A failing domain never affects its siblings. Canceling ctx makes
// the remaining probes terminate early; Run still waits for all of them.
func (p *Pool) Run(ctx context.Context, domains []domain.Domain, reporter Reporter) Summary {
	start := time.Now()
	summary := Summary{Total: len(domains)}

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	if p.options.MaxTasks > 0 {
		g.SetLimit(p.options.MaxTasks)
	}

	for _, d := range domains {
		d := d
		g.Go(func() error {
			res := p.scanner.Probe(ctx, d)
			delta := p.route(ctx, res)

			mu.Lock()
			defer mu.Unlock()

			summary.add(delta)
			completed++
			if reporter != nil {
				reporter.Report(res, completed, summary.Total)
			}

			return nil
		})
	}
	_ = g.Wait()

	summary.Elapsed = time.Since(start)

	return summary
}

// route writes res to the sink and returns its contribution to the summary.
func (p *Pool) route(ctx context.Context, res domain.Result) Summary {
	var delta Summary
	ctx = logger.WithFields(ctx, zap.String("domain", res.Domain.String()))

	outcome := res.Outcome.String()
	switch res.Outcome {
	case domain.OutcomeExcluded:
		delta.Excluded++
	case domain.OutcomeClassified:
		if !res.Candidate {
			delta.Clean++

			break
		}
		outcome = "finding"
		if err := p.sink.AppendFinding(ctx, domain.Finding{URL: res.URL}); err != nil {
			logger.Error(ctx, "could not write finding", zap.Error(err))
			delta.WriteErrors++
		} else {
			delta.Findings++
		}
		// confirmation is best effort and only adds a generic record
		if res.ConfirmErr != nil {
			p.appendError(ctx, &delta, domain.ErrorRecord{Kind: serrors.ErrGeneric, Domain: res.Domain})
		}
	case domain.OutcomeFailed:
		p.appendError(ctx, &delta, domain.ErrorRecord{Kind: res.Kind, Domain: res.Domain})
	default:
		logger.Error(ctx, "unknown probe outcome", zap.Int("outcome", int(res.Outcome)))
		p.appendError(ctx, &delta, domain.ErrorRecord{Kind: serrors.ErrGeneric, Domain: res.Domain})
	}

	p.results.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return delta
}

func (p *Pool) appendError(ctx context.Context, delta *Summary, record domain.ErrorRecord) {
	if err := p.sink.AppendError(ctx, record); err != nil {
		logger.Error(ctx, "could not write error record", zap.Error(err))
		delta.WriteErrors++

		return
	}
	delta.Errors++
}

func (s *Summary) add(o Summary) {
	s.Excluded += o.Excluded
	s.Clean += o.Clean
	s.Findings += o.Findings
	s.Errors += o.Errors
	s.WriteErrors += o.WriteErrors
}

// NewPool constructs a Pool.
func NewPool(s scanner.Scanner, sink storage.Sink, options Options) *Pool {
	results, err := otel.Meter(instrumentationName).Int64Counter("bucketscan.results",
		metric.WithDescription("Terminal probe results by outcome."))
	if err != nil {
		otel.Handle(err)
	}

	return &Pool{
		scanner: s,
		sink:    sink,
		options: options,
		results: results,
	}
}
