package scanner

import (
	"bucketscan/internal/config"
	"bucketscan/pkg/domain"
	"bucketscan/pkg/fetcher"
	"bucketscan/pkg/logger"
	"bucketscan/pkg/resolver"
	"bucketscan/pkg/serrors"
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "bucketscan/internal/scanner"

// DefaultMarker is the error code S3 returns for a bucket that does not exist.
const DefaultMarker = "NoSuchBucket"

// Options configure how a probe classifies responses and retries failures.
type Options struct {
	// Marker is the body substring that, together with a 404 status, marks an
	// abandoned bucket.
	Marker string
	// Policy is consulted after every transient failure.
	Policy RetryPolicy
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Marker: cfg.Probe.Marker,
		Policy: CappedRetryPolicy(cfg.Probe.MaxAttempts, DefaultRetryPolicy),
	}
}

// Attempt is the per-probe retry state. It is owned by one Probe call.
type Attempt struct {
	Domain domain.Domain
	// Attempts is the number of HTTP requests issued so far.
	Attempts int
	// Failures is the number of consecutive transient failures so far.
	Failures int
	// LastKind is the kind of the last transient failure, nil before the first.
	LastKind serrors.Kind
}

// scanner is the concrete implementation of the Scanner interface.
type scanner struct {
	options    Options
	fetcher    fetcher.Fetcher
	resolver   resolver.Resolver
	admitter   Admitter
	exclusions *Exclusions

	tracer   trace.Tracer
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

// Probe implements Scanner.
func (s *scanner) Probe(ctx context.Context, d domain.Domain) domain.Result {
	res := domain.Result{Domain: d, URL: domain.TargetURL(d)}
	ctx = logger.WithFields(ctx, zap.String("domain", d.String()))

	if s.exclusions.Contains(d) {
		logger.Info(ctx, "Domain excluded")
		res.Outcome = domain.OutcomeExcluded

		return res
	}

	ctx, span := s.tracer.Start(ctx, "scanner.Probe", trace.WithAttributes(attribute.String("domain", d.String())))
	defer span.End()

	res = s.probe(ctx, res)

	span.SetAttributes(
		attribute.String("outcome", res.Outcome.String()),
		attribute.Int("attempts", res.Attempts),
		attribute.Bool("candidate", res.Candidate),
	)
	if res.Outcome == domain.OutcomeFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Kind.Error())
	}

	return res
}

func (s *scanner) probe(ctx context.Context, res domain.Result) domain.Result {
	attempt := Attempt{Domain: res.Domain}

	for {
		resp, err := s.do(ctx, &attempt, res.URL)
		res.Attempts = attempt.Attempts
		if err == nil {
			return s.classify(ctx, res, resp)
		}

		if ctx.Err() != nil {
			return s.fail(ctx, res, interruptedKind(attempt), err)
		}

		kind := serrors.KindOf(err)
		if !kind.Retryable() {
			return s.fail(ctx, res, kind, err)
		}

		attempt.Failures++
		attempt.LastKind = kind

		giveUp, delay := s.options.Policy(attempt.Failures)
		if giveUp {
			logger.Warn(ctx, "Giving up on domain", zap.Int("attempts", attempt.Attempts), zap.String("kind", kind.Error()))

			return s.fail(ctx, res, kind, err)
		}

		logger.Debug(ctx, "Retrying transient failure",
			zap.Int("attempt", attempt.Attempts),
			zap.String("kind", kind.Error()),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := sleep(ctx, delay); err != nil {
			return s.fail(ctx, res, interruptedKind(attempt), err)
		}
	}
}

// do runs one HTTP attempt while holding an admission slot. The slot is
// released before the caller sleeps for backoff.
func (s *scanner) do(ctx context.Context, attempt *Attempt, URL string) (*fetcher.Response, error) {
	if err := s.admitter.Acquire(ctx); err != nil {
		return nil, serrors.Wrap(serrors.ErrGeneric, err, "could not acquire admission slot")
	}
	defer s.admitter.Release()

	attempt.Attempts++
	start := time.Now()
	resp, err := s.fetcher.Get(ctx, URL)

	kind := "ok"
	if err != nil {
		kind = serrors.KindOf(err).Error()
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	s.attempts.Add(ctx, 1, attrs)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	return resp, err //nolint: wrapcheck
}

func (s *scanner) classify(ctx context.Context, res domain.Result, resp *fetcher.Response) domain.Result {
	res.Outcome = domain.OutcomeClassified
	res.StatusCode = resp.StatusCode

	if !IsAbandonedBucket(resp, s.options.Marker) {
		logger.Debug(ctx, "Domain is not a candidate", zap.Int("status", resp.StatusCode))

		return res
	}

	res.Candidate = true
	res.Bucket = BucketName(resp.Body)
	logger.Info(ctx, "Abandoned bucket candidate found", zap.String("bucket", res.Bucket))

	cnames, err := s.resolver.CNAME(ctx, res.Domain.String())
	if err == nil && len(cnames) == 0 {
		err = resolver.ErrNoCNAME
	}
	if err != nil {
		res.ConfirmErr = err
		logger.Warn(ctx, "Could not confirm CNAME", zap.Error(err))

		return res
	}
	res.CNAMEs = cnames
	logger.Info(ctx, "CNAME confirmed", zap.Strings("cnames", cnames))

	return res
}

func (s *scanner) fail(ctx context.Context, res domain.Result, kind serrors.Kind, err error) domain.Result {
	res.Outcome = domain.OutcomeFailed
	res.Kind = kind
	res.Err = err

	if kind.Retryable() {
		logger.Warn(ctx, "Probe failed", zap.String("kind", kind.Error()), zap.Error(err))
	} else {
		logger.Error(ctx, "Probe failed with unclassified error", zap.Error(err))
	}

	return res
}

// interruptedKind is the kind recorded for a probe cut short by cancellation.
func interruptedKind(attempt Attempt) serrors.Kind {
	if attempt.LastKind != nil {
		return attempt.LastKind
	}

	return serrors.ErrGeneric
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err() //nolint: wrapcheck
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint: wrapcheck
	case <-t.C:
		return nil
	}
}

// IsAbandonedBucket reports whether resp carries the deleted-bucket signature:
// status 404 and a body containing marker. The marker alone is not enough.
func IsAbandonedBucket(resp *fetcher.Response, marker string) bool {
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return false
	}
	if marker == "" {
		marker = DefaultMarker
	}

	return bytes.Contains(resp.Body, []byte(marker))
}

// s3Error is the XML error document returned by S3.
type s3Error struct {
	XMLName    xml.Name `xml:"Error"`
	Code       string   `xml:"Code"`
	BucketName string   `xml:"BucketName"`
}

// BucketName extracts the bucket name from an S3 error document. It returns an
// empty string when body is not such a document.
func BucketName(body []byte) string {
	var doc s3Error
	if err := xml.Unmarshal(body, &doc); err != nil {
		return ""
	}

	return doc.BucketName
}

// Ensure scanner conforms to the Scanner interface at compile time.
var _ Scanner = (*scanner)(nil)

// New constructs a Scanner. Instruments are created from the global otel
// providers, so metrics.Setup should run first.
func New(f fetcher.Fetcher, r resolver.Resolver, a Admitter, exclusions *Exclusions, options Options) Scanner {
	if options.Marker == "" {
		options.Marker = DefaultMarker
	}
	if options.Policy == nil {
		options.Policy = DefaultRetryPolicy
	}

	meter := otel.Meter(instrumentationName)
	attempts, err := meter.Int64Counter("bucketscan.probe.attempts",
		metric.WithDescription("HTTP probe attempts by result kind."))
	if err != nil {
		otel.Handle(err)
	}
	duration, err := meter.Float64Histogram("bucketscan.probe.duration",
		metric.WithDescription("Duration of a single HTTP probe attempt."),
		metric.WithUnit("s"))
	if err != nil {
		otel.Handle(err)
	}

	return &scanner{
		options:    options,
		fetcher:    f,
		resolver:   r,
		admitter:   a,
		exclusions: exclusions,
		tracer:     otel.Tracer(instrumentationName),
		attempts:   attempts,
		duration:   duration,
	}
}
