package main

import (
	"bucketscan/internal/api"
	"bucketscan/internal/config"
	"bucketscan/internal/scanner"
	"bucketscan/internal/worker"
	"bucketscan/pkg/fetcher/httpfetcher"
	"bucketscan/pkg/logger"
	"bucketscan/pkg/metrics"
	"bucketscan/pkg/resolver/dnsresolver"
	"bucketscan/pkg/storage/file"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// huntFlags are command line overrides of the config file.
type huntFlags struct {
	domains     string
	exclusions  string
	errors      string
	findings    string
	concurrency int
	maxAttempts int
	deadline    time.Duration
	dnsServers  []string
	noProgress  bool
}

// apply copies every flag the user set onto cfg.
func (f *huntFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("domains") {
		cfg.Files.Domains = f.domains
	}
	if changed("exclusions") {
		cfg.Files.Exclusions = f.exclusions
	}
	if changed("errors") {
		cfg.Files.Errors = f.errors
	}
	if changed("findings") {
		cfg.Files.Findings = f.findings
	}
	if changed("concurrency") {
		cfg.Probe.Concurrency = f.concurrency
	}
	if changed("max-attempts") {
		cfg.Probe.MaxAttempts = f.maxAttempts
	}
	if changed("deadline") {
		cfg.Probe.Deadline = f.deadline
	}
	if changed("dns-server") {
		cfg.DNS.Servers = f.dnsServers
	}
}

func setupServer(ctx context.Context, cfg *config.Config) func(ctx context.Context) {
	server := api.NewServer(api.NewOptions(cfg))

	go func() {
		logger.Info(ctx, "starting debug server...", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start debug server", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping debug server...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop debug server", zap.Error(err))
		}
	}
}

func huntCommand(cfg *config.Config) *cobra.Command {
	var flags huntFlags

	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Probes every domain in the domain list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(cmd, cfg)

			return hunt(cmd.Context(), cmd, cfg, !flags.noProgress)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.domains, "domains", "", "domain list file (overrides files.domains)")
	f.StringVar(&flags.exclusions, "exclusions", "", "exclusion list file (overrides files.exclusions)")
	f.StringVar(&flags.errors, "errors", "", "errors output file (overrides files.errors)")
	f.StringVar(&flags.findings, "findings", "", "findings output file (overrides files.findings)")
	f.IntVar(&flags.concurrency, "concurrency", 0, "maximum concurrent requests (overrides probe.concurrency)")
	f.IntVar(&flags.maxAttempts, "max-attempts", 0, "attempts per domain, 0 retries forever (overrides probe.maxAttempts)")
	f.DurationVar(&flags.deadline, "deadline", 0, "deadline for the whole run, 0 disables it (overrides probe.deadline)")
	f.StringArrayVar(&flags.dnsServers, "dns-server", nil, "DNS server for CNAME lookups, repeatable (overrides dns.servers)")
	f.BoolVar(&flags.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func hunt(ctx context.Context, cmd *cobra.Command, cfg *config.Config, progress bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithFields(ctx, zap.String("runID", uuid.NewString()))
	out := cmd.OutOrStdout()

	// the domain list is the one input whose absence aborts the run
	domains, err := scanner.ReadDomains(cfg.Files.Domains)
	if err != nil {
		return fmt.Errorf("could not load domains: %w", err)
	}
	for _, path := range []string{cfg.Files.Exclusions, cfg.Files.Errors, cfg.Files.Findings} {
		if err := file.Touch(path); err != nil {
			return fmt.Errorf("could not prepare side file: %w", err)
		}
	}
	exclusions, err := scanner.LoadExclusions(cfg.Files.Exclusions, cfg.Probe.StrictExclusions)
	if err != nil {
		return fmt.Errorf("could not load exclusions: %w", err)
	}

	if cfg.Probe.MaxAttempts <= 0 && cfg.Probe.Deadline <= 0 {
		logger.Warn(ctx, "no attempt cap and no deadline set, a permanently unreachable domain keeps the run alive")
	}

	shutdownMetrics, err := metrics.Setup(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("could not setup metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logger.Warn(ctx, "could not shutdown metrics", zap.Error(err))
		}
	}()

	if cfg.HTTP.Addr != "" {
		stopServer := setupServer(ctx, cfg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()
			stopServer(shutdownCtx)
		}()
	}

	resolver, err := dnsresolver.New(dnsresolver.Options{Servers: cfg.DNS.Servers, Timeout: cfg.DNS.Timeout})
	if err != nil {
		return fmt.Errorf("could not create resolver: %w", err)
	}

	sink, err := file.New(file.Options{FindingsPath: cfg.Files.Findings, ErrorsPath: cfg.Files.Errors})
	if err != nil {
		return fmt.Errorf("could not open outputs: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error(ctx, "could not close outputs", zap.Error(err))
		}
	}()

	gate := worker.NewGate(cfg.Probe.Concurrency, cfg.Probe.RateLimit)
	fetcher := httpfetcher.New(httpfetcher.Options{
		Timeout:      cfg.Probe.Timeout,
		UserAgent:    cfg.Probe.UserAgent,
		MaxBodyBytes: cfg.Probe.MaxBodyBytes,
	})
	s := scanner.New(fetcher, resolver, gate, exclusions, scanner.NewOptions(cfg))
	pool := worker.NewPool(s, sink, worker.Options{MaxTasks: cfg.Probe.MaxTasks})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Probe.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Probe.Deadline)
		defer cancel()
	}

	logger.Info(ctx, "starting hunt",
		zap.Int("domains", len(domains)),
		zap.Int("exclusions", exclusions.Len()),
		zap.Int("concurrency", gate.Capacity()),
		zap.Strings("dnsServers", resolver.Servers()))
	fmt.Fprintln(out, infof("Probing %d domains with %d concurrent requests", len(domains), gate.Capacity()))

	c := newConsole(out, len(domains), progress)
	summary := pool.Run(ctx, domains, c)
	c.Finish()

	logger.Info(ctx, "hunt finished",
		zap.Int("findings", summary.Findings),
		zap.Int("errors", summary.Errors),
		zap.Int("excluded", summary.Excluded),
		zap.Int("clean", summary.Clean),
		zap.Int("writeErrors", summary.WriteErrors),
		zap.Duration("elapsed", summary.Elapsed))
	fmt.Fprintln(out, infof("Scanned %d domains in %s (%d findings, %d errors, %d excluded)",
		summary.Total, summary.Elapsed.Round(time.Millisecond), summary.Findings, summary.Errors, summary.Excluded))

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, warnf("run interrupted: %v", context.Cause(ctx)))
	}

	return nil
}
