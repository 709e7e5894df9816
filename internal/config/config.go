package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
// It contains settings for the environment, input and output files, probing,
// DNS confirmation and the optional debug HTTP server.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Log configures the structured logger.
	Log struct {
		// Level overrides the environment's default level (debug, info, warn, error).
		Level string `env:"LOG_LEVEL" env-default:"" yaml:"level"`
	} `yaml:"log"`

	// Files lists the input and output files of a hunt.
	Files struct {
		// Domains is the newline separated list of hostnames to probe. It must exist.
		Domains string `env:"FILES_DOMAINS" env-default:"domains.txt" yaml:"domains"`
		// Exclusions lists hostnames that must never be probed. Created empty if absent.
		Exclusions string `env:"FILES_EXCLUSIONS" env-default:"excluded.txt" yaml:"exclusions"`
		// Errors receives "<ErrorKind>: <domain>" lines. Created empty if absent.
		Errors string `env:"FILES_ERRORS" env-default:"errors.txt" yaml:"errors"`
		// Findings receives "http://<domain>" lines. Created empty if absent.
		Findings string `env:"FILES_FINDINGS" env-default:"findings.txt" yaml:"findings"`
	} `yaml:"files"`

	// Probe configures the probing engine.
	Probe struct {
		// Concurrency is the number of admission slots.
		Concurrency int `env:"PROBE_CONCURRENCY" env-default:"50" yaml:"concurrency"`
		// Timeout bounds a single HTTP attempt.
		Timeout time.Duration `env:"PROBE_TIMEOUT" env-default:"10s" yaml:"timeout"`
		// MaxBodyBytes caps how much of a response body is read.
		MaxBodyBytes int64 `env:"PROBE_MAX_BODY_BYTES" env-default:"1048576" yaml:"maxBodyBytes"`
		// Marker is the body substring of a deleted bucket's 404 page.
		Marker string `env:"PROBE_MARKER" env-default:"NoSuchBucket" yaml:"marker"`
		// UserAgent overrides the default browser user agent.
		UserAgent string `env:"PROBE_USER_AGENT" env-default:"" yaml:"userAgent"`
		// MaxAttempts caps the attempts per domain. 0 retries transient failures forever.
		MaxAttempts int `env:"PROBE_MAX_ATTEMPTS" env-default:"0" yaml:"maxAttempts"`
		// Deadline bounds the whole run. 0 disables it.
		Deadline time.Duration `env:"PROBE_DEADLINE" env-default:"0s" yaml:"deadline"`
		// RateLimit is the maximum number of requests started per second. 0 disables it.
		RateLimit float64 `env:"PROBE_RATE_LIMIT" env-default:"0" yaml:"rateLimit"`
		// MaxTasks bounds the number of live task goroutines. 0 is one per domain.
		MaxTasks int `env:"PROBE_MAX_TASKS" env-default:"0" yaml:"maxTasks"`
		// StrictExclusions matches exclusions by whole line instead of substring.
		StrictExclusions bool `env:"PROBE_STRICT_EXCLUSIONS" env-default:"false" yaml:"strictExclusions"`
	} `yaml:"probe"`

	// DNS configures CNAME confirmation.
	DNS struct {
		// Servers are queried in order. Empty uses the system resolvers.
		Servers []string `env:"DNS_SERVERS" env-separator:"," yaml:"servers"`
		// Timeout bounds a single DNS exchange.
		Timeout time.Duration `env:"DNS_TIMEOUT" env-default:"5s" yaml:"timeout"`
	} `yaml:"dns"`

	// HTTP contains the debug server configuration.
	HTTP struct {
		// Addr is the address and port the debug server listens on. Empty disables it.
		Addr string `env:"HTTP_ADDR" env-default:"" yaml:"addr"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// PprofPath defines the URL prefix of the pprof handlers. Empty disables them.
		PprofPath string `env:"HTTP_PPROF_PATH" env-default:"/debug/pprof/" yaml:"pprofPath"`
	} `yaml:"http"`

	// GracefulShutdownTimeout is the maximum duration to wait for the debug server to stop
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
// A missing file is not an error: the configuration then comes from environment
// variables and defaults alone.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from env: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// Dump writes cfg to w as YAML.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}

	return enc.Close() //nolint: wrapcheck
}
