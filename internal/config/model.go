package config

import "time"

// EnvConfig is the configuration returned by Loader.Load: commitHash, ITC
// endpoint, worker-pool size, retry backoff parameters, future-limit
// default, and the atom-count ceiling. It is also the top-level shape
// loaded from the layered YAML configuration files.
type EnvConfig struct {
	// CommitHash is an opaque version tag mixed into every cache
	// fingerprint so a code change invalidates cached digests without an
	// explicit sweep (spec §9).
	CommitHash string `yaml:"commit_hash" json:"commit_hash"`

	Itc         ItcConfig         `yaml:"itc" json:"itc"`
	Database    DatabaseConfig    `yaml:"database" json:"database"`
	Obscalc     ObscalcConfig     `yaml:"obscalc" json:"obscalc"`
	Generator   GeneratorConfig   `yaml:"generator" json:"generator"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" json:"metrics"`
}

// DatabaseConfig points the obscalc engine's MetaStore at a Postgres
// instance. An empty Dsn keeps the engine on InMemoryStore, which is the
// default for local runs and tests.
type DatabaseConfig struct {
	Dsn string `yaml:"dsn" json:"dsn"`
}

// ItcConfig configures the integration-time client cache (C2).
type ItcConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	CacheCapacity  int           `yaml:"cache_capacity" json:"cache_capacity"`
}

// ObscalcConfig configures the background calculation engine (C8).
type ObscalcConfig struct {
	WorkerPoolSize  int           `yaml:"worker_pool_size" json:"worker_pool_size"`
	TickInterval    time.Duration `yaml:"tick_interval" json:"tick_interval"`
	LeaseDuration   time.Duration `yaml:"lease_duration" json:"lease_duration"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	RetryBackoff    BackoffConfig `yaml:"retry_backoff" json:"retry_backoff"`
}

// BackoffConfig is the exponential-backoff-with-jitter policy for the
// obscalc Retry state (spec §4.8).
type BackoffConfig struct {
	Base   time.Duration `yaml:"base" json:"base"`
	Max    time.Duration `yaml:"max" json:"max"`
	Jitter float64       `yaml:"jitter" json:"jitter"`
}

// GeneratorConfig bounds the protosequence generator (C4). Only FutureLimit
// reaches the generator; AtomCountCeiling is not read anywhere, and the
// ceiling in force is the constant protoseq.MaxAtoms.
type GeneratorConfig struct {
	FutureLimit     int `yaml:"future_limit" json:"future_limit"`
	AtomCountCeiling int `yaml:"atom_count_ceiling" json:"atom_count_ceiling"`
}

// LoggingConfig configures the ambient structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// Default returns the baseline configuration used when no file overrides a
// given field.
func Default() EnvConfig {
	return EnvConfig{
		CommitHash: "dev",
		Itc: ItcConfig{
			RequestTimeout: 30 * time.Second,
			CacheCapacity:  4096,
		},
		Obscalc: ObscalcConfig{
			WorkerPoolSize: 4,
			TickInterval:   5 * time.Second,
			LeaseDuration:  2 * time.Minute,
			BatchSize:      50,
			RetryBackoff: BackoffConfig{
				Base:   2 * time.Second,
				Max:    5 * time.Minute,
				Jitter: 0.2,
			},
		},
		Generator: GeneratorConfig{
			FutureLimit:      25,
			AtomCountCeiling: 100_000,
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9090"},
	}
}
