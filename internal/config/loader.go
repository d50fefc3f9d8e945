package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "adjutant.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ADJUTANT_PORT")
	setString(&cfg.Server.CORSOrigin, "ADJUTANT_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ADJUTANT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ADJUTANT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ADJUTANT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ADJUTANT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ADJUTANT_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.SessionModel, "ADJUTANT_SESSION_MODEL")
	setString(&cfg.LiteLLM.AckModel, "ADJUTANT_ACK_MODEL")
	setInt(&cfg.LiteLLM.AckMaxTokens, "ADJUTANT_ACK_MAX_TOKENS")
	setString(&cfg.Logging.Level, "ADJUTANT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ADJUTANT_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "ADJUTANT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ADJUTANT_BREAKER_TIMEOUT")
	setDuration(&cfg.Scheduler.TickInterval, "ADJUTANT_SCHED_TICK_INTERVAL")
	setInt(&cfg.Scheduler.MaxConcurrentSessions, "ADJUTANT_SCHED_MAX_SESSIONS")
	setDuration(&cfg.Scheduler.LeadRunInterval, "ADJUTANT_SCHED_LEAD_RUN_INTERVAL")
	setDuration(&cfg.Scheduler.BackoffBase, "ADJUTANT_SCHED_BACKOFF_BASE")
	setDuration(&cfg.Scheduler.BackoffMax, "ADJUTANT_SCHED_BACKOFF_MAX")
	setDuration(&cfg.Scheduler.StaleTaskTimeout, "ADJUTANT_SCHED_STALE_TASK_TIMEOUT")
	setInt(&cfg.Session.MaxToolSteps, "ADJUTANT_SESSION_MAX_TOOL_STEPS")
	setInt(&cfg.Session.CompactThreshold, "ADJUTANT_SESSION_COMPACT_THRESHOLD")
	setInt(&cfg.Session.CompactKeepRecent, "ADJUTANT_SESSION_COMPACT_KEEP_RECENT")
	setInt64(&cfg.Cache.MaxSizeMB, "ADJUTANT_CACHE_MAX_SIZE_MB")
	setDuration(&cfg.Cache.ContextTTL, "ADJUTANT_CACHE_CONTEXT_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.LiteLLM.URL == "" {
		return errors.New("litellm.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Scheduler.TickInterval <= 0 {
		return errors.New("scheduler.tick_interval must be positive")
	}
	if cfg.Scheduler.MaxConcurrentSessions < 1 {
		return errors.New("scheduler.max_concurrent_sessions must be >= 1")
	}
	if cfg.Session.MaxToolSteps < 1 {
		return errors.New("session.max_tool_steps must be >= 1")
	}
	if cfg.Session.CompactThreshold <= cfg.Session.CompactKeepRecent {
		return errors.New("session.compact_threshold must exceed compact_keep_recent")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
