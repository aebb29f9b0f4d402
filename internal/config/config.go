package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Versioning VersioningConfig `yaml:"versioning"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// VersioningConfig holds version-resolution and write-path settings.
type VersioningConfig struct {
	// ClinicPolicy and PatientPolicy select the isolation policy applied when
	// a grant has no version assignment. Patients default to strict (deny);
	// clinics default to falling back to the latest active version.
	ClinicPolicy  string `yaml:"clinic_policy"  env:"VERSIONING_CLINIC_POLICY"  env-default:"fallback_latest_active"`
	PatientPolicy string `yaml:"patient_policy" env:"VERSIONING_PATIENT_POLICY" env-default:"strict"`

	// MaxWriteRetries bounds how many times a write is retried after losing a
	// version-number race to a concurrent writer.
	MaxWriteRetries int `yaml:"max_write_retries" env:"VERSIONING_MAX_WRITE_RETRIES" env-default:"3"`

	// SearchMaxLimit caps the page size of accessible-record searches.
	SearchMaxLimit int `yaml:"search_max_limit" env:"VERSIONING_SEARCH_MAX_LIMIT" env-default:"200"`

	// BackfillBatchSize bounds how many legacy records one backfill pass loads.
	BackfillBatchSize int `yaml:"backfill_batch_size" env:"VERSIONING_BACKFILL_BATCH_SIZE" env-default:"500"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
