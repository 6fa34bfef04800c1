// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GeoConfig holds settings for the ZIP code index.
type GeoConfig struct {
	ImportBatchSize int `mapstructure:"import_batch_size"`
	DefaultRadius   int `mapstructure:"default_radius_miles"`
	RadiusLimit     int `mapstructure:"radius_limit"`
	LookupTimeout   int `mapstructure:"lookup_timeout"` // milliseconds
	ImportTimeout   int `mapstructure:"import_timeout"` // milliseconds
}

// CategoriesConfig holds settings for category matching.
type CategoriesConfig struct {
	FamiliesPath string `mapstructure:"families_path"`
}

// ProjectionConfig holds settings for the page-level projection builder.
type ProjectionConfig struct {
	FetchConcurrency int `mapstructure:"fetch_concurrency"`
	QueryTimeout     int `mapstructure:"query_timeout"` // milliseconds
}

// ReconcilerConfig holds settings for the out-of-band index cleanup pass.
type ReconcilerConfig struct {
	Schedule    string `mapstructure:"schedule"` // cron spec, e.g. "@every 6h"
	DryRun      bool   `mapstructure:"dry_run"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
