package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the analytics service.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Reports       ReportsConfig       `yaml:"reports"`
	Highcharts    HighchartsConfig    `yaml:"highcharts"`
	CMS           CMSConfig           `yaml:"cms"`
	Redis         RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Stats         StatsConfig         `yaml:"stats"`
	Email         EmailConfig         `yaml:"email"`
	Logging       LoggingConfig       `yaml:"logging"`
	CORS          CORSConfig          `yaml:"cors"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	Port           int           `yaml:"port" env:"ANALYTICS_PORT"`
	Debug          bool          `yaml:"debug" env:"ANALYTICS_DEBUG"`
	MaxPageSize    int           `yaml:"max_page_size" env:"ANALYTICS_MAX_PAGE_SIZE"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ElasticsearchConfig holds Elasticsearch connection configuration.
type ElasticsearchConfig struct {
	URL        string        `yaml:"url" env:"ELASTICSEARCH_URL"`
	Username   string        `yaml:"username" env:"ELASTICSEARCH_USERNAME"`
	Password   string        `yaml:"password" env:"ELASTICSEARCH_PASSWORD"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ReportsConfig holds report generation configuration.
type ReportsConfig struct {
	// DefaultTimezone is the IANA name of the timezone report date
	// filters are evaluated in, e.g. "Australia/Sydney".
	DefaultTimezone string `yaml:"default_timezone" env:"ANALYTICS_TIMEZONE"`
	// StartOfWeek is the first day of the week used for week rounding.
	// 0=Sunday through 6=Saturday.
	StartOfWeek int `yaml:"start_of_week" env:"ANALYTICS_START_OF_WEEK"`
	// DefaultRepos is the full set of collections searched when a request
	// selects none.
	DefaultRepos []string `yaml:"default_repos" env:"ANALYTICS_DEFAULT_REPOS"`
}

// HighchartsConfig holds the chart image export server configuration.
type HighchartsConfig struct {
	Enabled bool          `yaml:"enabled" env:"HIGHCHARTS_ENABLED"`
	URL     string        `yaml:"url" env:"HIGHCHARTS_URL"`
	Timeout time.Duration `yaml:"timeout"`
	Width   int           `yaml:"width"`
}

// CMSConfig holds the connection to the newsroom CMS API for vocabulary,
// desk, user and stage lookups.
type CMSConfig struct {
	URL     string        `yaml:"url" env:"CMS_URL"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection configuration for schedule locks.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	// JWTSecret validates bearer tokens on report endpoints.
	// Leave empty to disable authentication (local development).
	JWTSecret string `yaml:"jwt_secret" env:"ANALYTICS_JWT_SECRET"`
}

// ScheduleConfig holds the scheduled report runner configuration.
type ScheduleConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ANALYTICS_SCHEDULE_ENABLED"`
	PollInterval time.Duration `yaml:"poll_interval"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
}

// StatsConfig holds the archive statistics generator configuration.
type StatsConfig struct {
	Enabled bool `yaml:"enabled" env:"ANALYTICS_STATS_ENABLED"`
	// Interval is how often a generation batch runs.
	Interval time.Duration `yaml:"interval"`
	// BatchSize caps how many history entries one batch loads.
	BatchSize int `yaml:"batch_size"`
}

// EmailConfig holds the SMTP settings for scheduled report delivery.
type EmailConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	// From is the sender address of outgoing report emails.
	From string `yaml:"from" env:"SMTP_FROM"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" env:"CORS_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	cfg, err := loadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "analytics"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = 8095
	}
	if cfg.Service.MaxPageSize == 0 {
		cfg.Service.MaxPageSize = 200
	}
	if cfg.Service.RequestTimeout == 0 {
		cfg.Service.RequestTimeout = 30 * time.Second
	}

	if cfg.Elasticsearch.URL == "" {
		cfg.Elasticsearch.URL = "http://localhost:9200"
	}
	if cfg.Elasticsearch.MaxRetries == 0 {
		cfg.Elasticsearch.MaxRetries = 3
	}
	if cfg.Elasticsearch.Timeout == 0 {
		cfg.Elasticsearch.Timeout = 30 * time.Second
	}

	if cfg.Reports.DefaultTimezone == "" {
		cfg.Reports.DefaultTimezone = "UTC"
	}
	if len(cfg.Reports.DefaultRepos) == 0 {
		cfg.Reports.DefaultRepos = []string{"published", "archive", "archived"}
	}

	if cfg.Highcharts.URL == "" {
		cfg.Highcharts.URL = "http://localhost:6060"
	}
	if cfg.Highcharts.Timeout == 0 {
		cfg.Highcharts.Timeout = 30 * time.Second
	}
	if cfg.Highcharts.Width == 0 {
		cfg.Highcharts.Width = 800
	}

	if cfg.CMS.URL == "" {
		cfg.CMS.URL = "http://localhost:5000"
	}
	if cfg.CMS.Timeout == 0 {
		cfg.CMS.Timeout = 10 * time.Second
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}

	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "analytics@localhost"
	}

	if cfg.Schedule.PollInterval == 0 {
		cfg.Schedule.PollInterval = time.Minute
	}
	if cfg.Schedule.LockTTL == 0 {
		cfg.Schedule.LockTTL = 5 * time.Minute
	}

	if cfg.Stats.Interval == 0 {
		cfg.Stats.Interval = time.Hour
	}
	if cfg.Stats.BatchSize == 0 {
		cfg.Stats.BatchSize = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Service.MaxPageSize < 1 {
		return &ValidationError{Field: "service.max_page_size", Message: "must be greater than 0"}
	}
	if c.Elasticsearch.URL == "" {
		return &ValidationError{Field: "elasticsearch.url", Message: "is required"}
	}
	if c.Reports.StartOfWeek < 0 || c.Reports.StartOfWeek > 6 {
		return &ValidationError{
			Field:   "reports.start_of_week",
			Message: fmt.Sprintf("must be between 0 (Sunday) and 6 (Saturday), got %d", c.Reports.StartOfWeek),
		}
	}
	if _, err := loadLocation(c.Reports.DefaultTimezone); err != nil {
		return &ValidationError{
			Field:   "reports.default_timezone",
			Message: fmt.Sprintf("unknown timezone %q", c.Reports.DefaultTimezone),
		}
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}
