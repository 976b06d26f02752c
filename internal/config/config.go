package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/audience-sync/internal/route"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig                  `yaml:"store" mapstructure:"store"`
	GoogleAds GoogleAdsConfig              `yaml:"google_ads" mapstructure:"google_ads"`
	Upload    UploadConfig                 `yaml:"upload" mapstructure:"upload"`
	Route     RouteConfig                  `yaml:"route" mapstructure:"route"`
	Audiences map[string]map[string]string `yaml:"audiences" mapstructure:"audiences"`
	// AudiencesFile points at a standalone YAML mapping file; it takes
	// precedence over the inline Audiences block when set.
	AudiencesFile string    `yaml:"audiences_file" mapstructure:"audiences_file"`
	Log           LogConfig `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GoogleAdsConfig holds ads API credentials and client tuning.
type GoogleAdsConfig struct {
	CustomerID     string  `yaml:"customer_id" mapstructure:"customer_id"`
	DeveloperToken string  `yaml:"developer_token" mapstructure:"developer_token"`
	AccessToken    string  `yaml:"access_token" mapstructure:"access_token"`
	APIVersion     string  `yaml:"api_version" mapstructure:"api_version"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// UploadConfig configures batching, retry, polling, and parallelism.
type UploadConfig struct {
	BatchSize          int           `yaml:"batch_size" mapstructure:"batch_size"`
	MaxAttempts        int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBaseDelay     time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	InterBatchDelay    time.Duration `yaml:"inter_batch_delay" mapstructure:"inter_batch_delay"`
	PollInterval       time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	PollTimeout        time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
	Workers            int           `yaml:"workers" mapstructure:"workers"`
	SegmentConcurrency int           `yaml:"segment_concurrency" mapstructure:"segment_concurrency"`
	Region             string        `yaml:"region" mapstructure:"region"`
}

// RouteConfig configures handling of rows whose brand has no mapping.
type RouteConfig struct {
	UnmappedPolicy string `yaml:"unmapped_policy" mapstructure:"unmapped_policy"`
	DefaultBrand   string `yaml:"default_brand" mapstructure:"default_brand"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AUDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("google_ads.api_version", "v17")
	v.SetDefault("google_ads.rate_limit", 5.0)
	v.SetDefault("upload.batch_size", 2500)
	v.SetDefault("upload.max_attempts", 3)
	v.SetDefault("upload.retry_base_delay", "2s")
	v.SetDefault("upload.inter_batch_delay", "500ms")
	v.SetDefault("upload.poll_interval", "10s")
	v.SetDefault("upload.poll_timeout", "300s")
	v.SetDefault("upload.workers", 0)
	v.SetDefault("upload.segment_concurrency", 1)
	v.SetDefault("upload.region", "US")
	v.SetDefault("route.unmapped_policy", "drop")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Mapping builds the validated audience mapping from the file or inline form.
func (c *Config) Mapping() (route.Mapping, error) {
	if c.AudiencesFile != "" {
		return route.LoadMappingFile(c.AudiencesFile)
	}
	return route.BuildMapping(c.Audiences)
}

// ValidateCredentials fails fast on missing ads API settings before any row
// is fetched.
func (c *Config) ValidateCredentials() error {
	if c.GoogleAds.CustomerID == "" {
		return eris.New("config: google_ads.customer_id is required")
	}
	if c.GoogleAds.DeveloperToken == "" {
		return eris.New("config: google_ads.developer_token is required")
	}
	if c.GoogleAds.AccessToken == "" {
		return eris.New("config: google_ads.access_token is required")
	}
	switch c.Route.UnmappedPolicy {
	case "", string(route.PolicyDrop):
	case string(route.PolicyDefault):
		if c.Route.DefaultBrand == "" {
			return eris.New("config: route.default_brand is required with unmapped_policy=default")
		}
	default:
		return eris.Errorf("config: unknown route.unmapped_policy %q", c.Route.UnmappedPolicy)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
