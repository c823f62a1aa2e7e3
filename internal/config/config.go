package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMESCREEN_EMBEDDING_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Store         StoreConfig         `mapstructure:"store"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// PipelineConfig tunes the screening pipeline.
type PipelineConfig struct {
	// CurrentYear pins the year used by the timeline checker. Zero means the wall clock.
	CurrentYear        int `mapstructure:"currentYear"`
	MinTextLength      int `mapstructure:"minTextLength"`
	ExtractedTextLimit int `mapstructure:"extractedTextLimit"`
	NameHeaderChars    int `mapstructure:"nameHeaderChars"`
}

// EmbeddingConfig selects and configures the sentence embedder.
type EmbeddingConfig struct {
	Provider       string               `mapstructure:"provider"` // "hash" or "gemini"
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Dimensions     int                  `mapstructure:"dimensions"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	BatchSize      int                  `mapstructure:"batchSize"`
	RequestsPerMin int                  `mapstructure:"requestsPerMin"`
	BurstCapacity  int                  `mapstructure:"burstCapacity"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// WorkerConfig controls the bounded resume worker pool.
type WorkerConfig struct {
	Concurrency int         `mapstructure:"concurrency"`
	QueueSize   int         `mapstructure:"queueSize"`
	Inbox       InboxConfig `mapstructure:"inbox"`
}

// InboxConfig controls directory watching for batch --watch.
type InboxConfig struct {
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
	Extensions    []string      `mapstructure:"extensions"`
}

// StoreConfig selects where resume records are persisted.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // "sqlite", "postgres" or "memory"
	SQLitePath  string `mapstructure:"sqlitePath"`
	PostgresURL string `mapstructure:"postgresUrl"`
	MaxConns    int32  `mapstructure:"maxConns"`
}

// CacheConfig groups cache settings.
type CacheConfig struct {
	JD JDCacheConfig `mapstructure:"jd"`
}

// JDCacheConfig controls the content-hash keyed job description profile cache.
type JDCacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	MaxEntries      int           `mapstructure:"maxEntries"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	RedisURL        string        `mapstructure:"redisUrl"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("RESUMESCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMESCREEN'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumescreen/")
	v.AddConfigPath("$HOME/.resumescreen")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumescreen/, $HOME/.resumescreen, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return decode(v, configFileUsed)
}

// LoadConfigFile loads configuration from an explicit YAML file on top of the defaults.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v, path)
}

func decode(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.App.LogLevel) {
		return fmt.Errorf("app.logLevel must be one of debug, info, warn, error; got %q", c.App.LogLevel)
	}
	if len(c.App.SupportedFormats) > 0 && !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("app.defaultFormat %q is not in app.supportedFormats %v", c.App.DefaultFormat, c.App.SupportedFormats)
	}
	if c.App.MaxFileSize <= 0 {
		return fmt.Errorf("app.maxFileSize must be positive")
	}

	switch c.Embedding.Provider {
	case "hash":
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive for the hash provider")
		}
	case "gemini":
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for the gemini provider")
		}
		if c.Embedding.APIKey == "" && !c.Vault.Enabled {
			return fmt.Errorf("embedding.apiKey is required for the gemini provider (or enable vault)")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}

	if c.Embedding.CircuitBreaker.Enabled {
		cb := c.Embedding.CircuitBreaker
		if cb.FailureThreshold < 0 || cb.FailureThreshold > 1 {
			return fmt.Errorf("embedding.circuitBreaker.failureThreshold must be between 0 and 1")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1")
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlitePath is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.PostgresURL == "" && !c.Vault.Enabled {
			return fmt.Errorf("store.postgresUrl is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
	}

	if c.Vault.Enabled && c.Vault.Address == "" {
		return fmt.Errorf("vault.address is required when vault is enabled")
	}

	return nil
}
