// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
)

// EnvPrefix is prepended to environment overrides, e.g. IDIOMS_CRAWLER_MAX_ID.
const EnvPrefix = "IDIOMS"

// Defaults reproducing the fixed behavior of the original tool.
const (
	DefaultURLTemplate = "https://dict.idioms.moe.edu.tw/bookView.jsp?ID={id}"
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CrawlerConfig governs the identifier range and request identity.
type CrawlerConfig struct {
	URLTemplate string `mapstructure:"url_template"`
	UserAgent   string `mapstructure:"user_agent"`
	StartID     int    `mapstructure:"start_id"`
	MaxID       int    `mapstructure:"max_id"`
	ChunkSize   int    `mapstructure:"chunk_size"`
}

// HTTPConfig configures per-request timeouts and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	MaxRetrySeconds  int `mapstructure:"max_retry_seconds"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// StorageConfig sets where raw pages and records are written.
type StorageConfig struct {
	OutputRoot string `mapstructure:"output_root"`
	HTMLDir    string `mapstructure:"html_dir"`
	JSONDir    string `mapstructure:"json_dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig enables the status server when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.url_template", DefaultURLTemplate)
	v.SetDefault("crawler.user_agent", DefaultUserAgent)
	v.SetDefault("crawler.start_id", 0)
	v.SetDefault("crawler.max_id", 10000)
	v.SetDefault("crawler.chunk_size", 50)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.max_retry_seconds", 60)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.backoff_max_ms", 30000)
	v.SetDefault("storage.output_root", "output")
	v.SetDefault("storage.html_dir", "html")
	v.SetDefault("storage.json_dir", "json")
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.listen_addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if !strings.Contains(c.Crawler.URLTemplate, crawler.IDPlaceholder) {
		errs = append(errs, fmt.Errorf("crawler.url_template must contain %s", crawler.IDPlaceholder))
	}
	if c.Crawler.StartID < 0 {
		errs = append(errs, errors.New("crawler.start_id must be >= 0"))
	}
	if c.Crawler.MaxID < c.Crawler.StartID {
		errs = append(errs, errors.New("crawler.max_id must be >= crawler.start_id"))
	}
	if c.Crawler.ChunkSize <= 0 {
		errs = append(errs, errors.New("crawler.chunk_size must be > 0"))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("http.timeout_seconds must be > 0"))
	}
	if c.HTTP.MaxAttempts <= 0 {
		errs = append(errs, errors.New("http.max_attempts must be > 0"))
	}
	if c.HTTP.MaxRetrySeconds < 0 {
		errs = append(errs, errors.New("http.max_retry_seconds must be >= 0"))
	}
	if c.HTTP.BackoffInitialMs < 0 || c.HTTP.BackoffMaxMs < c.HTTP.BackoffInitialMs {
		errs = append(errs, errors.New("http.backoff_max_ms must be >= http.backoff_initial_ms >= 0"))
	}
	if c.Storage.OutputRoot == "" {
		errs = append(errs, errors.New("storage.output_root must be set"))
	}
	for key, dir := range map[string]string{"storage.html_dir": c.Storage.HTMLDir, "storage.json_dir": c.Storage.JSONDir} {
		if dir == "" || filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			errs = append(errs, fmt.Errorf("%s must be a relative path inside storage.output_root", key))
		}
	}
	if c.Storage.HTMLDir != "" && filepath.Clean(c.Storage.HTMLDir) == filepath.Clean(c.Storage.JSONDir) {
		errs = append(errs, errors.New("storage.html_dir and storage.json_dir must differ"))
	}
	return errors.Join(errs...)
}

// RequestTimeout is the overall per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Retry converts the HTTP section into a crawler.RetryConfig.
func (c Config) Retry() crawler.RetryConfig {
	return crawler.RetryConfig{
		MaxAttempts: c.HTTP.MaxAttempts,
		MaxElapsed:  time.Duration(c.HTTP.MaxRetrySeconds) * time.Second,
		BaseDelay:   time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond,
	}
}
