package model

import "time"

// Config holds all medlens configuration
type Config struct {
	Dictionary   DictionaryConfig   `yaml:"dictionary" mapstructure:"dictionary"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

// DictionaryConfig points at an optional dictionary override file
type DictionaryConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = built-in dictionaries
}

// ClassifierConfig controls how severity classifier parameters are obtained
type ClassifierConfig struct {
	Seed       uint64 `yaml:"seed" mapstructure:"seed"`               // Seed for generated parameters
	ParamsPath string `yaml:"params_path" mapstructure:"params_path"` // YAML parameter file (overrides Seed)
}

// CacheConfig controls the symptom analysis cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"` // Empty = memory only
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch worker counts
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles batch jobs
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 = unlimited
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LLMConfig configures the optional narrative summary
type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model            string `yaml:"model" mapstructure:"model"`
	APIKey           string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	Timeout          int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictConditions bool   `yaml:"strict_conditions" mapstructure:"strict_conditions"`
	HTTPProxy        string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy       string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // console or json
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"` // Empty = not written
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Seed: 42,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         5,
		},
		LLM: LLMConfig{
			Timeout:          30,
			MaxTokens:        600,
			StrictConditions: true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
