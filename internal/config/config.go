package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Identify   IdentifyConfig   `yaml:"identify" mapstructure:"identify"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run bookkeeping database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// JinaConfig holds Jina search API settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// IdentifyConfig configures the identification pipeline.
type IdentifyConfig struct {
	// MaxResultsPerQuery caps results requested from the search provider.
	MaxResultsPerQuery int `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`

	// DescriptionPrefixChars bounds how much posting text is sent to the
	// search-term synthesizer and parameter generator.
	DescriptionPrefixChars int `yaml:"description_prefix_chars" mapstructure:"description_prefix_chars"`

	// SearchKeywordLimit is the top-K synthesized search keyword count.
	SearchKeywordLimit int `yaml:"search_keyword_limit" mapstructure:"search_keyword_limit"`

	// CallTimeoutSecs is the per-external-call timeout.
	CallTimeoutSecs int `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`

	// SearchQPS rate-limits calls to the search provider across a batch.
	SearchQPS float64 `yaml:"search_qps" mapstructure:"search_qps"`

	// ManufacturingTriggers are the lexical triggers that classify an
	// industry label as manufacturing-like, activating the physical-
	// production evidence gate and the organization-type hard filter.
	// Heuristic by design; tune per deployment rather than in code.
	ManufacturingTriggers []string `yaml:"manufacturing_triggers" mapstructure:"manufacturing_triggers"`

	// PhysicalTerms are the production-floor terms at least one of which
	// must appear in evidence retained for a manufacturing-like hypothesis.
	PhysicalTerms []string `yaml:"physical_terms" mapstructure:"physical_terms"`

	// VerifyTopN is how many ranked candidates get verification queries.
	VerifyTopN int `yaml:"verify_top_n" mapstructure:"verify_top_n"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentPostings int `yaml:"max_concurrent_postings" mapstructure:"max_concurrent_postings"`
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
	v.SetEnvPrefix("EMPLOYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Key fields default to empty so AutomaticEnv can bind them
	// during Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("store.path", "employer-cli.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.max_concurrent_postings", 3)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("jina.base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("identify.max_results_per_query", 5)
	v.SetDefault("identify.description_prefix_chars", 4000)
	v.SetDefault("identify.search_keyword_limit", 8)
	v.SetDefault("identify.call_timeout_secs", 60)
	v.SetDefault("identify.search_qps", 2.0)
	v.SetDefault("identify.verify_top_n", 3)
	v.SetDefault("identify.manufacturing_triggers", []string{
		"manufactur", "fabricat", "production", "cnc", "machining",
		"sheet metal", "moulding", "molding", "injection", "casting", "press",
	})
	v.SetDefault("identify.physical_terms", []string{
		"factory", "shop floor", "fabrication", "cnc", "press brake",
		"laser cutting", "moulding", "assembly", "sheet metal", "welding", "plant",
	})

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
