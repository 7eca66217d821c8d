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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Agent  AgentConfig  `yaml:"agent" mapstructure:"agent"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Trust  TrustConfig  `yaml:"trust" mapstructure:"trust"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session snapshot backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LLMConfig holds Anthropic API settings.
type LLMConfig struct {
	Key                 string  `yaml:"key" mapstructure:"key"`
	Model               string  `yaml:"model" mapstructure:"model"`
	FastModel           string  `yaml:"fast_model" mapstructure:"fast_model"`
	MaxTokens           int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature         float64 `yaml:"temperature" mapstructure:"temperature"`
	SupportsToolCalling bool    `yaml:"supports_tool_calling" mapstructure:"supports_tool_calling"`
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLMins int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

// AgentConfig configures the conversation orchestrator.
type AgentConfig struct {
	MaxExtractionRetries  int `yaml:"max_extraction_retries" mapstructure:"max_extraction_retries"`
	StructureWaitCeilSecs int `yaml:"structure_wait_ceil_secs" mapstructure:"structure_wait_ceil_secs"`
}

// EnrichConfig configures background lookups.
type EnrichConfig struct {
	FlightTimeoutSecs int `yaml:"flight_timeout_secs" mapstructure:"flight_timeout_secs"`
	HotelTimeoutSecs  int `yaml:"hotel_timeout_secs" mapstructure:"hotel_timeout_secs"`
	TrainTimeoutSecs  int `yaml:"train_timeout_secs" mapstructure:"train_timeout_secs"`
	ImageTimeoutSecs  int `yaml:"image_timeout_secs" mapstructure:"image_timeout_secs"`
	MaxResults        int `yaml:"max_results" mapstructure:"max_results"`
}

// TrustConfig configures plan post-processing.
type TrustConfig struct {
	MaxSources         int     `yaml:"max_sources" mapstructure:"max_sources"`
	SourceWeight       float64 `yaml:"source_weight" mapstructure:"source_weight"`
	CostWeight         float64 `yaml:"cost_weight" mapstructure:"cost_weight"`
	SpecificityWeight  float64 `yaml:"specificity_weight" mapstructure:"specificity_weight"`
	MediumThreshold    int     `yaml:"medium_threshold" mapstructure:"medium_threshold"`
	HighThreshold      int     `yaml:"high_threshold" mapstructure:"high_threshold"`
	BudgetTolerancePct float64 `yaml:"budget_tolerance_pct" mapstructure:"budget_tolerance_pct"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "trip-planner.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("llm.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.fast_model", "claude-haiku-4-5")
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.supports_tool_calling", true)
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("search.rate_per_sec", 2.0)
	v.SetDefault("search.cache_ttl_mins", 30)
	v.SetDefault("agent.max_extraction_retries", 2)
	v.SetDefault("agent.structure_wait_ceil_secs", 10)
	v.SetDefault("enrich.flight_timeout_secs", 12)
	v.SetDefault("enrich.hotel_timeout_secs", 12)
	v.SetDefault("enrich.train_timeout_secs", 12)
	v.SetDefault("enrich.image_timeout_secs", 8)
	v.SetDefault("enrich.max_results", 3)
	v.SetDefault("trust.max_sources", 8)
	v.SetDefault("trust.source_weight", 0.35)
	v.SetDefault("trust.cost_weight", 0.40)
	v.SetDefault("trust.specificity_weight", 0.25)
	v.SetDefault("trust.medium_threshold", 60)
	v.SetDefault("trust.high_threshold", 80)
	v.SetDefault("trust.budget_tolerance_pct", 0.4)

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
