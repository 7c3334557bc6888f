package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Default model identifiers served by MineAI.
const (
	ModelO1Free = "mine:o1-free"
	ModelR3RtY  = "mine:r3-rt-y"
	ModelR3RtZ  = "mine:r3-rt-z"
)

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig
	Suite   SuiteConfig
	Log     LogConfig
	History HistoryConfig
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Models  []string      `mapstructure:"models"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SuiteConfig tunes the pacing and bounds of the probes.
type SuiteConfig struct {
	MemoryPause    time.Duration `mapstructure:"memory_pause"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	RateLimitPause time.Duration `mapstructure:"rate_limit_pause"`
	ModelPause     time.Duration `mapstructure:"model_pause"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	ModelMaxTokens int           `mapstructure:"model_max_tokens"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HistoryConfig points at the optional sqlite result history. Empty path disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads the configuration from defaults, an optional config.yaml
// (or the file named by CONFIG_PATH) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if p := os.Getenv("CONFIG_PATH"); p != "" {
		v.SetConfigFile(p)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// The credential and endpoint keep their historical variable names.
	_ = v.BindEnv("llm.api_key", "MINEAI_API_KEY")
	_ = v.BindEnv("llm.base_url", "MINEAI_BASE_URL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("history.path", "HISTORY_DB_PATH")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "https://api.mineai.ai/v1")
	v.SetDefault("llm.model", ModelO1Free)
	v.SetDefault("llm.models", []string{ModelO1Free, ModelR3RtY, ModelR3RtZ})
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("suite.memory_pause", time.Second)
	v.SetDefault("suite.rate_limit_burst", 5)
	v.SetDefault("suite.rate_limit_pause", 100*time.Millisecond)
	v.SetDefault("suite.model_pause", time.Second)
	v.SetDefault("suite.max_tokens", 50)
	v.SetDefault("suite.model_max_tokens", 20)

	v.SetDefault("log.level", "info")
}
