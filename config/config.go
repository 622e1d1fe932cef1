package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

const (
	defaultDBPath     = "mailflow.db"
	defaultGroqURL    = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel  = "llama-3.3-70b-versatile"
	defaultMaxResults = 50
)

// GoogleConfig holds the OAuth client registration used for token refresh.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// AIConfig describes the chat-completions endpoint used for summaries and drafts.
type AIConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// Config is the resolved application configuration. It is loaded once in main
// and passed into constructors; nothing reads the environment after startup.
type Config struct {
	Google     GoogleConfig `mapstructure:"google"`
	AI         AIConfig     `mapstructure:"ai"`
	DBPath     string       `mapstructure:"db_path"`
	LogLevel   string       `mapstructure:"log_level"`
	MaxResults int64        `mapstructure:"max_results"`
}

// Load reads the optional YAML config file at path and applies environment
// overrides. A missing file is fine; env vars alone are a valid configuration.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", "info")
	v.SetDefault("max_results", defaultMaxResults)
	v.SetDefault("ai.endpoint", defaultGroqURL)
	v.SetDefault("ai.model", defaultGroqModel)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	bindEnv(v, "google.client_id", "GOOGLE_CLIENT_ID")
	bindEnv(v, "google.client_secret", "GOOGLE_CLIENT_SECRET")
	bindEnv(v, "google.redirect_url", "OAUTH_REDIRECT_URL")
	bindEnv(v, "ai.api_key", "GROQ_API_KEY")
	bindEnv(v, "db_path", "MAILFLOW_DB")
	bindEnv(v, "log_level", "MAILFLOW_LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return nil, fmt.Errorf("google client_id and client_secret are required")
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	if val := os.Getenv(env); val != "" {
		v.Set(key, val)
	}
}
