package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode `mapstructure:"mode"`

	Port string `mapstructure:"port"`

	GCPProjectID    string `mapstructure:"gcp_project"`
	GCPLocation     string `mapstructure:"gcp_location"`
	ModelName       string `mapstructure:"model_name"`
	ExtractionModel string `mapstructure:"extraction_model"`

	StorageBackend      string `mapstructure:"storage_backend"`       // "memory" or "firestore"
	SessionCacheBackend string `mapstructure:"session_cache_backend"` // "memory" or "redis"
	UseMockLLM          bool   `mapstructure:"use_mock_llm"`          // true = use mock even on GCP

	Redis      RedisConfig      `mapstructure:"redis"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Google     GoogleConfig     `mapstructure:"google"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElevenLabsConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	AgentID            string `mapstructure:"agent_id"`
	AgentPhoneNumberID string `mapstructure:"agent_phone_number_id"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Load reads .env (if present), env vars and optional config.yaml and builds
// the config. Env vars use the OUTREACH_ prefix, e.g. OUTREACH_GCP_PROJECT,
// OUTREACH_REDIS_ADDRESS.
func Load() (*Config, error) {
	// Best-effort; system env vars win when no .env exists.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Mode != ModeGCP {
		cfg.Mode = ModeLocal
	}

	// Mock LLM defaults on in local mode unless explicitly set.
	if os.Getenv("OUTREACH_USE_MOCK_LLM") == "" && !v.InConfig("use_mock_llm") {
		cfg.UseMockLLM = cfg.Mode == ModeLocal
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("port", "8080")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("extraction_model", "gemini-2.5-flash-lite")
	v.SetDefault("storage_backend", "memory")
	v.SetDefault("session_cache_backend", "memory")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func validate(cfg *Config) error {
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		return fmt.Errorf("OUTREACH_GCP_PROJECT must be set in gcp mode")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		return fmt.Errorf("OUTREACH_GCP_PROJECT is required for the firestore storage backend")
	}
	if cfg.SessionCacheBackend == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("OUTREACH_REDIS_ADDRESS is required for the redis session cache")
	}
	return nil
}
