package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log          Log          `yaml:"log"`
	LLM          LLM          `yaml:"llm"`
	Mongo        Mongo        `yaml:"mongo"`
	ContextStore ContextStore `yaml:"context_store"`
	Memory       Memory       `yaml:"memory"`
	Assistant    Assistant    `yaml:"assistant"`
}

type LLM struct {
	NLU ModelConfig `yaml:"nlu" validate:"required"`
	NLG ModelConfig `yaml:"nlg" validate:"required"`
}

type ModelConfig struct {
	// Provider name, either "openai" or "gemini"
	Provider string `yaml:"provider" example:"openai" validate:"required,oneof=openai gemini"`
	// OpenAI-compatible base url, ignored for gemini
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// API token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"gemini-1.5-flash" validate:"required"`
}

type Mongo struct {
	// Connection URI of the conversation log database
	URI string `yaml:"uri" example:"mongodb://localhost:27017"`
	// Database name
	Database string `yaml:"database" example:"viki"`
	// Collection holding conversation turns
	Collection string `yaml:"collection" example:"conversation_turns"`
}

type ContextStore struct {
	// Backend for the conversation context store, "memory" or "redis"
	Backend string `yaml:"backend" validate:"required,oneof=memory redis"`
	Redis   Redis  `yaml:"redis"`
}

type Redis struct {
	// Redis address
	Addr string `yaml:"addr" example:"localhost:6379"`
	// Per-conversation context TTL, empty disables expiration
	TTL string `yaml:"ttl" example:"30m"`
}

// GetTTL returns the context TTL as a duration. Empty or invalid values
// disable expiration.
func (r Redis) GetTTL() time.Duration {
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0
	}
	return d
}

type Memory struct {
	// Path to the long-term memory JSON file
	FilePath string `yaml:"file_path" example:"data/memory.json"`
}

type Assistant struct {
	// Name the assistant introduces itself with
	Name string `yaml:"name" example:"Viki"`
	// Device the console session delivers responses to
	DeviceID string `yaml:"device_id" example:"console_default_device"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "viki"
	}
	if cfg.Mongo.Collection == "" {
		cfg.Mongo.Collection = "conversation_turns"
	}
	if cfg.ContextStore.Backend == "" {
		cfg.ContextStore.Backend = "memory"
	}
	if cfg.ContextStore.Redis.Addr == "" {
		cfg.ContextStore.Redis.Addr = "localhost:6379"
	}
	if cfg.Memory.FilePath == "" {
		cfg.Memory.FilePath = "data/memory.json"
	}
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = "Viki"
	}
	if cfg.Assistant.DeviceID == "" {
		cfg.Assistant.DeviceID = "console_default_device"
	}
}
