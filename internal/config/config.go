package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"botgpt/internal/rag"
)

type Config struct {
	App      AppConfig      `toml:"app" yaml:"app"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	MySQL    MySQLConfig    `toml:"mysql" yaml:"mysql"`
	Redis    RedisConfig    `toml:"redis" yaml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq" yaml:"rabbitmq"`
	LLM      LLMConfig      `toml:"llm" yaml:"llm"`
	RAG      RAGConfig      `toml:"rag" yaml:"rag"`
}

type AppConfig struct {
	Name    string `toml:"name" yaml:"name"`
	Env     string `toml:"env" yaml:"env"`
	Host    string `toml:"host" yaml:"host"`
	Port    int    `toml:"port" yaml:"port"`
	GinMode string `toml:"gin_mode" yaml:"gin_mode"`
}

type DatabaseConfig struct {
	Driver     string `toml:"driver" yaml:"driver"` // sqlite or mysql
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path"`
}

type MySQLConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	DB       string `toml:"db" yaml:"db"`
	Params   string `toml:"params" yaml:"params"`
}

// RedisConfig enables the history cache when Addr is set.
type RedisConfig struct {
	Addr                   string `toml:"addr" yaml:"addr"`
	Password               string `toml:"password" yaml:"password"`
	DB                     int    `toml:"db" yaml:"db"`
	HistoryTTLSeconds      int    `toml:"history_ttl_seconds" yaml:"history_ttl_seconds"`
	HistoryDirtyTTLSeconds int    `toml:"history_dirty_ttl_seconds" yaml:"history_dirty_ttl_seconds"`
}

// RabbitMQConfig enables message events when URL is set.
type RabbitMQConfig struct {
	URL          string `toml:"url" yaml:"url"`
	MessageQueue string `toml:"message_queue" yaml:"message_queue"`
}

type LLMConfig struct {
	BaseURL        string  `toml:"base_url" yaml:"base_url"`
	APIKey         string  `toml:"api_key" yaml:"api_key"`
	Model          string  `toml:"model" yaml:"model"`
	Temperature    float32 `toml:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

type RAGConfig struct {
	MaxChars      int `toml:"max_chars" yaml:"max_chars"`
	Overlap       int `toml:"overlap" yaml:"overlap"`
	HistoryWindow int `toml:"history_window" yaml:"history_window"`
	TopK          int `toml:"top_k" yaml:"top_k"`
	SizeCeiling   int `toml:"size_ceiling" yaml:"size_ceiling"`
}

// Load builds the config from defaults, then the config file named by
// CONFIG_FILE (TOML or YAML by extension), then environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("decode config file failed: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decode config file failed: %w", err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.RAG.MaxChars <= 0 {
		return fmt.Errorf("rag.max_chars must be positive")
	}
	if c.RAG.Overlap < 0 {
		return fmt.Errorf("rag.overlap must not be negative")
	}
	if c.RAG.HistoryWindow <= 0 || c.RAG.TopK <= 0 || c.RAG.SizeCeiling <= 0 {
		return fmt.Errorf("rag.history_window, rag.top_k and rag.size_ceiling must be positive")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.DB,
		c.MySQL.Params,
	)
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// RAGSettings is the value handed to the chunker, retriever and assembler.
func (c *Config) RAGSettings() rag.Config {
	return rag.Config{
		MaxChars:      c.RAG.MaxChars,
		Overlap:       c.RAG.Overlap,
		HistoryWindow: c.RAG.HistoryWindow,
		TopK:          c.RAG.TopK,
		SizeCeiling:   c.RAG.SizeCeiling,
	}
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "botgpt",
			Env:     "dev",
			Host:    "0.0.0.0",
			Port:    8080,
			GinMode: "debug",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "bot_gpt.db",
		},
		MySQL: MySQLConfig{
			Host:     "127.0.0.1",
			Port:     3306,
			User:     "root",
			Password: "",
			DB:       "botgpt",
			Params:   "parseTime=true&loc=Local&charset=utf8mb4",
		},
		Redis: RedisConfig{
			Addr:                   "",
			DB:                     0,
			HistoryTTLSeconds:      60,
			HistoryDirtyTTLSeconds: 5,
		},
		RabbitMQ: RabbitMQConfig{
			URL:          "",
			MessageQueue: "chat.message.created",
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKey:         "",
			Model:          "llama-3.1-8b-instant",
			Temperature:    0.7,
			TimeoutSeconds: 30,
		},
		RAG: RAGConfig{
			MaxChars:      rag.DefaultMaxChars,
			Overlap:       rag.DefaultOverlap,
			HistoryWindow: rag.DefaultHistoryWindow,
			TopK:          rag.DefaultTopK,
			SizeCeiling:   rag.DefaultSizeCeiling,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)

	cfg.MySQL.Host = getEnv("MYSQL_HOST", cfg.MySQL.Host)
	cfg.MySQL.Port = getEnvAsInt("MYSQL_PORT", cfg.MySQL.Port)
	cfg.MySQL.User = getEnv("MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.DB = getEnv("MYSQL_DB", cfg.MySQL.DB)
	cfg.MySQL.Params = getEnv("MYSQL_PARAMS", cfg.MySQL.Params)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)
	cfg.Redis.HistoryDirtyTTLSeconds = getEnvAsInt("REDIS_HISTORY_DIRTY_TTL_SECONDS", cfg.Redis.HistoryDirtyTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.MessageQueue = getEnv("RABBITMQ_MESSAGE_QUEUE", cfg.RabbitMQ.MessageQueue)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	// GROQ_API_KEY is honoured for compatibility with existing deployments.
	cfg.LLM.APIKey = getEnv("GROQ_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.RAG.MaxChars = getEnvAsInt("RAG_MAX_CHARS", cfg.RAG.MaxChars)
	cfg.RAG.Overlap = getEnvAsInt("RAG_OVERLAP", cfg.RAG.Overlap)
	cfg.RAG.HistoryWindow = getEnvAsInt("RAG_HISTORY_WINDOW", cfg.RAG.HistoryWindow)
	cfg.RAG.TopK = getEnvAsInt("RAG_TOP_K", cfg.RAG.TopK)
	cfg.RAG.SizeCeiling = getEnvAsInt("RAG_SIZE_CEILING", cfg.RAG.SizeCeiling)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat32(key string, fallback float32) float32 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return fallback
	}
	return float32(parsed)
}
