package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pdfquiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		CacheTTL string `yaml:"cache_ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"storage"`
	AI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`
	Quiz struct {
		QuestionCount  int     `yaml:"question_count"`
		MinTextChars   int     `yaml:"min_text_chars"`
		MaxPromptChars int     `yaml:"max_prompt_chars"`
		Temperature    float32 `yaml:"temperature"`
		MaxTokens      int     `yaml:"max_tokens"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path and applies environment overrides for
// secrets so deployments never need credentials in the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideEnv(&c.Server.Port, "PORT")
	overrideEnv(&c.Postgres.URL, "POSTGRES_URL")
	overrideEnv(&c.Redis.Addr, "REDIS_ADDR")
	overrideEnv(&c.Redis.Password, "REDIS_PASSWORD")
	overrideEnv(&c.Storage.Endpoint, "MINIO_ENDPOINT")
	overrideEnv(&c.Storage.AccessKey, "MINIO_ACCESS_KEY")
	overrideEnv(&c.Storage.SecretKey, "MINIO_SECRET_KEY")
	overrideEnv(&c.Storage.Bucket, "MINIO_BUCKET")
	overrideEnv(&c.AI.APIKey, "OPENAI_API_KEY")
	overrideEnv(&c.AI.BaseURL, "OPENAI_BASE_URL")
	overrideEnv(&c.AI.Model, "OPENAI_MODEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Quiz.QuestionCount == 0 {
		c.Quiz.QuestionCount = DefaultQuestionCount
	}
	if c.Quiz.MinTextChars == 0 {
		c.Quiz.MinTextChars = DefaultMinTextChars
	}
	if c.Quiz.MaxPromptChars == 0 {
		c.Quiz.MaxPromptChars = DefaultMaxPromptChars
	}
	if c.Quiz.Temperature == 0 {
		c.Quiz.Temperature = DefaultTemperature
	}
	if c.Quiz.MaxTokens == 0 {
		c.Quiz.MaxTokens = DefaultMaxTokens
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
}

// Validate reports missing required settings as a configuration error.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" || c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
		return domain.ErrConfiguration
	}
	return nil
}

const (
	DefaultQuestionCount  = 10
	DefaultMinTextChars   = 500
	DefaultMaxPromptChars = 12000
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 2000
	DefaultModel          = "gpt-3.5-turbo"
)

func overrideEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
