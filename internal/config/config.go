package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string           `yaml:"listen_addr"`
	DataDir    string           `yaml:"data_dir"`
	PublicDir  string           `yaml:"public_dir"`
	Timezone   string           `yaml:"timezone"`
	LogLevel   string           `yaml:"log_level"`
	Mistral    MistralConfig    `yaml:"mistral"`
	Image      ImageConfig      `yaml:"image"`
	Revalidate RevalidateConfig `yaml:"revalidate"`
	Admin      AdminConfig      `yaml:"admin"`
	Site       SiteConfig       `yaml:"site"`
}

type MistralConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Retry       RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type ImageConfig struct {
	Primary   PrimaryImageConfig   `yaml:"primary"`
	Secondary SecondaryImageConfig `yaml:"secondary"`
	Size      int                  `yaml:"size"`
	ThumbSize int                  `yaml:"thumb_size"`
	Quality   int                  `yaml:"quality"`
}

type PrimaryImageConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
}

type SecondaryImageConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RevalidateConfig struct {
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout"`
}

type AdminConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type SiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Paris"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Mistral.BaseURL == "" {
		c.Mistral.BaseURL = "https://api.mistral.ai/v1/chat/completions"
	}
	if c.Mistral.Timeout == 0 {
		c.Mistral.Timeout = 120 * time.Second
	}
	if c.Mistral.Concurrency == 0 {
		c.Mistral.Concurrency = 3
	}
	if c.Mistral.Retry.MaxAttempts == 0 {
		c.Mistral.Retry.MaxAttempts = 3
	}
	if c.Mistral.Retry.InitialBackoff == 0 {
		c.Mistral.Retry.InitialBackoff = 300 * time.Millisecond
	}
	if c.Mistral.Retry.MaxBackoff == 0 {
		c.Mistral.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Image.Primary.Timeout == 0 {
		c.Image.Primary.Timeout = 30 * time.Second
	}
	if c.Image.Primary.PollInterval == 0 {
		c.Image.Primary.PollInterval = 2 * time.Second
	}
	if c.Image.Primary.MaxPolls == 0 {
		c.Image.Primary.MaxPolls = 30
	}
	if c.Image.Secondary.Timeout == 0 {
		c.Image.Secondary.Timeout = 45 * time.Second
	}
	if c.Image.Size == 0 {
		c.Image.Size = 1024
	}
	if c.Image.ThumbSize == 0 {
		c.Image.ThumbSize = 400
	}
	if c.Image.Quality == 0 {
		c.Image.Quality = 82
	}
	if c.Revalidate.Timeout == 0 {
		c.Revalidate.Timeout = 10 * time.Second
	}
}
