package core

import (
	"os"
	"strings"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

type Log struct {
	Level  string `config:"level"`
	Format string `config:"format"`
}

type Webhook struct {
	MaxBodyBytes int64 `config:"max_body_bytes"`
}

type Push struct {
	SendBuffer          int      `config:"send_buffer"`
	PingIntervalSeconds int      `config:"ping_interval_seconds"`
	AllowedOrigins      []string `config:"allowed_origins"`
}

type RelayConfig struct {
	ClientEvents []string `config:"client_events"`
}

type Broker struct {
	URL   string `config:"url"`
	Topic string `config:"topic"`
}

type Store struct {
	Path string `config:"path"`
}

type Frontend struct {
	URL string `config:"url"`
}

type Caption struct {
	URL            string `config:"url"`
	Model          string `config:"model"`
	Key            string `config:"key"`
	WebhookURL     string `config:"webhook_url"`
	TimeoutSeconds int    `config:"timeout_seconds"`
}

type Config struct {
	Addr                     string      `config:"addr"`
	JwksURL                  string      `config:"jwks_url"`
	ReadHeaderTimeoutSeconds int         `config:"read_header_timeout_seconds"`
	Log                      Log         `config:"log"`
	Webhook                  Webhook     `config:"webhook"`
	Push                     Push        `config:"push"`
	Relay                    RelayConfig `config:"relay"`
	Broker                   Broker      `config:"broker"`
	Store                    Store       `config:"store"`
	Frontend                 Frontend    `config:"frontend"`
	Caption                  Caption     `config:"caption"`
}

// NewConfig reads path and, when it exists, the sibling .local.yml overlay.
func NewConfig(path string) (*Config, error) {
	var appConfig Config

	c := config.New("reelay")
	c.WithOptions(func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})

	c.AddDriver(yaml.Driver)

	if err := c.LoadFiles(path); err != nil {
		return nil, err
	}

	if err := c.LoadExists(strings.Replace(path, ".yml", ".local.yml", 1)); err != nil {
		return nil, err
	}

	if err := c.BindStruct("", &appConfig); err != nil {
		return nil, err
	}

	appConfig.setDefaults()

	return &appConfig, nil
}

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() *Config {
	var appConfig Config
	appConfig.setDefaults()

	return &appConfig
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}

	if c.ReadHeaderTimeoutSeconds <= 0 {
		c.ReadHeaderTimeoutSeconds = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Webhook.MaxBodyBytes <= 0 {
		c.Webhook.MaxBodyBytes = 1 << 20
	}

	if c.Push.SendBuffer <= 0 {
		c.Push.SendBuffer = 64
	}

	if c.Push.PingIntervalSeconds <= 0 {
		c.Push.PingIntervalSeconds = 25
	}

	if c.Broker.URL != "" && c.Broker.Topic == "" {
		c.Broker.Topic = "persistent://public/default/reelay-events"
	}

	if c.Store.Path == "" {
		c.Store.Path = "reelay.db"
	}

	if c.Caption.URL == "" {
		c.Caption.URL = "https://queue.fal.run"
	}

	if c.Caption.Model == "" {
		c.Caption.Model = "fal-ai/auto-caption"
	}

	if c.Caption.Key == "" {
		c.Caption.Key = os.Getenv("FAL_KEY")
	}

	if c.Caption.WebhookURL == "" {
		c.Caption.WebhookURL = os.Getenv("FAL_AI_WEBHOOK_URL")
	}

	if c.Caption.TimeoutSeconds <= 0 {
		c.Caption.TimeoutSeconds = 30
	}
}
