package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "CORKBOARD"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "corkboard.db"
	defaultLogLevel      = "info"
	defaultTokenTTLHours = 12
	defaultCanvasWidth   = 1920
	defaultCanvasHeight  = 1080
	defaultCardWidth     = 180
	defaultCardHeight    = 140
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	SigningSecret string
	DatabasePath  string
	LogLevel      string
	TokenTTL      time.Duration
	CanvasWidth   float64
	CanvasHeight  float64
	CardWidth     float64
	CardHeight    float64
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.token_ttl_hours", defaultTokenTTLHours)
	configViper.SetDefault("board.canvas_width", defaultCanvasWidth)
	configViper.SetDefault("board.canvas_height", defaultCanvasHeight)
	configViper.SetDefault("board.card_width", defaultCardWidth)
	configViper.SetDefault("board.card_height", defaultCardHeight)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		TokenTTL:      time.Duration(configViper.GetInt("auth.token_ttl_hours")) * time.Hour,
		CanvasWidth:   configViper.GetFloat64("board.canvas_width"),
		CanvasHeight:  configViper.GetFloat64("board.canvas_height"),
		CardWidth:     configViper.GetFloat64("board.card_width"),
		CardHeight:    configViper.GetFloat64("board.card_height"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_hours must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("board canvas extent must be positive")
	}
	if c.CardWidth <= 0 || c.CardHeight <= 0 {
		return fmt.Errorf("board card extent must be positive")
	}
	if c.CardWidth > c.CanvasWidth || c.CardHeight > c.CanvasHeight {
		return fmt.Errorf("board card must fit inside the canvas")
	}
	return nil
}
