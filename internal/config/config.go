package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"krakendca/internal/entity"

	"github.com/spf13/viper"
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env    string       `mapstructure:"env"`
	Log    LogConfig    `mapstructure:"log"`
	Kraken KrakenConfig `mapstructure:"kraken"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type KrakenConfig struct {
	PublicKey   string        `mapstructure:"public_key"`
	PrivateKey  string        `mapstructure:"private_key"`
	BaseURL     string        `mapstructure:"base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// ValidateCredentials reports missing keys before any network call is made.
func (c KrakenConfig) ValidateCredentials() error {
	var missing []string
	if strings.TrimSpace(c.PublicKey) == "" {
		missing = append(missing, "PUBLIC_KEY")
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, "PRIVATE_KEY")
	}

	if len(missing) > 0 {
		return &entity.CredentialsError{Missing: missing}
	}

	return nil
}

// LoadConfig reads the optional yaml config and binds environment variables
// on top of it. Credentials come from the environment (PUBLIC_KEY and
// PRIVATE_KEY), matching the .env layout the tool is deployed with.
func LoadConfig(configPath string) error {
	viper.Reset()

	configPath = strings.TrimSpace(configPath)
	explicit := configPath != ""
	if !explicit {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	viper.SetDefault("env", "development")
	viper.SetDefault("log.show_caller", false)
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("kraken.base_url", "https://api.kraken.com")
	viper.SetDefault("kraken.http_timeout", 15*time.Second)

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	_ = viper.BindEnv("kraken.public_key", "KRAKEN_PUBLIC_KEY", "PUBLIC_KEY")
	_ = viper.BindEnv("kraken.private_key", "KRAKEN_PRIVATE_KEY", "PRIVATE_KEY")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err = viper.Unmarshal(&Env)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return nil
}
