package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/flowerbelle/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	LogPath   string `mapstructure:"log_path"   json:"log_path"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Cache struct {
	Host       string        `mapstructure:"host"        json:"host"`
	Password   string        `mapstructure:"password"    json:"-"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl" json:"catalog_ttl"`
	Database   int           `mapstructure:"database"    json:"database"`
	Port       uint16        `mapstructure:"port"        json:"port"`
}

type Backend struct {
	BaseURL          string        `mapstructure:"base_url"          json:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"           json:"timeout"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"  json:"breaker_failures"`
	BreakerOpenAfter time.Duration `mapstructure:"breaker_open_for"  json:"breaker_open_for"`
}

type Otel struct {
	Host    string `mapstructure:"host"    json:"host"`
	Port    int    `mapstructure:"port"    json:"port"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

type Sale struct {
	ReceiptJournalSize int64 `mapstructure:"receipt_journal_size" json:"receipt_journal_size"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Backend     `mapstructure:"backend"     json:"backend"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Sale        `mapstructure:"sale"        json:"sale"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "development")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.log_path", "/var/log/flowerbelle.log")
	v.SetDefault("application.secret_key", "")
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.database", 0)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.catalog_ttl", 15*time.Second)
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_open_for", 30*time.Second)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("otel.enabled", false)
	v.SetDefault("sale.receipt_journal_size", 50)
}

// Load reads ./env/<filename>.yaml when present and lets environment
// variables such as BACKEND_BASE_URL override any key.
func Load(c context.Context, filename string) (Config, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "config Load").
		Str(log.KeyProcess, "reading config").
		Str("filename", filename).
		Logger()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(filename)
	v.AddConfigPath("./env")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	logger.Info().Msg("reading config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			err = fmt.Errorf("failed reading config with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return Config{}, err
		}
		logger.Warn().Msg("config file not found, using defaults and environment")
	}
	logger.Info().Msg("read config")

	logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
	logger.Info().Msg("unmarshaling config")
	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		err = fmt.Errorf("failed unmarshaling config with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return Config{}, err
	}
	logger.Info().Any(log.KeyConfig, cfg).Msg("unmarshaled config")

	return cfg, nil
}

// Get loads the config once for the lifetime of the process and exits on failure.
func Get(c context.Context, filename string) *Config {
	once.Do(func() {
		cfg, err := Load(c, filename)
		if err != nil {
			zerolog.Ctx(c).Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
	})
	return config
}
