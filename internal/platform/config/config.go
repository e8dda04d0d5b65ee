package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// Per-client budget for the generation endpoints, per minute.
	WriteRateLimit int `mapstructure:"write_rate_limit"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // memory or redis
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type GenerationConfig struct {
	ShortDomain      string        `mapstructure:"short_domain"`
	TimeBudget       time.Duration `mapstructure:"time_budget"`
	LogoFetchTimeout time.Duration `mapstructure:"logo_fetch_timeout"`
	MaxBatchSize     int           `mapstructure:"max_batch_size"`
	MaxConcurrency   int           `mapstructure:"max_concurrency"`
	BatchItemTimeout time.Duration `mapstructure:"batch_item_timeout"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	setDefaults()

	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env vars are enough to run.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.write_rate_limit", 120)

	viper.SetDefault("database.path", "data/qrforge.db")
	viper.SetDefault("database.max_connections", 10)

	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", "10m")
	viper.SetDefault("cache.max_entries", 1024)
	viper.SetDefault("cache.redis_addr", "localhost:6379")

	viper.SetDefault("storage.base_path", "data/images")

	viper.SetDefault("generation.short_domain", "qrf.ge")
	viper.SetDefault("generation.time_budget", "500ms")
	viper.SetDefault("generation.logo_fetch_timeout", "5s")
	viper.SetDefault("generation.max_batch_size", 50)
	viper.SetDefault("generation.max_concurrency", 5)
	viper.SetDefault("generation.batch_item_timeout", "10s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
