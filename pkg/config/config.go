package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Jobs   JobConfig
	Data   DataConfig
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JobConfig struct {
	MaxWorkers      int
	JobTimeout      time.Duration
	CleanupInterval time.Duration
	ResultTTL       time.Duration
}

// DataConfig points at the dataset loaded on startup. Empty paths mean the
// dataset is uploaded later.
type DataConfig struct {
	Friendships string
	Haters      string
	Costs       string
	MaxFileSize int64
}

// New returns a viper instance with the server defaults and INFLUENCE_
// environment overrides
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("jobs.max_workers", 2)
	v.SetDefault("jobs.timeout", 30*time.Minute)
	v.SetDefault("jobs.cleanup_interval", 5*time.Minute)
	v.SetDefault("jobs.result_ttl", time.Hour)

	v.SetDefault("data.friendships", "")
	v.SetDefault("data.haters", "")
	v.SetDefault("data.costs", "")
	v.SetDefault("data.max_file_size", 100*1024*1024) // 100MB

	v.SetEnvPrefix("INFLUENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the server configuration. An empty path uses defaults and the
// environment only.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return FromViper(v), nil
}

// FromViper builds the typed configuration from v
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Address:      v.GetString("server.address"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Jobs: JobConfig{
			MaxWorkers:      v.GetInt("jobs.max_workers"),
			JobTimeout:      v.GetDuration("jobs.timeout"),
			CleanupInterval: v.GetDuration("jobs.cleanup_interval"),
			ResultTTL:       v.GetDuration("jobs.result_ttl"),
		},
		Data: DataConfig{
			Friendships: v.GetString("data.friendships"),
			Haters:      v.GetString("data.haters"),
			Costs:       v.GetString("data.costs"),
			MaxFileSize: v.GetInt64("data.max_file_size"),
		},
	}
}
