package pipeline

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config manages search configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("budget", 1500.0)

	// Diffusion model
	v.SetDefault("cascade.p_base", 0.2)
	v.SetDefault("cascade.rounds", 6)

	// Search funnel sizes
	v.SetDefault("search.top_influencers", 700)
	v.SetDefault("search.num_samples", 3000)
	v.SetDefault("search.top_spreadness", 200)
	v.SetDefault("search.top_sum_influence", 100)
	v.SetDefault("search.trials", 1000)

	// Ceilings for sizes requested through the API
	v.SetDefault("search.max_samples", 100000)
	v.SetDefault("search.max_trials", 1000000)

	v.SetDefault("algorithm.random_seed", 42)

	v.SetDefault("performance.num_workers", runtime.NumCPU())

	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// BindFlags binds command line flags to configuration keys. Only flags that
// exist in the set are bound.
func (c *Config) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := c.v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Budget() float64 { return c.v.GetFloat64("budget") }

func (c *Config) PBase() float64 { return c.v.GetFloat64("cascade.p_base") }
func (c *Config) Rounds() int     { return c.v.GetInt("cascade.rounds") }

func (c *Config) TopInfluencers() int  { return c.v.GetInt("search.top_influencers") }
func (c *Config) NumSamples() int      { return c.v.GetInt("search.num_samples") }
func (c *Config) TopSpreadness() int   { return c.v.GetInt("search.top_spreadness") }
func (c *Config) TopSumInfluence() int { return c.v.GetInt("search.top_sum_influence") }
func (c *Config) Trials() int          { return c.v.GetInt("search.trials") }
func (c *Config) MaxSamples() int      { return c.v.GetInt("search.max_samples") }
func (c *Config) MaxTrials() int       { return c.v.GetInt("search.max_trials") }

func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Clone returns an independent copy carrying the current values
func (c *Config) Clone() *Config {
	clone := NewConfig()
	for _, key := range c.v.AllKeys() {
		clone.v.Set(key, c.v.Get(key))
	}
	return clone
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "influence").Logger()
}
