package config

import (
	"strings"
	"time"

	"github.com/dattu/rollsim/pkg/fingerprint"
	"github.com/spf13/viper"
)

type Config struct {
	Fingerprint struct {
		WindowSize   int    `mapstructure:"window_size"`
		Base         uint64 `mapstructure:"base"`
		Modulus      uint64 `mapstructure:"modulus"`
		SelectorMask uint64 `mapstructure:"selector_mask"`
		BufferSize   int    `mapstructure:"buffer_size"`
	} `mapstructure:"fingerprint"`

	Compare struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"compare"`

	Results struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"results"`

	Storage struct {
		Datadir string `mapstructure:"datadir"`
		DB      string `mapstructure:"db"`
	} `mapstructure:"storage"`

	Server struct {
		GRPCPort    int `mapstructure:"grpc_port"`
		MetricsPort int `mapstructure:"metrics_port"`
	} `mapstructure:"server"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	// ➊ YAML file (optional)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// ➋ ENV overrides — e.g. ROLLSIM_FINGERPRINT_WINDOW_SIZE=64
	v.SetEnvPrefix("ROLLSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// ➌ Hard defaults
	def := fingerprint.DefaultConfig()
	v.SetDefault("fingerprint.window_size", def.WindowSize)
	v.SetDefault("fingerprint.base", def.Base)
	v.SetDefault("fingerprint.modulus", def.Modulus)
	v.SetDefault("fingerprint.selector_mask", def.SelectorMask)
	v.SetDefault("fingerprint.buffer_size", def.BufferSize)
	v.SetDefault("compare.workers", 4)
	v.SetDefault("results.ttl", "168h")
	v.SetDefault("storage.datadir", "data")
	v.SetDefault("storage.db", "results.db")
	v.SetDefault("server.grpc_port", 50061)
	v.SetDefault("server.metrics_port", 9112)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Engine returns the fingerprint engine configuration described by c.
func (c *Config) Engine() fingerprint.Config {
	return fingerprint.Config{
		WindowSize:   c.Fingerprint.WindowSize,
		Base:         c.Fingerprint.Base,
		Modulus:      c.Fingerprint.Modulus,
		SelectorMask: c.Fingerprint.SelectorMask,
		BufferSize:   c.Fingerprint.BufferSize,
	}
}
