package config

// Package config provides a reusable loader for netmesh node configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"netmesh/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a netmesh node. It mirrors
// the structure of the YAML files under cmd/netmeshd/config.
type Config struct {
	Network struct {
		ListenHost      string `mapstructure:"listen_host" json:"listen_host"`
		ListenPort      int    `mapstructure:"listen_port" json:"listen_port"`
		MaxFrameBytes   uint32 `mapstructure:"max_frame_bytes" json:"max_frame_bytes"`
		UseLRUCache     bool   `mapstructure:"use_lru_cache" json:"use_lru_cache"`
		LRUCacheSize    int    `mapstructure:"lru_cache_size" json:"lru_cache_size"`
		DisableCompress bool   `mapstructure:"disable_compress" json:"disable_compress"`
	} `mapstructure:"network" json:"network"`

	Crypto struct {
		HashKeyHex   string `mapstructure:"hash_key_hex" json:"hash_key_hex"`
		SigningSKHex string `mapstructure:"signing_sk_hex" json:"signing_sk_hex"`
	} `mapstructure:"crypto" json:"crypto"`

	Stats struct {
		WindowSize int `mapstructure:"window_size" json:"window_size"`
	} `mapstructure:"stats" json:"stats"`

	Debug struct {
		HTTPBindAddr string `mapstructure:"http_bind_addr" json:"http_bind_addr"`
	} `mapstructure:"debug" json:"debug"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/netmeshd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the NETMESH_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("NETMESH_ENV", ""))
}
