package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
	// JSON forces structured output even when stderr is a terminal
	JSON bool `mapstructure:"json"`
}

type RPCConfig struct {
	URL     string `mapstructure:"url"`
	Network string `mapstructure:"network"`
}

type KeystoreConfig struct {
	Path          string `mapstructure:"path"`
	SignerAccount string `mapstructure:"signerAccount"`
}

type MigrationConfig struct {
	SourceAccount      string `mapstructure:"sourceAccount"`
	DestinationAccount string `mapstructure:"destinationAccount"`
	PageSize           int    `mapstructure:"pageSize"`
	ChunkSize          int    `mapstructure:"chunkSize"`
	Gas                uint64 `mapstructure:"gas"`
	MaxConcurrentPages int    `mapstructure:"maxConcurrentPages"`
	Resume             bool   `mapstructure:"resume"`
	FinalizeStatus     string `mapstructure:"finalizeStatus"`
}

type StorageConfig struct {
	Progress StorageConnectionConfig `mapstructure:"progress"`
}

type StorageConnectionConfig struct {
	Memory *MemoryConfig `mapstructure:"memory"`
	Pebble *PebbleConfig `mapstructure:"pebble"`
	Badger *BadgerConfig `mapstructure:"badger"`
	Redis  *RedisConfig  `mapstructure:"redis"`
}

// Persistent reports whether offsets outlive the process.
func (s StorageConnectionConfig) Persistent() bool {
	return s.Pebble != nil || (s.Badger != nil && !s.Badger.InMemory) || s.Redis != nil
}

type MemoryConfig struct{}

type PebbleConfig struct {
	Path string `mapstructure:"path"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"inMemory"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	PoolSize  int    `mapstructure:"poolSize"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type Config struct {
	RPC       RPCConfig       `mapstructure:"rpc"`
	Keystore  KeystoreConfig  `mapstructure:"keystore"`
	Migration MigrationConfig `mapstructure:"migration"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

var Cfg Config

const (
	DefaultPageSize           = 50
	DefaultChunkSize          = 20
	DefaultGas                = uint64(300_000_000_000_000) // 300 Tgas
	DefaultMaxConcurrentPages = 16
	DefaultMetricsPort        = 2112
)

func setDefaults() {
	viper.SetDefault("rpc.url", "https://rpc.mainnet.near.org")
	viper.SetDefault("rpc.network", "mainnet")
	viper.SetDefault("keystore.path", defaultKeystorePath())
	viper.SetDefault("migration.sourceAccount", "db.social08.near")
	viper.SetDefault("migration.destinationAccount", "social.near")
	viper.SetDefault("migration.pageSize", DefaultPageSize)
	viper.SetDefault("migration.chunkSize", DefaultChunkSize)
	viper.SetDefault("migration.gas", DefaultGas)
	viper.SetDefault("migration.maxConcurrentPages", DefaultMaxConcurrentPages)
	viper.SetDefault("metrics.port", DefaultMetricsPort)
	viper.SetDefault("log.level", "info")
}

func defaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".near-credentials"
	}
	return filepath.Join(home, ".near-credentials")
}

func LoadConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		// the config file is optional, defaults and env vars are enough to run
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	// sets e.g. MIGRATION_SOURCEACCOUNT to migration.sourceAccount
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	if Cfg.Storage.Progress == (StorageConnectionConfig{}) {
		Cfg.Storage.Progress.Memory = &MemoryConfig{}
	}

	return Cfg.Validate()
}

func (c *Config) Validate() error {
	m := c.Migration
	if m.SourceAccount == "" || m.DestinationAccount == "" {
		return fmt.Errorf("source and destination accounts are required")
	}
	if m.SourceAccount == m.DestinationAccount {
		return fmt.Errorf("source and destination accounts must differ, got %s", m.SourceAccount)
	}
	if m.PageSize <= 0 {
		return fmt.Errorf("migration.pageSize must be positive, got %d", m.PageSize)
	}
	if m.ChunkSize <= 0 {
		return fmt.Errorf("migration.chunkSize must be positive, got %d", m.ChunkSize)
	}
	if m.Gas == 0 {
		return fmt.Errorf("migration.gas must be positive")
	}
	if m.MaxConcurrentPages < 0 {
		return fmt.Errorf("migration.maxConcurrentPages can't be negative, got %d", m.MaxConcurrentPages)
	}
	if m.Resume && !c.Storage.Progress.Persistent() {
		return fmt.Errorf("migration.resume needs a pebble, badger or redis progress storage, offsets in memory don't survive a restart")
	}
	if m.FinalizeStatus == "Genesis" {
		return fmt.Errorf("migration.finalizeStatus can't be Genesis")
	}
	return nil
}
