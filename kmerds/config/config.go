package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/kmer-datasets/kmerds"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file, environment variables or flags.
type Config struct {
	Kmer      KmerConfig      `mapstructure:"kmer"`
	Data      DataConfig      `mapstructure:"data"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Tensor    TensorConfig    `mapstructure:"tensor"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
}

// KmerConfig stores k-mer splitting settings.
type KmerConfig struct {
	K              int  `mapstructure:"k"`
	Workers        int  `mapstructure:"workers"`
	StrictAlphabet bool `mapstructure:"strictAlphabet"`
}

// DataConfig stores where validation CSVs live and how they are laid out.
type DataConfig struct {
	ValDir         string   `mapstructure:"valDir"`
	SequenceColumn string   `mapstructure:"sequenceColumn"`
	ClassColumns   []string `mapstructure:"classColumns"`
	LabelBase      int      `mapstructure:"labelBase"`
	IgnoreFile     string   `mapstructure:"ignoreFile"`
}

// TokenizerConfig stores batch-encoding settings.
type TokenizerConfig struct {
	Kind           string `mapstructure:"kind"`
	VocabPath      string `mapstructure:"vocabPath"`
	MaxLength      int    `mapstructure:"maxLength"`
	PadToMaxLength bool   `mapstructure:"padToMaxLength"`
	Truncation     bool   `mapstructure:"truncation"`
}

// TensorConfig stores tensor placement.
type TensorConfig struct {
	Device string `mapstructure:"device"`
}

// CacheConfig stores the encoding cache location. An empty DSN keeps the cache in memory.
type CacheConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"dir":       "data.valDir",
	"k":         "kmer.k",
	"workers":   "kmer.workers",
	"vocab":     "tokenizer.vocabPath",
	"tokenizer": "tokenizer.kind",
	"device":    "tensor.device",
	"cache":     "cache.dsn",
	"log-level": "log.level",
}

// LoadConfig reads configuration from file, environment variables and, when
// flags is non-nil, the command line. Flags win over env, env over file.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // kmer.k becomes KMERDS_KMER_K
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kmer.k", internal.DefaultKmer)
	v.SetDefault("kmer.workers", internal.DefaultWorkers)
	v.SetDefault("kmer.strictAlphabet", false)

	v.SetDefault("data.valDir", internal.DefaultValDir)
	v.SetDefault("data.sequenceColumn", internal.DefaultSequenceColumn)
	v.SetDefault("data.classColumns", internal.DefaultClassColumns)
	v.SetDefault("data.labelBase", internal.DefaultLabelBase)
	v.SetDefault("data.ignoreFile", "")

	v.SetDefault("tokenizer.kind", internal.DefaultTokenizerKind)
	v.SetDefault("tokenizer.vocabPath", "")
	v.SetDefault("tokenizer.maxLength", internal.DefaultMaxLength)
	v.SetDefault("tokenizer.padToMaxLength", true)
	v.SetDefault("tokenizer.truncation", true)

	v.SetDefault("tensor.device", internal.DefaultDevice)
	v.SetDefault("cache.dsn", internal.DefaultCacheDSN)
	v.SetDefault("log.level", "info")
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Kmer.K < 1 {
		return fmt.Errorf("kmer.k must be at least 1: %d", c.Kmer.K)
	}
	if c.Tokenizer.MaxLength < 2 {
		return fmt.Errorf("tokenizer.maxLength must be at least 2: %d", c.Tokenizer.MaxLength)
	}
	if strings.TrimSpace(c.Data.SequenceColumn) == "" {
		return fmt.Errorf("data.sequenceColumn cannot be empty")
	}
	if len(c.Data.ClassColumns) == 0 {
		return fmt.Errorf("data.classColumns cannot be empty")
	}
	return nil
}
