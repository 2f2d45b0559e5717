// Package config loads the engine and service configuration logmine-server
// runs with, from an optional YAML file layered under environment
// variables, the way cmd/lotus/main.go loads appConfig.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logmine"
	"github.com/tinytelemetry/logmine/internal/customrules"
	"github.com/tinytelemetry/logmine/strategy"
)

const (
	defaultBindHost            = "127.0.0.1"
	defaultTCPPort             = 4000
	defaultAPIPort             = 3000
	defaultDBFile              = "logmine.duckdb"
	defaultFlushInterval       = 5 * time.Second
	defaultSimilarityThreshold = 0.5
	defaultMinClusterSize      = 1
	defaultMaxClusters         = 10_000
	defaultBatchBufferSize     = logmine.DefaultBatchBufferSize
)

// Config is the full runtime configuration for logmine-server: the
// engine's clustering parameters plus the surrounding service's network
// addresses, persistence path, and mode.
type Config struct {
	// Engine parameters, mirroring spec.md §6's configuration surface.
	SimilarityThreshold        float64   `mapstructure:"similarity-threshold"`
	MinClusterSize             int       `mapstructure:"min-cluster-size"`
	MaxClusters                int       `mapstructure:"max-clusters"`
	TokenizerStrategy          string    `mapstructure:"tokenizer-strategy"`
	CustomDelimiters           string    `mapstructure:"custom-delimiters"`
	VariableDetectorStrategy   string    `mapstructure:"variable-detector"`
	CustomRulesPath            string    `mapstructure:"custom-rules-path"`
	NormalizeTimestamps        bool      `mapstructure:"normalize-timestamps"`
	NormalizeIPs               bool      `mapstructure:"normalize-ips"`
	NormalizeNumbers           bool      `mapstructure:"normalize-numbers"`
	NormalizePaths             bool      `mapstructure:"normalize-paths"`
	NormalizeUrls              bool      `mapstructure:"normalize-urls"`
	CaseSensitive              bool      `mapstructure:"case-sensitive"`
	IgnoreTokens               []string  `mapstructure:"ignore-tokens"`
	EnableHierarchicalPatterns bool      `mapstructure:"enable-hierarchical-patterns"`
	HierarchyThresholds        []float64 `mapstructure:"hierarchy-thresholds"`

	// Service parameters.
	Mode              string        `mapstructure:"mode"` // "streaming" or "batch"
	BatchBufferSize   int           `mapstructure:"batch-buffer-size"`
	TCPEnabled        bool          `mapstructure:"tcp-enabled"`
	TCPPort           int           `mapstructure:"tcp-port"`
	TCPAddr           string        `mapstructure:"tcp-addr"`
	APIEnabled        bool          `mapstructure:"api-enabled"`
	APIPort           int           `mapstructure:"api-port"`
	APIAddr           string        `mapstructure:"api-addr"`
	OTLPEnabled       bool          `mapstructure:"otlp-enabled"`
	OTLPPort          int           `mapstructure:"otlp-port"`
	OTLPAddr          string        `mapstructure:"otlp-addr"`
	DBPath            string        `mapstructure:"db-path"`
	FlushInterval     time.Duration `mapstructure:"flush-interval"`
	ConfigPath        string        `mapstructure:"-"`
}

// Load reads configuration from configPath (if non-empty) or the default
// location, layering environment variables prefixed LOGMINE_ over
// SetDefault values, then validates and normalizes derived fields.
func Load(configPath string) (Config, error) {
	var cfg Config

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("config: finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "logmine", defaultDBFile)

	v := viper.New()
	v.SetEnvPrefix("LOGMINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("similarity-threshold", defaultSimilarityThreshold)
	v.SetDefault("min-cluster-size", defaultMinClusterSize)
	v.SetDefault("max-clusters", defaultMaxClusters)
	v.SetDefault("tokenizer-strategy", "delimiter")
	v.SetDefault("variable-detector", "standard")
	v.SetDefault("case-sensitive", true)
	v.SetDefault("mode", "streaming")
	v.SetDefault("batch-buffer-size", defaultBatchBufferSize)
	v.SetDefault("tcp-enabled", true)
	v.SetDefault("tcp-port", defaultTCPPort)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("otlp-enabled", false)
	v.SetDefault("otlp-port", defaultTCPPort+1)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("flush-interval", defaultFlushInterval)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logmine", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.TCPPort <= 0 || cfg.TCPPort > 65535 {
		return cfg, fmt.Errorf("config: invalid tcp-port: %d", cfg.TCPPort)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("config: invalid api-port: %d", cfg.APIPort)
	}
	if cfg.OTLPEnabled && (cfg.OTLPPort <= 0 || cfg.OTLPPort > 65535) {
		return cfg, fmt.Errorf("config: invalid otlp-port: %d", cfg.OTLPPort)
	}

	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if cfg.TCPAddr == "" {
		cfg.TCPAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.TCPPort))
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}
	if cfg.OTLPAddr == "" {
		cfg.OTLPAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.OTLPPort))
	}

	return cfg, nil
}

// EngineConfig translates the service-level Config into a logmine.Config,
// resolving the tokenizer and variable detector strategy names (and any
// custom-rules file) into concrete strategy implementations.
func (c Config) EngineConfig() (logmine.Config, error) {
	b := logmine.NewBuilder().
		SimilarityThreshold(c.SimilarityThreshold).
		MinClusterSize(c.MinClusterSize).
		MaxClusters(c.MaxClusters).
		NormalizeTimestamps(c.NormalizeTimestamps).
		NormalizeIPs(c.NormalizeIPs).
		NormalizeNumbers(c.NormalizeNumbers).
		NormalizePaths(c.NormalizePaths).
		NormalizeUrls(c.NormalizeUrls).
		CaseSensitive(c.CaseSensitive).
		IgnoreTokens(c.IgnoreTokens).
		EnableHierarchicalPatterns(c.EnableHierarchicalPatterns)

	for _, th := range c.HierarchyThresholds {
		b.AddHierarchyThreshold(th)
	}

	tok, err := resolveTokenizer(c.TokenizerStrategy, c.CustomDelimiters)
	if err != nil {
		return logmine.Config{}, err
	}
	b.WithTokenizer(tok)

	det, err := resolveVariableDetector(c.VariableDetectorStrategy, c.CustomRulesPath)
	if err != nil {
		return logmine.Config{}, err
	}
	b.WithVariableDetector(det)

	return b.Build(), nil
}

func resolveTokenizer(name, customDelimiters string) (strategy.Tokenizer, error) {
	switch name {
	case "", "delimiter":
		if customDelimiters != "" {
			return strategy.NewDelimiterPreservingTokenizerWithDelimiters(customDelimiters), nil
		}
		return strategy.NewDelimiterPreservingTokenizer(), nil
	case "whitespace":
		return strategy.NewWhitespaceTokenizer(), nil
	case "json":
		return strategy.NewJSONTokenizer(), nil
	default:
		return nil, fmt.Errorf("config: unknown tokenizer-strategy %q", name)
	}
}

func resolveVariableDetector(name, rulesPath string) (strategy.VariableDetector, error) {
	switch name {
	case "", "standard":
		return strategy.NewStandardVariableDetector(), nil
	case "always":
		return strategy.NewAlwaysVariableDetector(), nil
	case "never":
		return strategy.NewNeverVariableDetector(), nil
	case "custom":
		if rulesPath == "" {
			return nil, fmt.Errorf("config: variable-detector %q requires custom-rules-path", name)
		}
		return customrules.LoadVariableDetector(rulesPath)
	default:
		return nil, fmt.Errorf("config: unknown variable-detector %q", name)
	}
}
