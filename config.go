package logmine

import (
	"fmt"

	"github.com/tinytelemetry/logmine/strategy"
)

// TokenizationStrategy labels a tokenizer shape for different log
// formats. It is recorded on the Config only: neither Builder nor Engine
// derives a Tokenizer from it, and the Config's Tokenizer field alone
// decides how lines are split.
type TokenizationStrategy int

const (
	// TokenizationDefault splits on whitespace and common delimiters.
	TokenizationDefault TokenizationStrategy = iota
	// TokenizationWhitespaceOnly splits only on whitespace.
	TokenizationWhitespaceOnly
	// TokenizationCustom splits on a caller-supplied delimiter set.
	TokenizationCustom
	// TokenizationSmart labels quote-preserving tokenization. The
	// delimiter-preserving tokenizer does not treat quotes specially.
	TokenizationSmart
	// TokenizationCSV tokenizes comma-separated fields.
	TokenizationCSV
	// TokenizationJSON tokenizes flat JSON object logs.
	TokenizationJSON
)

// Config is the engine's immutable configuration record. All fields are
// frozen at construction and validated up front; an invalid combination of
// values is rejected rather than silently clamped.
type Config struct {
	SimilarityThreshold float64
	MinClusterSize      int
	MaxClusters         int

	Tokenizer        strategy.Tokenizer
	VariableDetector strategy.VariableDetector

	TokenizationStrategy TokenizationStrategy
	CustomDelimiters     string

	NormalizeTimestamps bool
	NormalizeIPs        bool
	NormalizeNumbers    bool
	NormalizePaths      bool
	NormalizeUrls       bool
	CaseSensitive       bool

	MinPatternLength      int
	MaxPatternLength      int
	MinPatternSpecificity float64
	IgnoreTokens          []string

	EnableHierarchicalPatterns bool
	HierarchyThresholds        []float64
}

// Validate checks every invariant a Config must satisfy, returning the
// first violation found.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0.0 || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("logmine: similarity threshold must be between 0.0 and 1.0, got %v", c.SimilarityThreshold)
	}
	if c.MinClusterSize < 1 {
		return fmt.Errorf("logmine: min cluster size must be at least 1, got %d", c.MinClusterSize)
	}
	if c.MaxClusters < 1 {
		return fmt.Errorf("logmine: max clusters must be at least 1, got %d", c.MaxClusters)
	}
	if c.Tokenizer == nil {
		return fmt.Errorf("logmine: tokenizer cannot be nil")
	}
	if c.VariableDetector == nil {
		return fmt.Errorf("logmine: variable detector cannot be nil")
	}
	if c.MinPatternLength < 1 {
		return fmt.Errorf("logmine: min pattern length must be at least 1, got %d", c.MinPatternLength)
	}
	if c.MaxPatternLength < c.MinPatternLength {
		return fmt.Errorf("logmine: max pattern length must be >= min pattern length")
	}
	if c.MinPatternSpecificity < 0.0 || c.MinPatternSpecificity > 1.0 {
		return fmt.Errorf("logmine: min pattern specificity must be between 0.0 and 1.0, got %v", c.MinPatternSpecificity)
	}
	for _, th := range c.HierarchyThresholds {
		if th < 0.0 || th > 1.0 {
			return fmt.Errorf("logmine: hierarchy thresholds must be between 0.0 and 1.0, got %v", th)
		}
	}
	return nil
}

// Builder constructs a Config with a fluent API, mirroring the defaults a
// bare DefaultConfig() would produce.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder preloaded with DefaultConfig's values.
func NewBuilder() *Builder {
	return &Builder{cfg: defaultConfigValues()}
}

func defaultConfigValues() Config {
	return Config{
		SimilarityThreshold:   0.5,
		MinClusterSize:        1,
		MaxClusters:           1 << 30,
		Tokenizer:             strategy.NewDelimiterPreservingTokenizer(),
		VariableDetector:      strategy.NewStandardVariableDetector(),
		TokenizationStrategy:  TokenizationDefault,
		CustomDelimiters:      "",
		CaseSensitive:         true,
		MinPatternLength:      1,
		MaxPatternLength:      1 << 30,
		MinPatternSpecificity: 0.0,
		IgnoreTokens:          nil,
		HierarchyThresholds:   nil,
	}
}

// SimilarityThreshold sets the clustering admission threshold.
func (b *Builder) SimilarityThreshold(threshold float64) *Builder {
	b.cfg.SimilarityThreshold = threshold
	return b
}

// MinClusterSize sets the minimum surviving cluster size.
func (b *Builder) MinClusterSize(size int) *Builder {
	b.cfg.MinClusterSize = size
	return b
}

// MaxClusters sets the maximum number of live clusters.
func (b *Builder) MaxClusters(max int) *Builder {
	b.cfg.MaxClusters = max
	return b
}

// WithTokenizer sets the tokenizer strategy.
func (b *Builder) WithTokenizer(tokenizer strategy.Tokenizer) *Builder {
	b.cfg.Tokenizer = tokenizer
	return b
}

// WithVariableDetector sets the variable detector strategy.
func (b *Builder) WithVariableDetector(detector strategy.VariableDetector) *Builder {
	b.cfg.VariableDetector = detector
	return b
}

// WithTokenizationStrategy sets the tokenization strategy hint.
func (b *Builder) WithTokenizationStrategy(s TokenizationStrategy) *Builder {
	b.cfg.TokenizationStrategy = s
	return b
}

// CustomDelimiters sets custom delimiters and switches the tokenization
// strategy to TokenizationCustom.
func (b *Builder) CustomDelimiters(delimiters string) *Builder {
	b.cfg.CustomDelimiters = delimiters
	b.cfg.TokenizationStrategy = TokenizationCustom
	return b
}

// NormalizeTimestamps toggles timestamp normalization.
func (b *Builder) NormalizeTimestamps(normalize bool) *Builder {
	b.cfg.NormalizeTimestamps = normalize
	return b
}

// NormalizeIPs toggles IP address normalization.
func (b *Builder) NormalizeIPs(normalize bool) *Builder {
	b.cfg.NormalizeIPs = normalize
	return b
}

// NormalizeNumbers toggles number normalization.
func (b *Builder) NormalizeNumbers(normalize bool) *Builder {
	b.cfg.NormalizeNumbers = normalize
	return b
}

// NormalizePaths toggles file path normalization.
func (b *Builder) NormalizePaths(normalize bool) *Builder {
	b.cfg.NormalizePaths = normalize
	return b
}

// NormalizeUrls toggles URL normalization.
func (b *Builder) NormalizeUrls(normalize bool) *Builder {
	b.cfg.NormalizeUrls = normalize
	return b
}

// CaseSensitive sets whether pattern matching is case-sensitive.
func (b *Builder) CaseSensitive(sensitive bool) *Builder {
	b.cfg.CaseSensitive = sensitive
	return b
}

// MinPatternLength sets the minimum pattern length in tokens.
func (b *Builder) MinPatternLength(length int) *Builder {
	b.cfg.MinPatternLength = length
	return b
}

// MaxPatternLength sets the maximum pattern length in tokens.
func (b *Builder) MaxPatternLength(length int) *Builder {
	b.cfg.MaxPatternLength = length
	return b
}

// MinPatternSpecificity sets the minimum specificity threshold.
func (b *Builder) MinPatternSpecificity(specificity float64) *Builder {
	b.cfg.MinPatternSpecificity = specificity
	return b
}

// IgnoreToken adds a single token to the ignore set.
func (b *Builder) IgnoreToken(token string) *Builder {
	b.cfg.IgnoreTokens = append(b.cfg.IgnoreTokens, token)
	return b
}

// IgnoreTokens adds multiple tokens to the ignore set.
func (b *Builder) IgnoreTokens(tokens []string) *Builder {
	b.cfg.IgnoreTokens = append(b.cfg.IgnoreTokens, tokens...)
	return b
}

// EnableHierarchicalPatterns toggles hierarchical pattern extraction.
func (b *Builder) EnableHierarchicalPatterns(enable bool) *Builder {
	b.cfg.EnableHierarchicalPatterns = enable
	return b
}

// AddHierarchyThreshold appends a threshold for hierarchical pattern
// levels.
func (b *Builder) AddHierarchyThreshold(threshold float64) *Builder {
	b.cfg.HierarchyThresholds = append(b.cfg.HierarchyThresholds, threshold)
	return b
}

// Build finalizes the Config, making defensive copies of its mutable
// slices.
func (b *Builder) Build() Config {
	cfg := b.cfg
	cfg.IgnoreTokens = append([]string(nil), b.cfg.IgnoreTokens...)
	cfg.HierarchyThresholds = append([]float64(nil), b.cfg.HierarchyThresholds...)
	return cfg
}

// DefaultConfig returns a Config with balanced default settings suitable
// for most log types.
func DefaultConfig() Config {
	return NewBuilder().Build()
}

// WebServerConfig returns a Config tuned for web server logs (Apache,
// Nginx, and similar): a tighter similarity threshold with timestamp, IP,
// number, and URL normalization all enabled.
func WebServerConfig() Config {
	return NewBuilder().
		SimilarityThreshold(0.7).
		NormalizeIPs(true).
		NormalizeTimestamps(true).
		NormalizeNumbers(true).
		NormalizeUrls(true).
		Build()
}

// ApplicationLogConfig returns a Config tuned for application logs (Java,
// Python, and similar): timestamps, numbers, and paths normalized, matched
// case-insensitively.
func ApplicationLogConfig() Config {
	return NewBuilder().
		SimilarityThreshold(0.6).
		NormalizeTimestamps(true).
		NormalizeNumbers(true).
		NormalizePaths(true).
		CaseSensitive(false).
		Build()
}

// SystemLogConfig returns a Config tuned for system logs (syslog, systemd,
// and similar): timestamps, IPs and numbers normalized, and a minimum
// cluster size of 2 to suppress one-off noise.
func SystemLogConfig() Config {
	return NewBuilder().
		SimilarityThreshold(0.65).
		NormalizeTimestamps(true).
		NormalizeIPs(true).
		NormalizeNumbers(true).
		MinClusterSize(2).
		Build()
}

// MultiSourceConfig returns a Config tuned for handling multiple
// heterogeneous log sources: a lenient similarity threshold, every
// normalization flag enabled, and hierarchical pattern extraction turned
// on with a three-level threshold stack.
func MultiSourceConfig() Config {
	return NewBuilder().
		SimilarityThreshold(0.5).
		NormalizeTimestamps(true).
		NormalizeIPs(true).
		NormalizeNumbers(true).
		NormalizePaths(true).
		NormalizeUrls(true).
		CaseSensitive(false).
		EnableHierarchicalPatterns(true).
		AddHierarchyThreshold(0.8).
		AddHierarchyThreshold(0.5).
		AddHierarchyThreshold(0.3).
		Build()
}
