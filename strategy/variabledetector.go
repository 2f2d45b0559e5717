package strategy

import (
	"fmt"
	"regexp"
)

// VariableDetector decides which tokens should be treated as variable
// (replaced by a wildcard in a pattern) versus literal, and whether two
// tokens should be considered equivalent during similarity scoring.
type VariableDetector interface {
	IsVariable(token string) bool
	TokensMatch(token1, token2 string) bool
	Description() string
}

var (
	numberPattern    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$|^\d{2}:\d{2}:\d{2}$|^\d+,\d+$`)
	ipPattern        = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	uuidPattern      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hexPattern       = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	hashPattern      = regexp.MustCompile(`^[0-9a-fA-F]{32,}$`)
)

// StandardVariableDetector treats numbers, timestamps, IPs, UUIDs, and
// hashes as variables. The default detector, suitable for most log
// formats.
type StandardVariableDetector struct {
	detectNumbers    bool
	detectTimestamps bool
	detectIPs        bool
	detectUUIDs      bool
	detectHashes     bool
}

// NewStandardVariableDetector creates a detector with every detection kind
// enabled.
func NewStandardVariableDetector() StandardVariableDetector {
	return NewStandardVariableDetectorWithOptions(true, true, true, true, true)
}

// NewStandardVariableDetectorWithOptions creates a detector with individual
// detection kinds toggled on or off.
func NewStandardVariableDetectorWithOptions(detectNumbers, detectTimestamps, detectIPs, detectUUIDs, detectHashes bool) StandardVariableDetector {
	return StandardVariableDetector{
		detectNumbers:    detectNumbers,
		detectTimestamps: detectTimestamps,
		detectIPs:        detectIPs,
		detectUUIDs:      detectUUIDs,
		detectHashes:     detectHashes,
	}
}

func (d StandardVariableDetector) IsVariable(token string) bool {
	if token == "" {
		return false
	}

	if d.detectNumbers && numberPattern.MatchString(token) {
		return true
	}
	if d.detectTimestamps && timestampPattern.MatchString(token) {
		return true
	}
	if d.detectIPs && ipPattern.MatchString(token) {
		return true
	}
	if d.detectUUIDs && uuidPattern.MatchString(token) {
		return true
	}
	if d.detectHashes && (hexPattern.MatchString(token) || hashPattern.MatchString(token)) {
		return true
	}

	return false
}

func (d StandardVariableDetector) TokensMatch(token1, token2 string) bool {
	if token1 == token2 {
		return true
	}

	if d.IsVariable(token1) && d.IsVariable(token2) {
		if d.detectNumbers && numberPattern.MatchString(token1) && numberPattern.MatchString(token2) {
			return true
		}
		if d.detectTimestamps && timestampPattern.MatchString(token1) && timestampPattern.MatchString(token2) {
			return true
		}
		if d.detectIPs && ipPattern.MatchString(token1) && ipPattern.MatchString(token2) {
			return true
		}
		if d.detectUUIDs && uuidPattern.MatchString(token1) && uuidPattern.MatchString(token2) {
			return true
		}
	}

	return false
}

func (StandardVariableDetector) Description() string {
	return "Standard Variable Detector - Detects numbers, timestamps, IPs, UUIDs, and hashes"
}

// CustomVariableDetector applies user-supplied regex patterns and a
// constant-token set to decide variable-ness, with a configurable default
// for tokens that match neither.
type CustomVariableDetector struct {
	variablePatterns  []*regexp.Regexp
	constantTokens    map[string]struct{}
	defaultToVariable bool
}

// CustomVariableDetectorBuilder builds a CustomVariableDetector with a
// fluent API.
type CustomVariableDetectorBuilder struct {
	variablePatterns  []*regexp.Regexp
	constantTokens    map[string]struct{}
	defaultToVariable bool
}

// NewCustomVariableDetectorBuilder creates a builder with no rules and
// defaultToVariable false.
func NewCustomVariableDetectorBuilder() *CustomVariableDetectorBuilder {
	return &CustomVariableDetectorBuilder{
		constantTokens: make(map[string]struct{}),
	}
}

// AddVariablePattern adds a regex that identifies variable tokens.
func (b *CustomVariableDetectorBuilder) AddVariablePattern(regex string) *CustomVariableDetectorBuilder {
	b.variablePatterns = append(b.variablePatterns, regexp.MustCompile(regex))
	return b
}

// AddConstantToken marks a token as always constant, overriding any
// variable pattern match.
func (b *CustomVariableDetectorBuilder) AddConstantToken(token string) *CustomVariableDetectorBuilder {
	b.constantTokens[token] = struct{}{}
	return b
}

// SetDefaultToVariable sets the fallback classification for tokens that
// match no rule.
func (b *CustomVariableDetectorBuilder) SetDefaultToVariable(defaultToVariable bool) *CustomVariableDetectorBuilder {
	b.defaultToVariable = defaultToVariable
	return b
}

// Build constructs the CustomVariableDetector.
func (b *CustomVariableDetectorBuilder) Build() CustomVariableDetector {
	constants := make(map[string]struct{}, len(b.constantTokens))
	for k := range b.constantTokens {
		constants[k] = struct{}{}
	}
	patterns := make([]*regexp.Regexp, len(b.variablePatterns))
	copy(patterns, b.variablePatterns)
	return CustomVariableDetector{
		variablePatterns:  patterns,
		constantTokens:    constants,
		defaultToVariable: b.defaultToVariable,
	}
}

func (d CustomVariableDetector) IsVariable(token string) bool {
	if token == "" {
		return false
	}

	if _, isConstant := d.constantTokens[token]; isConstant {
		return false
	}

	for _, pattern := range d.variablePatterns {
		if pattern.MatchString(token) {
			return true
		}
	}

	return d.defaultToVariable
}

func (d CustomVariableDetector) TokensMatch(token1, token2 string) bool {
	if token1 == token2 {
		return true
	}
	return d.IsVariable(token1) && d.IsVariable(token2)
}

func (d CustomVariableDetector) Description() string {
	return fmt.Sprintf("Custom Variable Detector - %d patterns, %d constants", len(d.variablePatterns), len(d.constantTokens))
}

// AlwaysVariableDetector treats every token as variable. Useful for
// producing very general patterns or for testing.
type AlwaysVariableDetector struct{}

// NewAlwaysVariableDetector creates an AlwaysVariableDetector.
func NewAlwaysVariableDetector() AlwaysVariableDetector { return AlwaysVariableDetector{} }

func (AlwaysVariableDetector) IsVariable(string) bool          { return true }
func (AlwaysVariableDetector) TokensMatch(string, string) bool { return true }
func (AlwaysVariableDetector) Description() string {
	return "Always Variable Detector - All tokens treated as variables"
}

// NeverVariableDetector treats every token as a constant, producing exact
// pattern matching with no wildcards.
type NeverVariableDetector struct{}

// NewNeverVariableDetector creates a NeverVariableDetector.
func NewNeverVariableDetector() NeverVariableDetector { return NeverVariableDetector{} }

func (NeverVariableDetector) IsVariable(string) bool { return false }
func (NeverVariableDetector) TokensMatch(token1, token2 string) bool {
	return token1 == token2
}
func (NeverVariableDetector) Description() string {
	return "Never Variable Detector - All tokens treated as constants"
}
