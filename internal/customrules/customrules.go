// Package customrules loads a YAML-defined set of variable-detection rules
// into a strategy.CustomVariableDetector, letting an operator describe
// domain-specific tokens (request ids, feature flags, service names)
// without recompiling the engine.
package customrules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/logmine/strategy"
)

// RuleSet is the YAML document shape:
//
//	default_to_variable: false
//	variable_patterns:
//	  - '^req-[0-9a-f]{8}$'
//	  - '^v[0-9]+\.[0-9]+\.[0-9]+$'
//	constant_tokens:
//	  - ERROR
//	  - WARN
//	  - INFO
type RuleSet struct {
	DefaultToVariable bool     `yaml:"default_to_variable"`
	VariablePatterns  []string `yaml:"variable_patterns"`
	ConstantTokens    []string `yaml:"constant_tokens"`
}

// Load reads and parses a RuleSet from a YAML file.
func Load(path string) (RuleSet, error) {
	var rs RuleSet

	data, err := os.ReadFile(path)
	if err != nil {
		return rs, fmt.Errorf("customrules: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return rs, fmt.Errorf("customrules: parse %s: %w", path, err)
	}
	return rs, nil
}

// LoadVariableDetector reads a RuleSet from path and builds the
// corresponding strategy.CustomVariableDetector.
func LoadVariableDetector(path string) (strategy.CustomVariableDetector, error) {
	rs, err := Load(path)
	if err != nil {
		return strategy.CustomVariableDetector{}, err
	}
	return rs.Build()
}

// Build constructs a strategy.CustomVariableDetector from the rule set. A
// malformed regex in variable_patterns surfaces as an error rather than
// panicking, since regexp.MustCompile would otherwise crash the process on
// a bad config file.
func (rs RuleSet) Build() (strategy.CustomVariableDetector, error) {
	for _, pattern := range rs.VariablePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return strategy.CustomVariableDetector{}, fmt.Errorf("customrules: invalid variable pattern %q: %w", pattern, err)
		}
	}

	b := strategy.NewCustomVariableDetectorBuilder().SetDefaultToVariable(rs.DefaultToVariable)
	for _, pattern := range rs.VariablePatterns {
		b.AddVariablePattern(pattern)
	}
	for _, token := range rs.ConstantTokens {
		b.AddConstantToken(token)
	}
	return b.Build(), nil
}
