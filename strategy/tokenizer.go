// Package strategy holds the pluggable tokenization and variable-detection
// strategies used by the logmine clustering engine.
package strategy

import (
	"regexp"
	"strings"
)

// Tokenizer splits a raw log message into an ordered list of tokens.
type Tokenizer interface {
	Tokenize(message string) []string
	Description() string
}

// WhitespaceTokenizer splits on runs of whitespace. Best for simple log
// formats like syslog.
type WhitespaceTokenizer struct{}

// NewWhitespaceTokenizer creates a WhitespaceTokenizer.
func NewWhitespaceTokenizer() WhitespaceTokenizer {
	return WhitespaceTokenizer{}
}

func (WhitespaceTokenizer) Tokenize(message string) []string {
	if strings.TrimSpace(message) == "" {
		return []string{}
	}
	fields := strings.Fields(message)
	tokens := make([]string, 0, len(fields))
	tokens = append(tokens, fields...)
	return tokens
}

func (WhitespaceTokenizer) Description() string {
	return "Whitespace Tokenizer - Splits on whitespace characters"
}

// DefaultDelimiters are the delimiter characters used by
// DelimiterPreservingTokenizer when none are supplied.
const DefaultDelimiters = "=,:;[]{}()"

// DelimiterPreservingTokenizer splits on whitespace and a configurable set
// of delimiter characters, emitting each delimiter as its own token. Good
// for structured logs with key=value pairs.
//
// Go's regexp engine (RE2) has no lookaround, so unlike the lookahead-based
// split this strategy is modeled on, tokenization here is a direct
// character scan: a literal run is flushed whenever a delimiter or
// whitespace boundary is hit, and each delimiter becomes its own token.
type DelimiterPreservingTokenizer struct {
	delimiters string
	isDelim    [256]bool
}

// NewDelimiterPreservingTokenizer creates a tokenizer with the default
// delimiter set.
func NewDelimiterPreservingTokenizer() DelimiterPreservingTokenizer {
	return NewDelimiterPreservingTokenizerWithDelimiters(DefaultDelimiters)
}

// NewDelimiterPreservingTokenizerWithDelimiters creates a tokenizer with a
// custom delimiter set.
func NewDelimiterPreservingTokenizerWithDelimiters(delimiters string) DelimiterPreservingTokenizer {
	t := DelimiterPreservingTokenizer{delimiters: delimiters}
	for _, c := range delimiters {
		if c < 256 {
			t.isDelim[c] = true
		}
	}
	return t
}

func (t DelimiterPreservingTokenizer) Tokenize(message string) []string {
	tokens := make([]string, 0)
	if message == "" {
		return tokens
	}

	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, literal.String())
			literal.Reset()
		}
	}

	for _, r := range message {
		switch {
		case r < 256 && t.isDelim[byte(r)]:
			flush()
			tokens = append(tokens, string(r))
		case isSpace(r):
			flush()
		default:
			literal.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (t DelimiterPreservingTokenizer) Description() string {
	return "Delimiter-Preserving Tokenizer - Splits on delimiters: " + t.delimiters
}

// RegexTokenizer extracts tokens as successive matches of a regular
// expression. The most flexible option for complex log formats.
type RegexTokenizer struct {
	pattern       *regexp.Regexp
	patternString string
}

// NewRegexTokenizer creates a tokenizer that extracts tokens matching regex.
func NewRegexTokenizer(regex string) RegexTokenizer {
	return RegexTokenizer{
		pattern:       regexp.MustCompile(regex),
		patternString: regex,
	}
}

// NewDefaultRegexTokenizer creates a tokenizer matching any non-whitespace
// run, equivalent to WhitespaceTokenizer but expressed as a regex.
func NewDefaultRegexTokenizer() RegexTokenizer {
	return NewRegexTokenizer(`\S+`)
}

func (t RegexTokenizer) Tokenize(message string) []string {
	if message == "" {
		return []string{}
	}
	matches := t.pattern.FindAllString(message, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

func (t RegexTokenizer) Description() string {
	return "Regex Tokenizer - Pattern: " + t.patternString
}

// JSONTokenizer tokenizes a flat JSON object log line into keys, values,
// and punctuation. Falls back to whitespace tokenization for non-JSON
// input. This is a simplified scanner, not a JSON parser: nested objects
// and arrays are not handled.
type JSONTokenizer struct{}

// NewJSONTokenizer creates a JSONTokenizer.
func NewJSONTokenizer() JSONTokenizer {
	return JSONTokenizer{}
}

func (JSONTokenizer) Tokenize(message string) []string {
	tokens := make([]string, 0)
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return tokens
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		tokens = append(tokens, "{")
		inner := trimmed[1 : len(trimmed)-1]

		for _, pair := range splitRespectingQuotes(inner, ',') {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			kv := splitRespectingQuotes(pair, ':')
			if len(kv) >= 2 {
				key := strings.ReplaceAll(strings.TrimSpace(kv[0]), `"`, "")
				value := strings.ReplaceAll(strings.TrimSpace(kv[1]), `"`, "")
				tokens = append(tokens, key, ":", value, ",")
			}
		}

		if len(tokens) > 0 && tokens[len(tokens)-1] == "," {
			tokens = tokens[:len(tokens)-1]
		}
		tokens = append(tokens, "}")
		return tokens
	}

	for _, f := range strings.Fields(message) {
		tokens = append(tokens, f)
	}
	return tokens
}

func splitRespectingQuotes(s string, delimiter rune) []string {
	result := make([]string, 0)
	var current strings.Builder
	inQuotes := false

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '"' && (i == 0 || runes[i-1] != '\\'):
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == delimiter && !inQuotes:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

func (JSONTokenizer) Description() string {
	return "JSON Tokenizer - Extracts keys and values from JSON logs"
}
