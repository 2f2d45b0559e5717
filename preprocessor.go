package logmine

import (
	"regexp"
	"strings"
)

// Regex patterns compiled once, ported from LogPreprocessor's Java
// originals. Go's RE2 engine supports the ASCII word-boundary and
// non-capturing-group syntax these rely on, so no lookaround rewrite is
// needed here (contrast strategy.DelimiterPreservingTokenizer).
var (
	timestampPattern = regexp.MustCompile(
		`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d{3,9})?(?:Z|[+-]\d{2}:\d{2})?` +
			`|[A-Z][a-z]{2}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}` +
			`|\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2}\s+[+-]\d{4}` +
			`|\b1[67]\d{8}\b` +
			`|\[\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}(?:\.\d{3,9})?]` +
			`|\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}(?:\.\d{3,9})?`)

	ipv4Pattern = regexp.MustCompile(
		`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)

	ipv6Pattern = regexp.MustCompile(
		`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b` +
			`|\b(?:[0-9a-fA-F]{1,4}:){1,7}:\b` +
			`|\b::(?:[0-9a-fA-F]{1,4}:){0,6}[0-9a-fA-F]{1,4}\b`)

	preprocessNumberPattern = regexp.MustCompile(`\b\d{4,}\b|\b\d+\.\d+\b`)

	pathPattern = regexp.MustCompile(
		`/(?:[a-zA-Z0-9_.-]+/){2,}[a-zA-Z0-9_.-]*` +
			`|[A-Z]:\\(?:[^\\/:*?"<>|\r\n]+\\)+[^\\/:*?"<>|\r\n]*`)

	urlPattern = regexp.MustCompile(`\b(?:https?|ftp)://[^\s/$.?#][^\s]*\b`)
)

// Preprocess applies the configured normalization stages to rawMessage, in
// the mandatory order: timestamps, URLs, paths, IPs (v6 before v4),
// numbers, then case folding. Each stage assumes earlier replacements have
// already been applied. An empty input is returned unchanged.
func Preprocess(rawMessage string, cfg Config) string {
	if rawMessage == "" {
		return rawMessage
	}

	processed := rawMessage

	if cfg.NormalizeTimestamps {
		processed = timestampPattern.ReplaceAllString(processed, "TIMESTAMP")
	}
	if cfg.NormalizeUrls {
		processed = urlPattern.ReplaceAllString(processed, "URL")
	}
	if cfg.NormalizePaths {
		processed = pathPattern.ReplaceAllString(processed, "PATH")
	}
	if cfg.NormalizeIPs {
		processed = ipv6Pattern.ReplaceAllString(processed, "IP_ADDR")
		processed = ipv4Pattern.ReplaceAllString(processed, "IP_ADDR")
	}
	if cfg.NormalizeNumbers {
		processed = preprocessNumberPattern.ReplaceAllString(processed, "NUM")
	}
	if !cfg.CaseSensitive {
		processed = strings.ToLower(processed)
	}

	return processed
}

// PreprocessBatch preprocesses every line in rawMessages, preserving order.
func PreprocessBatch(rawMessages []string, cfg Config) []string {
	if rawMessages == nil {
		return nil
	}
	out := make([]string, len(rawMessages))
	for i, line := range rawMessages {
		out[i] = Preprocess(line, cfg)
	}
	return out
}

// needsPreprocessing reports whether any normalization flag is set; when
// none are, the engine may skip the preprocessing pass entirely.
func needsPreprocessing(cfg Config) bool {
	return cfg.NormalizeTimestamps || cfg.NormalizeUrls || cfg.NormalizePaths ||
		cfg.NormalizeIPs || cfg.NormalizeNumbers || !cfg.CaseSensitive
}
