package logmine

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
)

var wildcardShapePattern = regexp.MustCompile(`^<[^>]+>$`)

// isRecognizedWildcard reports whether a token should be treated as a
// wildcard for identity purposes: the canonical sentinel, the bare `*`,
// `<*>`, or any `<...>` shape.
func isRecognizedWildcard(token string) bool {
	switch token {
	case Wildcard, "*", "<*>":
		return true
	}
	return wildcardShapePattern.MatchString(token)
}

// canonicalizeForIdentity replaces every recognized wildcard token with the
// literal `*`, so that different synthesis conventions collapse to the
// same identity.
func canonicalizeForIdentity(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if isRecognizedWildcard(t) {
			out[i] = "*"
		} else {
			out[i] = t
		}
	}
	return out
}

// identifyPattern computes a pattern's id, short id, and signature from its
// token sequence.
func identifyPattern(tokens []string) (id, shortID, signature string) {
	canonical := canonicalizeForIdentity(tokens)
	sum := sha256.Sum256([]byte(strings.Join(canonical, "\x00")))
	id = base64.RawURLEncoding.EncodeToString(sum[:])

	shortID = id
	if len(shortID) > 16 {
		shortID = shortID[:16]
	}

	signature = strings.Join(tokens, " ")
	return id, shortID, signature
}

// CompositeKey scopes a pattern to the source and environment it was
// observed in, for multi-tenant pattern storage. Reinstated from the
// original PatternIdentifier.CompositeKey record, which the distilled
// pattern-identity rules keep only the string renderings of.
type CompositeKey struct {
	PatternID   string
	Signature   string
	Source      string
	Environment string
}

// NewCompositeKey builds a CompositeKey for a pattern observed under the
// given source and environment.
func NewCompositeKey(pattern *Pattern, source, environment string) CompositeKey {
	return CompositeKey{
		PatternID:   pattern.PatternID(),
		Signature:   pattern.Signature(),
		Source:      source,
		Environment: environment,
	}
}

// StorageKey renders the key as used for multi-tenant persistence:
// "{PatternID}:{Source}:{Environment}". The signature is not part of this
// rendering.
func (k CompositeKey) StorageKey() string {
	return k.PatternID + ":" + k.Source + ":" + k.Environment
}

// GlobalKey renders the key as used for cross-tenant pattern dedup: the
// bare pattern id.
func (k CompositeKey) GlobalKey() string {
	return k.PatternID
}
