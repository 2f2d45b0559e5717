package logmine

import (
	"slices"

	"github.com/tinytelemetry/logmine/strategy"
)

// Wildcard is the sentinel pattern token standing in for a variable
// position.
const Wildcard = "***"

// Pattern is an immutable record of a cluster's synthesized structure: a
// token sequence mixing literals and wildcard positions, plus the identity
// and specificity derived from it.
type Pattern struct {
	tokens       []string
	supportCount int
	patternID    string
	shortID      string
	signature    string
	specificity  float64
}

// SynthesizePattern builds a Pattern from an ordered member list, per the
// single-member / multi-member synthesis rules.
func SynthesizePattern(members []*Message, detector strategy.VariableDetector) *Pattern {
	switch len(members) {
	case 0:
		return newPattern(nil, 0)
	case 1:
		return synthesizeSingle(members[0], detector)
	default:
		return synthesizeMulti(members, detector)
	}
}

func synthesizeSingle(m *Message, detector strategy.VariableDetector) *Pattern {
	tokens := make([]string, len(m.Tokens()))
	for i, tok := range m.Tokens() {
		if detector.IsVariable(tok) {
			tokens[i] = Wildcard
		} else {
			tokens[i] = tok
		}
	}
	return newPattern(tokens, 1)
}

func synthesizeMulti(members []*Message, detector strategy.VariableDetector) *Pattern {
	template := members[0].Tokens()
	tokens := make([]string, len(template))

	for i, t := range template {
		variable := detector.IsVariable(t)
		if !variable {
			for _, other := range members[1:] {
				if i >= other.Length() || t != other.Tokens()[i] {
					variable = true
					break
				}
			}
		}
		if variable {
			tokens[i] = Wildcard
		} else {
			tokens[i] = t
		}
	}

	return newPattern(tokens, len(members))
}

func newPattern(tokens []string, support int) *Pattern {
	owned := make([]string, len(tokens))
	copy(owned, tokens)

	nonWildcard := 0
	for _, t := range owned {
		if t != Wildcard {
			nonWildcard++
		}
	}
	specificity := 0.0
	if len(owned) > 0 {
		specificity = float64(nonWildcard) / float64(len(owned))
	}

	id, shortID, signature := identifyPattern(owned)

	return &Pattern{
		tokens:       owned,
		supportCount: support,
		patternID:    id,
		shortID:      shortID,
		signature:    signature,
		specificity:  specificity,
	}
}

// Tokens returns the pattern's token sequence. Callers must not mutate it.
func (p *Pattern) Tokens() []string { return p.tokens }

// SupportCount returns the number of messages synthesized into this
// pattern.
func (p *Pattern) SupportCount() int { return p.supportCount }

// PatternID returns the pattern's content-addressed identifier (see
// identifyPattern).
func (p *Pattern) PatternID() string { return p.patternID }

// ShortID returns the first 16 characters of PatternID.
func (p *Pattern) ShortID() string { return p.shortID }

// Signature returns the pattern's tokens joined with single spaces,
// uncanonicalized.
func (p *Pattern) Signature() string { return p.signature }

// Specificity returns the ratio of non-wildcard tokens to total tokens.
func (p *Pattern) Specificity() float64 { return p.specificity }

// Matches reports whether message aligns with this pattern: equal length,
// and every position is either the wildcard sentinel or an exact literal
// match.
func (p *Pattern) Matches(message *Message) bool {
	tokens := message.Tokens()
	if len(tokens) != len(p.tokens) {
		return false
	}
	for i, pt := range p.tokens {
		if pt == Wildcard {
			continue
		}
		if pt != tokens[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two patterns have identical token sequences,
// regardless of support count.
func (p *Pattern) Equal(other *Pattern) bool {
	return slices.Equal(p.tokens, other.tokens)
}
