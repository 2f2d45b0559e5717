package logmine

import "github.com/tinytelemetry/logmine/strategy"

// Message is an immutable, tokenized log line paired with the variable
// detector used to compare it against other messages.
type Message struct {
	raw       string
	processed string
	tokens    []string
	detector  strategy.VariableDetector
}

// NewMessage constructs a Message, taking ownership of tokens.
func NewMessage(raw, processed string, tokens []string, detector strategy.VariableDetector) *Message {
	owned := make([]string, len(tokens))
	copy(owned, tokens)
	return &Message{
		raw:       raw,
		processed: processed,
		tokens:    owned,
		detector:  detector,
	}
}

// Raw returns the original, unprocessed log line.
func (m *Message) Raw() string { return m.raw }

// Processed returns the normalized line the message was tokenized from.
func (m *Message) Processed() string { return m.processed }

// Tokens returns the message's token sequence. Callers must not mutate it.
func (m *Message) Tokens() []string { return m.tokens }

// Length returns the number of tokens.
func (m *Message) Length() int { return len(m.tokens) }

// EditDistance computes the token-level Wagner-Fischer edit distance
// between this message and other, using the detector's TokensMatch as the
// equality predicate. Substitution, insertion, and deletion each cost 1.
func (m *Message) EditDistance(other *Message) int {
	a, b := m.tokens, other.tokens
	n, k := len(a), len(b)

	if n == 0 {
		return k
	}
	if k == 0 {
		return n
	}

	prev := make([]int, k+1)
	curr := make([]int, k+1)
	for j := 0; j <= k; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= k; j++ {
			cost := 1
			if m.detector.TokensMatch(a[i-1], b[j-1]) {
				cost = 0
			}
			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost
			curr[j] = min3(deletion, insertion, substitution)
		}
		prev, curr = curr, prev
	}

	return prev[k]
}

// Similarity returns 1.0 - EditDistance/max(len) as a ratio in [0, 1].
// Two zero-length messages are defined as fully similar.
func (m *Message) Similarity(other *Message) float64 {
	maxLen := max(len(m.tokens), len(other.tokens))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(m.EditDistance(other))/float64(maxLen)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
