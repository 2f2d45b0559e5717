package logmine

import "github.com/tinytelemetry/logmine/strategy"

// Cluster groups messages admitted as similar enough to a shared
// representative. The representative is fixed at creation and never
// replaced; a cached pattern synthesized from the current members is
// invalidated on every admission.
type Cluster struct {
	members        []*Message
	representative *Message
	detector       strategy.VariableDetector
	cachedPattern  *Pattern
}

// NewCluster creates a cluster seeded with first as both its sole member
// and its representative.
func NewCluster(first *Message, detector strategy.VariableDetector) *Cluster {
	return &Cluster{
		members:        []*Message{first},
		representative: first,
		detector:       detector,
	}
}

// TryAdmit admits msg if its similarity to the representative meets
// threshold. Admission appends msg and invalidates the cached pattern.
func (c *Cluster) TryAdmit(msg *Message, threshold float64) bool {
	if c.representative.Similarity(msg) >= threshold {
		c.members = append(c.members, msg)
		c.cachedPattern = nil
		return true
	}
	return false
}

// SimilarityTo returns the representative's similarity to msg, used when
// selecting the best forced-merge target.
func (c *Cluster) SimilarityTo(msg *Message) float64 {
	return c.representative.Similarity(msg)
}

// ForceAdmit appends msg unconditionally, invalidating the cached pattern.
// Used when a cluster must accept an overflow message regardless of
// threshold.
func (c *Cluster) ForceAdmit(msg *Message) {
	c.members = append(c.members, msg)
	c.cachedPattern = nil
}

// Pattern returns the cluster's synthesized pattern, computing and caching
// it on first access after the last invalidating admission.
func (c *Cluster) Pattern() *Pattern {
	if c.cachedPattern == nil {
		c.cachedPattern = SynthesizePattern(c.members, c.detector)
	}
	return c.cachedPattern
}

// Size returns the number of members currently in the cluster.
func (c *Cluster) Size() int {
	return len(c.members)
}

// Members returns the cluster's messages in admission order. Callers must
// not mutate the returned slice.
func (c *Cluster) Members() []*Message {
	return c.members
}
