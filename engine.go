// Package logmine clusters unstructured log lines into patterns by
// similarity, synthesizing a wildcarded template for each cluster and
// identifying it with a content-addressed id. It supports both batch
// analysis and incremental streaming ingestion through Facade.
package logmine

import "sort"

const (
	pruneInterval    = 100
	resyncInterval   = 50
	relaxedThreshold = 0.8 // documented placeholder; force-admit ignores it (see ForceAdmit)
)

// Engine is the online/batch clustering core: it tokenizes input lines,
// clusters them by similarity, and synthesizes patterns from surviving
// clusters. An Engine owns its clusters exclusively; clusters own their
// messages exclusively.
type Engine struct {
	config        Config
	clusters      []*Cluster
	patterns      []*Pattern
	totalMessages int
}

// NewEngine constructs an Engine from a validated configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.config }

func (e *Engine) buildMessage(line string) *Message {
	processed := line
	if needsPreprocessing(e.config) {
		processed = Preprocess(line, e.config)
	}
	tokens := e.config.Tokenizer.Tokenize(processed)
	return NewMessage(line, processed, tokens, e.config.VariableDetector)
}

// admit runs the online clustering admission procedure for a single
// message: try every existing cluster in order, append a new cluster if
// there is room, or force-merge into the closest cluster at capacity.
func (e *Engine) admit(m *Message) {
	for _, c := range e.clusters {
		if c.TryAdmit(m, e.config.SimilarityThreshold) {
			return
		}
	}

	if len(e.clusters) < e.config.MaxClusters {
		e.clusters = append(e.clusters, NewCluster(m, e.config.VariableDetector))
		return
	}

	best := e.clusters[0]
	bestSim := best.SimilarityTo(m)
	for _, c := range e.clusters[1:] {
		if sim := c.SimilarityTo(m); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	best.ForceAdmit(m)
}

// Process runs a full batch clustering pass over lines and returns the
// surviving patterns sorted by support count descending.
func (e *Engine) Process(lines []string) []*Pattern {
	e.clusters = nil

	for _, line := range lines {
		m := e.buildMessage(line)
		e.admit(m)
	}

	surviving := e.clusters[:0:0]
	for _, c := range e.clusters {
		if c.Size() >= e.config.MinClusterSize {
			surviving = append(surviving, c)
		}
	}
	e.clusters = surviving

	patterns := make([]*Pattern, 0, len(e.clusters))
	for _, c := range e.clusters {
		patterns = append(patterns, c.Pattern())
	}
	sortPatternsBySupport(patterns)
	e.patterns = patterns

	return copyPatterns(e.patterns)
}

// ProcessLogIncremental admits a single line into the persistent cluster
// state, pruning and re-synthesizing patterns on the schedule described in
// spec.md §4.8.
func (e *Engine) ProcessLogIncremental(line string) {
	m := e.buildMessage(line)
	e.admit(m)
	e.totalMessages++

	if e.totalMessages%pruneInterval == 0 {
		e.prune()
	}

	if len(e.patterns) == 0 || (e.totalMessages > 0 && e.totalMessages%resyncInterval == 0) {
		e.resynthesize()
	}
}

func (e *Engine) prune() {
	surviving := e.clusters[:0:0]
	for _, c := range e.clusters {
		if c.Size() >= e.config.MinClusterSize {
			surviving = append(surviving, c)
		}
	}
	e.clusters = surviving
}

func (e *Engine) resynthesize() {
	patterns := make([]*Pattern, 0, len(e.clusters))
	for _, c := range e.clusters {
		patterns = append(patterns, c.Pattern())
	}
	sortPatternsBySupport(patterns)
	e.patterns = patterns
}

// MatchPattern preprocesses and tokenizes line, then returns the first
// current pattern (in current sort order) whose Matches predicate holds.
// Returns nil if no pattern matches.
func (e *Engine) MatchPattern(line string) *Pattern {
	m := e.buildMessage(line)
	for _, p := range e.patterns {
		if p.Matches(m) {
			return p
		}
	}
	return nil
}

// CurrentPatterns returns a defensive copy of the engine's cached pattern
// list.
func (e *Engine) CurrentPatterns() []*Pattern {
	return copyPatterns(e.patterns)
}

// Clear drops all clusters, messages, and cached patterns, and resets the
// admission counter to zero.
func (e *Engine) Clear() {
	e.clusters = nil
	e.patterns = nil
	e.totalMessages = 0
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	TotalMessages             int
	ClusterCount              int
	PatternCount              int
	AverageClusterSize        float64
	AveragePatternSpecificity float64
}

// GetStats computes a Stats snapshot from the engine's current live
// clusters and cached patterns.
func (e *Engine) GetStats() Stats {
	stats := Stats{
		ClusterCount: len(e.clusters),
		PatternCount: len(e.patterns),
	}

	total := 0
	for _, c := range e.clusters {
		total += c.Size()
	}
	stats.TotalMessages = total
	if len(e.clusters) > 0 {
		stats.AverageClusterSize = float64(total) / float64(len(e.clusters))
	}

	if len(e.patterns) > 0 {
		sum := 0.0
		for _, p := range e.patterns {
			sum += p.Specificity()
		}
		stats.AveragePatternSpecificity = sum / float64(len(e.patterns))
	}

	return stats
}

func sortPatternsBySupport(patterns []*Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].SupportCount() > patterns[j].SupportCount()
	})
}

func copyPatterns(patterns []*Pattern) []*Pattern {
	out := make([]*Pattern, len(patterns))
	copy(out, patterns)
	return out
}
