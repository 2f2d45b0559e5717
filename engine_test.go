package logmine

import "testing"

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return e
}

func TestEngine_Process_ClustersSimilarLines(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.6
	e := newTestEngine(t, cfg)

	patterns := e.Process([]string{
		"user alice logged in",
		"user bob logged in",
		"user carol logged in",
	})

	if len(patterns) != 1 {
		t.Fatalf("len(patterns) = %d, want 1", len(patterns))
	}
	if patterns[0].SupportCount() != 3 {
		t.Fatalf("SupportCount() = %d, want 3", patterns[0].SupportCount())
	}
}

func TestEngine_Process_DropsClustersBelowMinSize(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.9
	cfg.MinClusterSize = 2
	e := newTestEngine(t, cfg)

	patterns := e.Process([]string{
		"user alice logged in",
		"completely unrelated line here",
	})

	if len(patterns) != 0 {
		t.Fatalf("len(patterns) = %d, want 0 (both clusters are singletons)", len(patterns))
	}
}

func TestEngine_Process_SortsBySupportDescending(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	e := newTestEngine(t, cfg)

	patterns := e.Process([]string{
		"aaa", "aaa",
		"bbb", "bbb", "bbb",
	})

	if len(patterns) != 2 {
		t.Fatalf("len(patterns) = %d, want 2", len(patterns))
	}
	if patterns[0].SupportCount() < patterns[1].SupportCount() {
		t.Fatalf("patterns not sorted by support descending: %d before %d", patterns[0].SupportCount(), patterns[1].SupportCount())
	}
}

func TestEngine_ForceAdmit_AtClusterCap(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	cfg.MaxClusters = 1
	e := newTestEngine(t, cfg)

	patterns := e.Process([]string{"completely different one", "another totally different line"})
	if len(patterns) != 1 {
		t.Fatalf("len(patterns) = %d, want 1 (capacity forces a single cluster)", len(patterns))
	}
	if patterns[0].SupportCount() != 2 {
		t.Fatalf("SupportCount() = %d, want 2", patterns[0].SupportCount())
	}
}

func TestEngine_ProcessLogIncremental_PrunesEvery100(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	cfg.MinClusterSize = 2
	e := newTestEngine(t, cfg)

	e.ProcessLogIncremental("only seen once a")
	for i := 0; i < 99; i++ {
		e.ProcessLogIncremental("repeated line shared by many")
	}

	for _, c := range e.clusters {
		if c.Size() < 2 {
			t.Fatalf("expected the 100th admission to prune singleton clusters, found size %d", c.Size())
		}
	}
}

func TestEngine_ProcessLogIncremental_ResynthesizesOnFirstAdmission(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, DefaultConfig())
	e.ProcessLogIncremental("first ever line")

	if len(e.patterns) != 1 {
		t.Fatalf("len(patterns) = %d, want 1 after the first admission", len(e.patterns))
	}
}

func TestEngine_MatchPattern_NoMatch(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	e := newTestEngine(t, cfg)
	e.Process([]string{"alpha beta gamma"})

	if p := e.MatchPattern("nothing like that at all here"); p != nil {
		t.Fatalf("MatchPattern() = %v, want nil", p)
	}
}

func TestEngine_Clear_ResetsState(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, DefaultConfig())
	e.ProcessLogIncremental("some line")
	e.Clear()

	if len(e.clusters) != 0 || len(e.patterns) != 0 || e.totalMessages != 0 {
		t.Fatalf("expected Clear() to reset all state, got clusters=%d patterns=%d total=%d",
			len(e.clusters), len(e.patterns), e.totalMessages)
	}
}

func TestEngine_GetStats(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	e := newTestEngine(t, cfg)
	e.Process([]string{"alpha beta", "alpha beta", "gamma delta"})

	stats := e.GetStats()
	if stats.ClusterCount != 2 {
		t.Fatalf("ClusterCount = %d, want 2", stats.ClusterCount)
	}
	if stats.TotalMessages != 3 {
		t.Fatalf("TotalMessages = %d, want 3", stats.TotalMessages)
	}
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 2.0
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected NewEngine to reject an invalid config")
	}
}
