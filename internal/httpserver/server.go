// Package httpserver exposes a read-only JSON API over a logmine.Facade,
// plus a single mutating ingest endpoint.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/logmine"
)

// Facade is the subset of *logmine.Facade the HTTP layer depends on.
type Facade interface {
	GetCurrentPatterns() []*logmine.Pattern
	MatchPattern(line string) *logmine.Pattern
	GetStats() logmine.Stats
	GetLogCount() int
	ExtractHierarchicalPatterns() []*logmine.HierarchicalNode
	AddLogs(lines []string)
}

// Server provides a read-only HTTP API over a Facade's pattern snapshot,
// plus a single mutating ingest endpoint.
type Server struct {
	addr      string
	facade    Facade
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server bound to addr (default
// "0.0.0.0:3000" if empty), serving facade.
func NewServer(addr string, facade Facade) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		facade: facade,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/patterns", s.handlePatterns)
	r.GET("/api/patterns/:id", s.handlePatternByID)
	r.GET("/api/stats", s.handleStats)
	r.GET("/api/hierarchy", s.handleHierarchy)
	r.POST("/api/match", s.handleMatch)
	r.POST("/api/ingest", s.handleIngest)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen: %w", err)
	}
	s.listener = listener

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	return nil
}

// Addr returns the active listen address. Before Start, it returns the
// configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).String(),
		"total_messages": s.facade.GetLogCount(),
	})
}

func patternJSON(p *logmine.Pattern) gin.H {
	return gin.H{
		"pattern_id":    p.PatternID(),
		"short_id":      p.ShortID(),
		"signature":     p.Signature(),
		"tokens":        p.Tokens(),
		"support_count": p.SupportCount(),
		"specificity":   p.Specificity(),
	}
}

func (s *Server) handlePatterns(c *gin.Context) {
	patterns := s.facade.GetCurrentPatterns()
	out := make([]gin.H, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, patternJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"patterns": out, "count": len(out)})
}

func (s *Server) handlePatternByID(c *gin.Context) {
	id := c.Param("id")
	for _, p := range s.facade.GetCurrentPatterns() {
		if p.PatternID() == id || p.ShortID() == id {
			c.JSON(http.StatusOK, patternJSON(p))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "pattern not found"})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.facade.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"total_messages":              stats.TotalMessages,
		"cluster_count":               stats.ClusterCount,
		"pattern_count":                stats.PatternCount,
		"average_cluster_size":        stats.AverageClusterSize,
		"average_pattern_specificity": stats.AveragePatternSpecificity,
	})
}

func hierarchyNodeJSON(n *logmine.HierarchicalNode) gin.H {
	children := make([]gin.H, 0, len(n.Children()))
	for _, child := range n.Children() {
		children = append(children, hierarchyNodeJSON(child))
	}
	leaves := make([]string, 0, len(n.LeafPatterns()))
	for _, p := range n.LeafPatterns() {
		leaves = append(leaves, p.PatternID())
	}
	return gin.H{
		"level":            n.Level(),
		"threshold":        n.Threshold(),
		"pattern":          patternJSON(n.Pattern()),
		"descendant_count": n.DescendantCount(),
		"leaf_pattern_ids": leaves,
		"children":         children,
	}
}

func (s *Server) handleHierarchy(c *gin.Context) {
	roots := s.facade.ExtractHierarchicalPatterns()
	out := make([]gin.H, 0, len(roots))
	for _, r := range roots {
		out = append(out, hierarchyNodeJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"roots": out, "root_count": len(out)})
}

func (s *Server) handleMatch(c *gin.Context) {
	var req struct {
		Line string `json:"line" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := s.facade.MatchPattern(req.Line)
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"matched": false})
		return
	}
	resp := patternJSON(p)
	resp["matched"] = true
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIngest(c *gin.Context) {
	var req struct {
		Lines []string `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lines must not be empty"})
		return
	}

	s.facade.AddLogs(req.Lines)
	c.JSON(http.StatusAccepted, gin.H{"ingested": len(req.Lines)})
}
