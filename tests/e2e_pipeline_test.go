package tests

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/logmine"
	"github.com/tinytelemetry/logmine/internal/httpserver"
	"github.com/tinytelemetry/logmine/internal/tcpintake"
)

type e2eStack struct {
	facade  *logmine.Facade
	api     *httpserver.Server
	tcp     *tcpintake.Server
	apiAddr string
}

func startE2EStack(t *testing.T) *e2eStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	facade, err := logmine.NewFacade(logmine.DefaultConfig(), logmine.Streaming, 0)
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}

	api := httpserver.NewServer("127.0.0.1:0", facade)
	if err := api.Start(); err != nil {
		t.Fatalf("http Start: %v", err)
	}

	tcp := tcpintake.NewServer("127.0.0.1:0", facade)
	if err := tcp.Start(); err != nil {
		t.Fatalf("tcp Start: %v", err)
	}

	stack := &e2eStack{facade: facade, api: api, tcp: tcp, apiAddr: api.Addr()}

	waitEventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		resp, err := http.Get("http://" + stack.apiAddr + "/api/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, "api health endpoint did not become ready")

	t.Cleanup(func() {
		_ = stack.tcp.Stop()
		_ = stack.api.Stop()
	})

	return stack
}

func waitEventually(t *testing.T, timeout, interval time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("eventually timeout: %s", msg)
		}
		time.Sleep(interval)
	}
}

func sendTCPLines(t *testing.T, addr string, lines []string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		t.Fatalf("dial tcp %s: %v", addr, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	w := bufio.NewWriterSize(conn, 256*1024)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			t.Fatalf("write line: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func generateVariedBurst(n int, prefix string) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("%s user=%d connected from 10.0.0.%d", prefix, i, i%256))
	}
	return lines
}

type statsResponse struct {
	TotalMessages int64 `json:"total_messages"`
	PatternCount  int   `json:"pattern_count"`
}

func fetchStats(t *testing.T, addr string) statsResponse {
	t.Helper()
	resp, err := http.Get("http://" + addr + "/api/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()
	var out statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return out
}

func waitForMessageCount(t *testing.T, addr string, expected int64, timeout time.Duration) {
	t.Helper()
	waitEventually(t, timeout, 20*time.Millisecond, func() bool {
		return fetchStats(t, addr).TotalMessages == expected
	}, fmt.Sprintf("expected total_messages %d", expected))
}

func TestE2E_Pipeline_TCPToHTTP(t *testing.T) {
	stack := startE2EStack(t)
	lines := []string{
		"2026-02-25T10:00:00Z INFO payment created for order 1001",
		"2026-02-25T10:00:01Z INFO payment created for order 1002",
		"2026-02-25T10:00:02Z ERROR search timeout after 30s",
	}

	sendTCPLines(t, stack.tcp.Addr(), lines)
	waitForMessageCount(t, stack.apiAddr, int64(len(lines)), 8*time.Second)

	resp, err := http.Get("http://" + stack.apiAddr + "/api/patterns")
	if err != nil {
		t.Fatalf("get patterns: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patterns status=%d", resp.StatusCode)
	}
	var patterns struct {
		Patterns []map[string]any `json:"patterns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&patterns); err != nil {
		t.Fatalf("decode patterns: %v", err)
	}
	if len(patterns.Patterns) == 0 {
		t.Fatalf("expected at least one pattern, got none")
	}

	matchBody, _ := json.Marshal(map[string]string{"line": "2026-02-25T10:05:00Z INFO payment created for order 9999"})
	matchResp, err := http.Post("http://"+stack.apiAddr+"/api/match", "application/json", bytes.NewReader(matchBody))
	if err != nil {
		t.Fatalf("post match: %v", err)
	}
	defer matchResp.Body.Close()
	var matched map[string]any
	if err := json.NewDecoder(matchResp.Body).Decode(&matched); err != nil {
		t.Fatalf("decode match: %v", err)
	}
	if matched["matched"] != true {
		t.Fatalf("expected a matched pattern for a similar line, got %v", matched)
	}
}

func TestE2E_BurstIngest_NoLoss(t *testing.T) {
	stack := startE2EStack(t)

	const total = 4000
	lines := generateVariedBurst(total, "load-test")
	sendTCPLines(t, stack.tcp.Addr(), lines)

	waitForMessageCount(t, stack.apiAddr, total, 20*time.Second)
}

func TestE2E_ConcurrentReadsDuringIngest(t *testing.T) {
	stack := startE2EStack(t)

	const total = 2000
	lines := generateVariedBurst(total, "concurrency-test")

	var wg sync.WaitGroup
	errCh := make(chan error, 64)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 60; j++ {
				resp, err := http.Get("http://" + stack.apiAddr + "/api/stats")
				if err != nil {
					errCh <- fmt.Errorf("stats request: %w", err)
					return
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCh <- fmt.Errorf("stats status=%d", resp.StatusCode)
					return
				}
			}
		}()
	}

	sendTCPLines(t, stack.tcp.Addr(), lines)
	waitForMessageCount(t, stack.apiAddr, total, 20*time.Second)

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent read failure: %v", err)
		}
	}
}
