package otlpintake

import (
	"context"
	"sync"
	"testing"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

type fakeFacade struct {
	mu           sync.Mutex
	lines        []string
	addLogCalls  int
	addLogsCalls int
}

func (f *fakeFacade) AddLog(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLogCalls++
	f.lines = append(f.lines, line)
}

func (f *fakeFacade) AddLogs(lines []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLogsCalls++
	f.lines = append(f.lines, lines...)
}

func stringRecord(s string) *logspb.LogRecord {
	return &logspb.LogRecord{
		Body: &commonpb.AnyValue{
			Value: &commonpb.AnyValue_StringValue{StringValue: s},
		},
	}
}

func TestExport_SingleRecordUsesAddLog(t *testing.T) {
	t.Parallel()

	facade := &fakeFacade{}
	s := NewServer("", facade)

	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{
			{ScopeLogs: []*logspb.ScopeLogs{
				{LogRecords: []*logspb.LogRecord{stringRecord("single log line")}},
			}},
		},
	}

	if _, err := s.Export(context.Background(), req); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(facade.lines) != 1 || facade.lines[0] != "single log line" {
		t.Fatalf("lines = %v, want [\"single log line\"]", facade.lines)
	}
	if facade.addLogCalls != 1 || facade.addLogsCalls != 0 {
		t.Fatalf("AddLog calls = %d, AddLogs calls = %d, want 1 and 0", facade.addLogCalls, facade.addLogsCalls)
	}
}

func TestExport_MultipleRecordsUsesAddLogs(t *testing.T) {
	t.Parallel()

	facade := &fakeFacade{}
	s := NewServer("", facade)

	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{
			{ScopeLogs: []*logspb.ScopeLogs{
				{LogRecords: []*logspb.LogRecord{
					stringRecord("line one"),
					stringRecord("line two"),
				}},
			}},
		},
	}

	if _, err := s.Export(context.Background(), req); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(facade.lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(facade.lines))
	}
	if facade.addLogCalls != 0 || facade.addLogsCalls != 1 {
		t.Fatalf("AddLog calls = %d, AddLogs calls = %d, want 0 and 1", facade.addLogCalls, facade.addLogsCalls)
	}
}

func TestExport_EmptyRequestAdmitsNothing(t *testing.T) {
	t.Parallel()

	facade := &fakeFacade{}
	s := NewServer("", facade)

	if _, err := s.Export(context.Background(), &collogspb.ExportLogsServiceRequest{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(facade.lines) != 0 {
		t.Fatalf("lines = %v, want empty", facade.lines)
	}
}

func TestNewServer_DefaultAddr(t *testing.T) {
	t.Parallel()

	s := NewServer("", &fakeFacade{})
	if got := s.Addr(); got != "127.0.0.1:4317" {
		t.Fatalf("Addr() = %q, want %q", got, "127.0.0.1:4317")
	}
}
