// Package otlpintake implements the OTLP Logs gRPC service, turning each
// received LogRecord's body into a raw line fed to a logmine.Facade.
package otlpintake

import (
	"context"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// Facade is the narrow interface otlpintake depends on.
type Facade interface {
	AddLog(line string)
	AddLogs(lines []string)
}

// Server implements the OTLP LogsService, admitting every received log
// record body into a Facade.
type Server struct {
	collogspb.UnimplementedLogsServiceServer

	addr     string
	facade   Facade
	grpc     *grpc.Server
	listener net.Listener
}

// NewServer creates an OTLP logs intake server bound to addr (default
// "127.0.0.1:4317" if empty), feeding facade.
func NewServer(addr string, facade Facade) *Server {
	if addr == "" {
		addr = "127.0.0.1:4317"
	}
	return &Server{addr: addr, facade: facade}
}

// Start begins serving the OTLP LogsService in a background goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("otlpintake: listen: %w", err)
	}
	s.listener = listener

	s.grpc = grpc.NewServer()
	collogspb.RegisterLogsServiceServer(s.grpc, s)

	go func() {
		if err := s.grpc.Serve(listener); err != nil {
			log.Printf("otlpintake: serve: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() error {
	if s.grpc != nil {
		s.grpc.GracefulStop()
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

// Export implements collogspb.LogsServiceServer. The record bodies in the
// request are collected; a single body is admitted with Facade.AddLog, and
// two or more are admitted in one Facade.AddLogs call.
func (s *Server) Export(_ context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	lines := extractLines(req)
	if len(lines) == 1 {
		s.facade.AddLog(lines[0])
	} else if len(lines) > 1 {
		s.facade.AddLogs(lines)
	}
	return &collogspb.ExportLogsServiceResponse{}, nil
}

func extractLines(req *collogspb.ExportLogsServiceRequest) []string {
	var lines []string
	for _, rl := range req.GetResourceLogs() {
		for _, sl := range rl.GetScopeLogs() {
			for _, rec := range sl.GetLogRecords() {
				if line, ok := bodyToLine(rec); ok {
					lines = append(lines, line)
				}
			}
		}
	}
	return lines
}

func bodyToLine(rec *logspb.LogRecord) (string, bool) {
	body := rec.GetBody()
	if body == nil {
		return "", false
	}
	if s := body.GetStringValue(); s != "" {
		return s, true
	}
	return anyValueToString(body), body != nil
}

// anyValueToString renders a non-string AnyValue as a best-effort line,
// since the core only accepts raw strings.
func anyValueToString(v *commonpb.AnyValue) string {
	switch {
	case v.GetStringValue() != "":
		return v.GetStringValue()
	case v.GetBoolValue():
		return "true"
	case v.GetIntValue() != 0:
		return fmt.Sprintf("%d", v.GetIntValue())
	case v.GetDoubleValue() != 0:
		return fmt.Sprintf("%v", v.GetDoubleValue())
	default:
		return ""
	}
}
