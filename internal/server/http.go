package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/instrumentation"
)

// HTTP transport types supported by the HTTP server.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	// Addr is the address to bind the server to (e.g., ":8080").
	Addr string

	// Transport selects the MCP transport: "sse" or "streamable-http".
	Transport string

	// HealthChecker registers /healthz and /readyz endpoints when set.
	HealthChecker *HealthChecker

	// Metrics records HTTP request metrics when set.
	Metrics *instrumentation.Metrics
}

// HTTPServer serves the MCP protocol over HTTP alongside health endpoints.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	transport  string
}

// NewHTTPServer creates an HTTP server exposing the given MCP server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("server address is required")
	}

	mux := http.NewServeMux()

	switch config.Transport {
	case TransportSSE:
		sseServer := mcpserver.NewSSEServer(mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", withHTTPMetrics(config.Metrics, sseServer))
		mux.Handle("/message", withHTTPMetrics(config.Metrics, sseServer))

	case TransportStreamableHTTP:
		streamServer := mcpserver.NewStreamableHTTPServer(mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", withHTTPMetrics(config.Metrics, streamServer))

	default:
		return nil, fmt.Errorf("unsupported transport: %s", config.Transport)
	}

	if config.HealthChecker != nil {
		config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		addr:      config.Addr,
		transport: config.Transport,
	}, nil
}

// Start starts the HTTP server in a blocking manner.
func (s *HTTPServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal starts the HTTP server and closes the ready channel
// once the listener is bound.
func (s *HTTPServer) StartWithReadySignal(ready chan<- struct{}) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	slog.Info("starting MCP HTTP server",
		"addr", listener.Addr().String(),
		"transport", s.transport,
	)
	if ready != nil {
		close(ready)
	}

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down MCP HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the HTTP server.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// withHTTPMetrics wraps a handler to record request counts and durations.
// Returns the handler unchanged when metrics are nil.
func withHTTPMetrics(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, recorder.status, time.Since(start))
	})
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so streaming responses work.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
