package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.0")

	_, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Transport: TransportStreamableHTTP,
	})
	if err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestNewHTTPServer_UnsupportedTransport(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.0")

	_, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Addr:      ":8080",
		Transport: "websocket",
	})
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestNewHTTPServer_Transports(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("test", "0.0.0")

	for _, transport := range []string{TransportSSE, TransportStreamableHTTP} {
		t.Run(transport, func(t *testing.T) {
			srv, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
				Addr:      ":8080",
				Transport: transport,
			})
			if err != nil {
				t.Fatalf("NewHTTPServer failed: %v", err)
			}
			if srv.Addr() != ":8080" {
				t.Errorf("Addr() = %q, want %q", srv.Addr(), ":8080")
			}
		})
	}
}

func TestHTTPServer_HealthEndpoints(t *testing.T) {
	ctx := context.Background()

	sc, err := NewServerContext(ctx)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	defer sc.Shutdown()

	mcpSrv := mcpserver.NewMCPServer("test", "0.0.0")

	srv, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Addr:          "127.0.0.1:0",
		Transport:     TransportStreamableHTTP,
		HealthChecker: NewHealthChecker(sc),
	})
	if err != nil {
		t.Fatalf("NewHTTPServer failed: %v", err)
	}

	ready := make(chan struct{})
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ready:
	case err := <-serverErr:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server startup timed out")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}
