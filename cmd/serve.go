package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"mcal/internal/google"
	"mcal/internal/instrumentation"
	"mcal/internal/resources"
	"mcal/internal/server"
	"mcal/internal/tools/auth_tools"
	"mcal/internal/tools/calendar_tools"
)

// Token store backend types.
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// TokenStoreConfig holds OAuth token storage backend configuration
type TokenStoreConfig struct {
	// Type is the storage backend type: "file" or "sqlite" (default: "file")
	Type string

	// Path is the SQLite database path (used when Type is "sqlite").
	// Defaults to tokens.db in the user cache directory.
	Path string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		tokenStore     string
		tokenDB        string
		accounts       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Calendar
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

OAuth Configuration:
  Client credentials are read from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
  environment variables (a .env file in the working directory is loaded if
  present). Per-account tokens are obtained with "mcal auth" or the
  get_auth_url / save_auth_code tools.

Token Storage:
  By default tokens are stored as files in the user cache directory.
  Use --token-store sqlite to keep all accounts in a single SQLite database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load token store config from environment if not set via flags
			if !cmd.Flags().Changed("token-store") {
				if storeType := os.Getenv("MCAL_TOKEN_STORE"); storeType != "" {
					tokenStore = storeType
				}
			}
			if tokenDB == "" {
				tokenDB = os.Getenv("MCAL_TOKEN_DB")
			}

			storeConfig := TokenStoreConfig{
				Type: tokenStore,
				Path: tokenDB,
			}

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(transport, debugMode, httpAddr, storeConfig, parseCommaSeparatedList(accounts), metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio, sse or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&tokenStore, "token-store", TokenStoreFile, "Token storage backend: file or sqlite. Can also use MCAL_TOKEN_STORE env var.")
	cmd.Flags().StringVar(&tokenDB, "token-db", "", "SQLite token database path (for --token-store sqlite). Can also use MCAL_TOKEN_DB env var.")
	cmd.Flags().StringVar(&accounts, "accounts", "", "Comma-separated account names to create calendar clients for at startup (e.g., work,personal)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr string, storeConfig TokenStoreConfig, warmAccounts []string, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Route logs to stderr so stdio transport keeps stdout clean for MCP
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Load metrics config from environment if not set via flags
	if !metricsConfig.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			metricsConfig.Enabled = true
		}
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Create the token provider for the configured storage backend
	tokenProvider, closeProvider, err := newTokenProvider(storeConfig)
	if err != nil {
		return err
	}
	if closeProvider != nil {
		defer func() {
			if err := closeProvider(); err != nil {
				slog.Warn("failed to close token store", "error", err)
			}
		}()
	}

	// Create server context
	serverContext, err := server.NewServerContextWithProvider(shutdownCtx, tokenProvider)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Create calendar clients up front for accounts named on the command
	// line, so the first tool call doesn't pay the client setup cost
	for _, account := range warmAccounts {
		if !tokenProvider.HasTokenForAccount(account) {
			slog.Warn("no stored token for account, skipping client setup", "account", account)
			continue
		}
		serverContext.CalendarClientForAccount(account)
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("mcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// Register all tools and resources
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case server.TransportSSE, server.TransportStreamableHTTP:
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, transport, httpAddr, provider, metricsConfig)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", transport)
	}
}

// newTokenProvider creates the token provider for the configured backend.
// The returned close function is nil for backends without resources to
// release.
func newTokenProvider(config TokenStoreConfig) (google.TokenProvider, func() error, error) {
	switch config.Type {
	case TokenStoreFile, "":
		return google.NewFileTokenProvider(), nil, nil
	case TokenStoreSQLite:
		path := config.Path
		if path == "" {
			path = google.DefaultTokenDBPath()
		}
		provider, err := google.NewSQLiteTokenProvider(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite token store: %w", err)
		}
		return provider, provider.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported token store type: %s (supported: file, sqlite)", config.Type)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	// Define all tool registrations
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx)
			},
		},
		{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, ctx)
			},
		},
		{
			name: "Calendar Resources",
			register: func() error {
				return resources.RegisterCalendarResources(mcpSrv, ctx)
			},
		},
	}

	// Register all tools
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, transport, addr string, instrProvider *instrumentation.Provider, metricsConfig MetricsConfig) error {
	var metrics *instrumentation.Metrics
	if instrProvider != nil && instrProvider.Enabled() {
		metrics = instrProvider.Metrics()
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:          addr,
		Transport:     transport,
		HealthChecker: server.NewHealthChecker(serverContext),
		Metrics:       metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("Starting mcal MCP server with %s transport on %s\n", transport, addr)
	if transport == server.TransportSSE {
		fmt.Printf("  SSE endpoint: /sse\n")
		fmt.Printf("  Message endpoint: /message\n")
	} else {
		fmt.Printf("  HTTP endpoint: /mcp\n")
	}
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	if metricsConfig.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsConfig.Addr)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
