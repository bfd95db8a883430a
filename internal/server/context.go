package server

import (
	"context"
	"log/slog"
	"sync"

	"mcal/internal/calendar"
	"mcal/internal/google"
	"mcal/internal/instrumentation"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	calendarClients map[string]*calendar.Client // Maps account name to calendar client
	tokenProvider   google.TokenProvider
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context using file-based tokens.
func NewServerContext(ctx context.Context) (*ServerContext, error) {
	return NewServerContextWithProvider(ctx, &google.FileTokenProvider{})
}

// NewServerContextWithProvider creates a new server context using the given
// token provider for calendar client construction.
func NewServerContextWithProvider(ctx context.Context, provider google.TokenProvider) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: make(map[string]*calendar.Client),
		tokenProvider:   provider,
		shutdown:        false,
	}

	// Try to create the default calendar client, but don't fail if the token
	// is missing. Clients are lazily initialized when first needed.
	if provider.HasTokenForAccount("default") {
		sc.CalendarClientForAccount("default")
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClientForAccount returns the calendar client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Check if client already exists
	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	// Try to create client if token exists
	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil
	}

	client, err := calendar.NewObservedClientForAccount(sc.ctx, account, sc.tokenProvider, sc.refreshObserver())
	if err != nil {
		slog.Warn("failed to create calendar client", "account", account, "error", err)
		return nil
	}

	sc.calendarClients[account] = client
	return client
}

// refreshObserver returns a token refresh observer that feeds the
// oauth_token_refresh_total metric. Safe to call before metrics are set;
// the observer reads the current metrics on every refresh.
func (sc *ServerContext) refreshObserver() calendar.RefreshObserver {
	return func(err error) {
		m := sc.Metrics()
		if m == nil {
			return
		}
		result := instrumentation.OAuthResultSuccess
		if err != nil {
			result = instrumentation.OAuthResultFailure
		}
		m.RecordOAuthTokenRefresh(sc.ctx, result)
	}
}

// CalendarClient returns the calendar client for the default account
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// SetCalendarClient sets the calendar client for the default account
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.SetCalendarClientForAccount("default", client)
}

// TokenProvider returns the token provider used for client construction.
func (sc *ServerContext) TokenProvider() google.TokenProvider {
	return sc.tokenProvider
}

// SetMetrics attaches a metrics recorder to the server context.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the attached metrics recorder, or nil if none is set.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger attaches an audit logger to the server context.
func (sc *ServerContext) SetAuditLogger(l *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = l
}

// AuditLogger returns the attached audit logger, or nil if none is set.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
