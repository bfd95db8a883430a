// Package server provides the MCP server context, HTTP transports, and
// operational endpoints for the mcal application.
//
// # Key Components
//
// ServerContext manages Google Calendar clients with lazy initialization and
// caching. It supports multiple accounts and can use different token
// providers:
//   - FileTokenProvider: reads tokens from per-account files on disk
//   - SQLiteTokenProvider: reads tokens from a local SQLite database
//
// HTTPServer exposes the MCP protocol over SSE or streamable HTTP, with
// health endpoints mounted on the same mux and per-request metrics.
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolated from
// MCP traffic.
//
// HealthChecker implements Kubernetes-style liveness and readiness probes
// (/healthz, /readyz, /healthz/detailed) backed by the server context's
// shutdown state.
package server
