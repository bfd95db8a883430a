// Package calendar_tools provides MCP (Model Context Protocol) tools for calendar operations.
//
// The tools address calendars by an optional stable calendar_id and/or a human-readable
// calendar_name. A name shared by several calendars is never silently resolved to the
// first match; instead the tool fails with the full candidate list (ID and account per
// candidate) and instructs the caller to retry with calendar_id.
//
// The tools support multi-account authentication and cover event listing, creation,
// modification, deletion, and availability checks.
package calendar_tools
