// Package resources provides MCP resources for exposing calendar data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the list of available calendars with their stable IDs.
package resources
