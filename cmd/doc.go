// Package cmd implements the command-line interface for mcal.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide calendar tools for AI assistants
//   - auth: Run the Google OAuth authorization flow for an account
//   - calendars: List the calendars accessible to an account
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
