package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcal application
var rootCmd = &cobra.Command{
	Use:   "mcal",
	Short: "Google Calendar MCP server",
	Long: `mcal exposes Google Calendar to AI assistants over the Model Context
Protocol (MCP): listing calendars, querying and managing events, and
checking availability across multiple Google accounts.

It can run as:
  - An MCP server over stdio (default)
  - An MCP server over HTTP (sse or streamable-http transport)
  - A standalone CLI for the OAuth flow and calendar listing`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	// Load OAuth credentials and other settings from a .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		rootCmd.PrintErrf("Warning: failed to load .env file: %v\n", err)
	}

	rootCmd.SetVersionTemplate(`{{printf "mcal version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
