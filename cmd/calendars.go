package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcal/internal/calendar"
)

func newCalendarsCmd() *cobra.Command {
	var (
		account    string
		tokenStore string
		tokenDB    string
	)

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars accessible to an account",
		Long: `List all calendars the account has access to, with their stable IDs.
Use the IDs to address calendars unambiguously in MCP tool calls when
calendar names collide across accounts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			provider, closeProvider, err := newTokenProvider(TokenStoreConfig{Type: tokenStore, Path: tokenDB})
			if err != nil {
				return err
			}
			if closeProvider != nil {
				defer closeProvider()
			}

			if !provider.HasTokenForAccount(account) {
				return fmt.Errorf("no Google OAuth token found for account %s; run \"mcal auth\" first", account)
			}

			client, err := calendar.NewClientForAccountWithProvider(ctx, account, provider)
			if err != nil {
				return fmt.Errorf("failed to create calendar client for account %s: %w", account, err)
			}

			calendars, err := client.ListCalendars()
			if err != nil {
				return fmt.Errorf("failed to list calendars: %w", err)
			}

			for _, cal := range calendars {
				marker := ""
				if cal.Primary {
					marker = " [PRIMARY]"
				}
				fmt.Printf("%s%s\n", cal.Summary, marker)
				fmt.Printf("  ID: %s\n", cal.ID)
				fmt.Printf("  Account: %s\n", cal.Account)
				fmt.Printf("  Access Role: %s\n", cal.AccessRole)
				if cal.TimeZone != "" {
					fmt.Printf("  Time Zone: %s\n", cal.TimeZone)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name to list calendars for")
	cmd.Flags().StringVar(&tokenStore, "token-store", TokenStoreFile, "Token storage backend: file or sqlite")
	cmd.Flags().StringVar(&tokenDB, "token-db", "", "SQLite token database path (for --token-store sqlite)")

	return cmd
}
