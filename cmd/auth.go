package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcal/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account    string
		tokenStore string
		tokenDB    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Google OAuth authorization",
		Long: `Authorize Google Calendar access for an account without starting the
MCP server. Run "mcal auth url" to get the consent URL, complete the
flow in a browser, then run "mcal auth code <authorization-code>" to
store the resulting token.`,
	}

	cmd.PersistentFlags().StringVar(&account, "account", "default", "Account name the token is stored under")
	cmd.PersistentFlags().StringVar(&tokenStore, "token-store", TokenStoreFile, "Token storage backend: file or sqlite")
	cmd.PersistentFlags().StringVar(&tokenDB, "token-db", "", "SQLite token database path (for --token-store sqlite)")

	urlCmd := &cobra.Command{
		Use:   "url",
		Short: "Print the OAuth consent URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			authURL, err := google.GetAuthURLForAccount(account)
			if err != nil {
				return err
			}

			fmt.Printf("To authorize Google Calendar access for account %q:\n\n", account)
			fmt.Printf("1. Visit this URL in your browser:\n   %s\n\n", authURL)
			fmt.Println("2. Sign in and grant access to Google Calendar")
			fmt.Println("3. Copy the authorization code")
			fmt.Printf("4. Run: mcal auth code <authorization-code> --account %s\n", account)
			return nil
		},
	}

	codeCmd := &cobra.Command{
		Use:   "code <authorization-code>",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			token, err := google.ExchangeAuthCode(ctx, args[0])
			if err != nil {
				return err
			}

			provider, closeProvider, err := newTokenProvider(TokenStoreConfig{Type: tokenStore, Path: tokenDB})
			if err != nil {
				return err
			}
			if closeProvider != nil {
				defer closeProvider()
			}

			saver, ok := provider.(google.TokenSaver)
			if !ok {
				return fmt.Errorf("token store %q cannot persist tokens", tokenStore)
			}
			if err := saver.SaveTokenForAccount(ctx, account, token); err != nil {
				return err
			}

			fmt.Printf("Authorization successful for account %q. Token saved.\n", account)
			return nil
		},
	}

	cmd.AddCommand(urlCmd)
	cmd.AddCommand(codeCmd)

	return cmd
}
