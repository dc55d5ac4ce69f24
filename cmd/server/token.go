package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/watchtower-api/internal/models"
)

var (
	tokenUser     string
	tokenLabel    string
	tokenTTLHours int
	tokenID       uint64
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage personal access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a token for a user and print its secret once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		user, err := a.auth.GetUserByUsername(ctx, tokenUser)
		if err != nil {
			return fmt.Errorf("finding user %q: %w", tokenUser, err)
		}

		var ttl *int
		if tokenTTLHours != 0 {
			ttl = &tokenTTLHours
		}

		token, raw, err := a.tokens.Issue(ctx, user.ID, tokenLabel, ttl)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token %d issued for %s. Store it now, it is not shown again:\n%s\n",
			token.ID, user.Username, raw)
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a token by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.tokens.Revoke(cmd.Context(), tokenID)
		if err != nil {
			return fmt.Errorf("revoking token %d: %w", tokenID, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token %d revoked at %s\n", token.ID, token.RevokedAt.Format(time.RFC3339))
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		user, err := a.auth.GetUserByUsername(ctx, tokenUser)
		if err != nil {
			return fmt.Errorf("finding user %q: %w", tokenUser, err)
		}

		tokens, err := a.tokens.ListTokens(ctx, user.ID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tSTATE\tEXPIRES\tLAST USED")
		now := a.clock.Now()
		for _, t := range tokens {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Label, tokenState(t, now), formatTime(t.ExpiresAt), formatTime(t.LastUsedAt))
		}
		return w.Flush()
	},
}

func tokenState(t models.PersonalAccessToken, now time.Time) string {
	switch {
	case t.IsRevoked():
		return "revoked"
	case t.IsExpired(now):
		return "expired"
	default:
		return "active"
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenUser, "user", "", "username the token acts as")
	tokenIssueCmd.Flags().StringVar(&tokenLabel, "label", "", "label shown in token listings")
	tokenIssueCmd.Flags().IntVar(&tokenTTLHours, "ttl-hours", 0, "lifetime in hours (0 = never expires)")
	_ = tokenIssueCmd.MarkFlagRequired("user")
	_ = tokenIssueCmd.MarkFlagRequired("label")

	tokenRevokeCmd.Flags().Uint64Var(&tokenID, "id", 0, "token ID")
	_ = tokenRevokeCmd.MarkFlagRequired("id")

	tokenListCmd.Flags().StringVar(&tokenUser, "user", "", "username")
	_ = tokenListCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd, tokenListCmd)
	rootCmd.AddCommand(tokenCmd)
}
