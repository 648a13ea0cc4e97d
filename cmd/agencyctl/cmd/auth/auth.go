package auth

import (
	"context"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for logging in and out and checking login status.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
}

func currentSession(ctx context.Context) (*session.Session, error) {
	return config.MustFromContext(ctx).ClientProvider.Session(ctx)
}
