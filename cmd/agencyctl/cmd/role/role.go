package role

import (
	"context"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/spf13/cobra"
)

// RoleCmd is the parent command for role operations
var RoleCmd = &cobra.Command{
	Use:   "role",
	Short: "Inspect and assign roles",
}

func init() {
	RoleCmd.AddCommand(showCmd)
	RoleCmd.AddCommand(assignCmd)
}

func currentSession(ctx context.Context) (*session.Session, error) {
	return config.MustFromContext(ctx).ClientProvider.Session(ctx)
}
