package profile

import (
	"context"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/spf13/cobra"
)

// ProfileCmd is the parent command for profile operations
var ProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

func init() {
	ProfileCmd.AddCommand(showCmd)
	ProfileCmd.AddCommand(setCmd)
	ProfileCmd.AddCommand(listCmd)
	ProfileCmd.AddCommand(deleteCmd)
}

func currentSession(ctx context.Context) (*session.Session, error) {
	return config.MustFromContext(ctx).ClientProvider.Session(ctx)
}

func adminSession(ctx context.Context) (*session.Session, *guard.Guard, error) {
	s, err := currentSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	g := s.Guard(ctx)
	if err := ui.GuardOutcome(g); err != nil {
		g.Close()
		return nil, nil, err
	}
	return s, g, nil
}
