package role

import (
	"errors"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/roles"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your role as the server sees it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}
		res, err := s.Roles.Verify(ctx)
		if errors.Is(err, roles.ErrNoIdentity) {
			return ui.ErrLoginRequired
		}
		if err != nil {
			return err
		}
		pterm.Info.Printf("Role: %s\n", res.Role)
		if res.Admin {
			pterm.Success.Println("Admin access confirmed")
		}
		return nil
	},
}
