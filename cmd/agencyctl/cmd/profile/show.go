package profile

import (
	"errors"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/manager"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [owner]",
	Short: "Show your own profile, or another user's (admin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 1 {
			s, g, err := adminSession(ctx)
			if err != nil {
				return err
			}
			defer g.Close()

			profile, err := s.Profiles.Get(ctx, sdk.OwnerID(args[0]))
			if err != nil {
				g.ReportError(err)
				return err
			}
			if profile == nil {
				pterm.Info.Printf("%s has no profile\n", args[0])
				return nil
			}
			pterm.Info.Printf("%s: %s\n", args[0], profile.Name)
			return nil
		}

		s, err := currentSession(ctx)
		if err != nil {
			return err
		}
		profile, err := s.Profiles.Own(ctx)
		if errors.Is(err, manager.ErrNoIdentity) {
			return ui.ErrLoginRequired
		}
		if err != nil {
			return err
		}
		if profile == nil {
			pterm.Info.Println("No profile yet. Set your name with: agencyctl profile set <name>")
			return nil
		}
		pterm.Info.Printf("Name: %s\n", profile.Name)
		return nil
	},
}
