package profile

import (
	"errors"
	"fmt"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/manager"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update your profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}
		err = s.Profiles.SaveOwn(ctx, args[0])
		if errors.Is(err, manager.ErrNoIdentity) {
			return ui.ErrLoginRequired
		}
		if ui.FieldErrors(err) {
			return fmt.Errorf("profile not saved: %w", err)
		}
		if err != nil {
			return err
		}
		pterm.Success.Println("Profile saved")
		return nil
	},
}
