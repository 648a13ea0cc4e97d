package profile

import (
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <owner>",
	Short: "Delete a user's profile (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, g, err := adminSession(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		if err := s.Profiles.Delete(ctx, sdk.OwnerID(args[0])); err != nil {
			g.ReportError(err)
			return err
		}
		pterm.Success.Printf("Profile of %s deleted\n", args[0])
		return nil
	},
}
