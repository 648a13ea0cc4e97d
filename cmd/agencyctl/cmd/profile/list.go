package profile

import (
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/spf13/cobra"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user profiles (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, g, err := adminSession(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		entries, err := s.Profiles.List(ctx)
		if err != nil {
			g.ReportError(err)
			return err
		}
		entries, err = sdk.FilterProfiles(entries, listFilter)
		if err != nil {
			return err
		}
		return ui.ProfileTable(entries)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "bexpr filter expression over owner and name")
}
