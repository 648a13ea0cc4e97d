package inquiry

import (
	"errors"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/spf13/cobra"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all inquiries (admin)",
	Long: `Lists every submitted inquiry. --filter takes a bexpr expression over the
inquiry fields, for example: websiteType == "Business" and id > 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, g, err := adminSession(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		entries, err := s.Inquiries.List(ctx)
		if errors.Is(err, sdk.ErrUnauthorized) {
			g.ReportError(err)
			return ui.GuardOutcome(g)
		}
		if err != nil {
			return err
		}

		entries, err = sdk.FilterInquiries(entries, listFilter)
		if err != nil {
			return err
		}
		return ui.InquiryTable(entries)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "bexpr filter expression (e.g. websiteType == \"Business\")")
}
