package inquiry

import (
	"fmt"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one inquiry (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, g, err := adminSession(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		in, err := s.Inquiries.Get(ctx, id)
		if err != nil {
			g.ReportError(err)
			return err
		}
		if in == nil {
			return fmt.Errorf("inquiry %d not found", id)
		}
		return ui.InquiryDetail(id, in)
	},
}
