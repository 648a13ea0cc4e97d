package inquiry

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an inquiry (admin)",
	Long:  `Deletes an inquiry. Deleting an inquiry that is already gone succeeds.`,
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

		if err := s.Inquiries.Delete(ctx, id); err != nil {
			g.ReportError(err)
			return err
		}
		pterm.Success.Printf("Inquiry %d deleted\n", id)
		return nil
	},
}
