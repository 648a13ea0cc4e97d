package role

import (
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var assignUser string

var assignCmd = &cobra.Command{
	Use:   "assign <admin|user|guest>",
	Short: "Assign a role",
	Long: `Assigns a role to --user, or to yourself when --user is omitted.

Assigning a role to another user requires the admin role. Assigning your own
role is allowed when no admin exists yet, which is how the first admin is
created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := sdk.ParseRole(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}

		if assignUser == "" {
			if err := s.Roles.AssignCaller(ctx, role); err != nil {
				return err
			}
			pterm.Success.Printf("Your role is now %s\n", role)
			return nil
		}
		if err := s.Roles.Assign(ctx, sdk.OwnerID(assignUser), role); err != nil {
			return err
		}
		pterm.Success.Printf("Role of %s is now %s\n", assignUser, role)
		return nil
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignUser, "user", "", "principal to assign the role to")
}
