package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from AgencyDesk",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := currentSession(cmd.Context())
		if err != nil {
			return err
		}
		if err := s.Logout(cmd.Context()); err != nil {
			return err
		}
		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
