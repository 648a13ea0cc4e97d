package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for password-login account management
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage password-login accounts",
	Long:  `Commands for managing the accounts accepted by the Login RPC, directly against the database.`,
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Login name of the user (required)")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createCmd.Flags().StringVar(&roleFlag, "role", "", "Role to assign: admin, user or guest (default: none, i.e. user)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	UsersCmd.AddCommand(createCmd)
}
