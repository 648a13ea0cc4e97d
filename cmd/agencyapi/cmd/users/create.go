package users

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/cmd/cmdutil"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

var (
	usernameFlag string
	passwordFlag string
	roleFlag     string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a password-login account",
	Example: `  agencyapi users create --username alice --stdin --role admin
  agencyapi users create --username bob --password 'hunter2hunter2'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(usernameFlag)
		if username == "" {
			return fmt.Errorf("--username flag is required")
		}

		var role sdk.Role
		if roleFlag != "" {
			r, err := sdk.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			role = r
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		ctx := cmd.Context()
		cfg, ok := config.FromContext(ctx)
		if !ok {
			return fmt.Errorf("configuration not loaded")
		}
		if cfg.Token.Secret == "" {
			pterm.Warning.Println("token.secret is not set; the server will refuse password logins until it is")
		}

		bundle, err := cmdutil.NewServiceBundle(ctx, cfg, slog.Default(), cmdutil.ServiceOptions{})
		if err != nil {
			return err
		}
		defer bundle.Close()

		if _, err := bundle.Users.GetByUsername(ctx, username); err == nil {
			return fmt.Errorf("user %q already exists", username)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check username uniqueness: %w", err)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user := &models.User{Username: username, PasswordHash: hash}
		if err := bundle.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if role != "" {
			sysCtx := auth.WithPrincipal(ctx, auth.Principal{ID: auth.SystemPrincipalID, Method: auth.MethodSystem})
			if err := bundle.Service.AssignRole(sysCtx, user.PrincipalID(), string(role)); err != nil {
				return fmt.Errorf("failed to assign role %q: %w", role, err)
			}
		}

		effective, err := bundle.Service.RoleOf(user.PrincipalID())
		if err != nil {
			return fmt.Errorf("failed to resolve role: %w", err)
		}

		pterm.Success.Println("User created")
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"ID", user.ID},
			{"Username", user.Username},
			{"Principal", user.PrincipalID()},
			{"Role", effective},
		}).Render()
	},
}
