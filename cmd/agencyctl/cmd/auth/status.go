package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.MustFromContext(ctx)
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Authentication Status")
		id := s.Identity()
		if id == nil {
			pterm.Info.Printf("Not logged in (auth mode: %s)\n", cfg.Config.Auth.Mode)
			return nil
		}

		expires := "never"
		if !id.ExpiresAt.IsZero() {
			expires = id.ExpiresAt.Format(time.RFC1123)
		}
		rows := pterm.TableData{
			{"Principal", id.Principal},
			{"Auth mode", string(id.Mode)},
			{"Token expires", expires},
		}

		res, err := s.Roles.Verify(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve role: %w", err)
		}
		rows = append(rows,
			[]string{"Role", res.Role.String()},
			[]string{"Admin", strconv.FormatBool(res.Admin)},
		)

		if profile, err := s.Profiles.Own(ctx); err == nil && profile != nil {
			rows = append(rows, []string{"Name", profile.Name})
		}
		return pterm.DefaultTable.WithData(rows).Render()
	},
}
