package auth

import (
	"context"
	"fmt"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/forms"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with AgencyDesk",
	Long: `Logs in with the identity provider selected by auth.mode.

oidc (default): runs the OIDC device authorization flow against auth.issuer.
  When AGENCYDESK_CLIENT_ID and AGENCYDESK_CLIENT_SECRET are set, a service
  account login with client credentials is used instead.
password: prompts for a username and password and calls the server's login.

After the first login you are asked for a display name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}

		if err := s.Login(ctx); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		id := s.Identity()
		if id == nil {
			return fmt.Errorf("login did not produce an identity")
		}

		pterm.Success.Printf("Logged in as %s\n", id.Principal)
		return setupProfile(ctx, s)
	},
}

func setupProfile(ctx context.Context, s *session.Session) error {
	setup := forms.NewProfileSetup(s.Profiles)
	if err := setup.Refresh(ctx); err != nil {
		pterm.Warning.Printf("Could not load your profile: %v\n", err)
		return nil
	}
	if !setup.Open() {
		return nil
	}

	if config.MustFromContext(ctx).ClientProvider.NonInteractive() {
		pterm.Info.Println("No profile yet. Set your name with: agencyctl profile set <name>")
		return nil
	}

	pterm.DefaultSection.Println("Welcome! Please tell us your name.")
	for setup.Open() {
		name, err := pterm.DefaultInteractiveTextInput.Show("Name")
		if err != nil {
			return err
		}
		setup.SetName(name)
		if err := setup.Submit(ctx); err != nil {
			if msg := setup.FieldError(); msg != "" {
				pterm.Error.Printf("name: %s\n", msg)
				continue
			}
			if !ui.FieldErrors(err) {
				return fmt.Errorf("failed to save profile: %w", err)
			}
		}
	}
	pterm.Success.Println("Profile saved.")
	return nil
}
