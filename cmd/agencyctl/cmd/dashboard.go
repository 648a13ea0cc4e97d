package cmd

import (
	"errors"
	"sync"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the admin dashboard",
	Long: `Shows every inquiry and user profile. Your admin role is re-verified with
the server before anything is fetched; non-admins see Access Denied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := config.MustFromContext(ctx).ClientProvider.Session(ctx)
		if err != nil {
			return err
		}

		var (
			mu      sync.Mutex
			spinner *pterm.SpinnerPrinter
		)
		spinner, _ = pterm.DefaultSpinner.Start("Verifying access...")
		g := s.Guard(ctx, func(state guard.State) {
			mu.Lock()
			defer mu.Unlock()
			if spinner != nil {
				spinner.UpdateText(ui.GuardStateText(state))
				return
			}
			// Role changes after the first decision are only reported.
			pterm.Debug.Printf("access %s\n", ui.GuardStateText(state))
		})
		defer g.Close()
		mu.Lock()
		if spinner != nil {
			_ = spinner.Stop()
			spinner = nil
		}
		mu.Unlock()
		if err := ui.GuardOutcome(g); err != nil {
			return err
		}

		d, err := s.LoadDashboard(ctx, g)
		if errors.Is(err, sdk.ErrUnauthorized) {
			return ui.GuardOutcome(g)
		}
		if err != nil {
			return err
		}

		pterm.DefaultHeader.Println("Admin Dashboard")
		pterm.DefaultSection.Printf("Inquiries (%d)\n", len(d.Inquiries))
		if err := ui.InquiryTable(d.Inquiries); err != nil {
			return err
		}
		pterm.DefaultSection.Printf("User profiles (%d)\n", len(d.Profiles))
		return ui.ProfileTable(d.Profiles)
	},
}
