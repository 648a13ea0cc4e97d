package inquiry

import (
	"fmt"
	"slices"

	"github.com/benbjohnson/clock"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/forms"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// submitFlags maps flag names onto inquiry field names.
var submitFlags = []struct {
	flag, field, label string
}{
	{"full-name", sdk.FieldFullName, "Full name"},
	{"email", sdk.FieldEmailAddress, "Email address"},
	{"phone", sdk.FieldPhoneNumber, "Phone number"},
	{"company", sdk.FieldCompanyName, "Company name"},
	{"website-type", sdk.FieldWebsiteType, "Website type"},
	{"features", sdk.FieldFeatures, "Features"},
	{"budget", sdk.FieldBudget, "Budget"},
	{"deadline", sdk.FieldDeadline, "Deadline"},
	{"notes", sdk.FieldAdditionalNotes, "Additional notes"},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a project inquiry",
	Long: `Submits a project inquiry. No login is required. Every field except
--notes is required; missing fields are prompted for unless --non-interactive
is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.MustFromContext(ctx)
		s, err := currentSession(ctx)
		if err != nil {
			return err
		}

		form := forms.NewContactForm(s.Inquiries, clock.New(), cfg.Logger)
		defer form.Close()

		interactive := !cfg.ClientProvider.NonInteractive()
		for _, f := range submitFlags {
			value, _ := cmd.Flags().GetString(f.flag)
			if value == "" && interactive && f.field != sdk.FieldAdditionalNotes {
				value, err = prompt(f.field, f.label)
				if err != nil {
					return err
				}
			}
			if err := form.Set(f.field, value); err != nil {
				return err
			}
		}

		id, err := form.Submit(ctx)
		if ui.FieldErrors(err) {
			return fmt.Errorf("inquiry not submitted: %w", err)
		}
		if err != nil {
			return err
		}
		pterm.Success.Printf("Thank you! Your inquiry was received (id %d). We will be in touch soon.\n", id)
		return nil
	},
}

func prompt(field, label string) (string, error) {
	if field == sdk.FieldWebsiteType {
		return pterm.DefaultInteractiveSelect.WithOptions(slices.Clone(sdk.WebsiteTypes)).Show(label)
	}
	return pterm.DefaultInteractiveTextInput.Show(label)
}

func init() {
	for _, f := range submitFlags {
		submitCmd.Flags().String(f.flag, "", f.label)
	}
}
