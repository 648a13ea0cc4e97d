package inquiry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/ui"
	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/spf13/cobra"
)

// InquiryCmd is the parent command for inquiry operations
var InquiryCmd = &cobra.Command{
	Use:   "inquiry",
	Short: "Submit and review project inquiries",
	Long: `Anyone can submit an inquiry. Listing, reading and deleting inquiries
requires the admin role, which is re-verified with the server on every call.`,
}

func init() {
	InquiryCmd.AddCommand(submitCmd)
	InquiryCmd.AddCommand(listCmd)
	InquiryCmd.AddCommand(getCmd)
	InquiryCmd.AddCommand(deleteCmd)
}

func currentSession(ctx context.Context) (*session.Session, error) {
	return config.MustFromContext(ctx).ClientProvider.Session(ctx)
}

// adminSession opens a guard and returns it only when access is granted.
// The caller closes the guard.
func adminSession(ctx context.Context) (*session.Session, *guard.Guard, error) {
	s, err := currentSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	g := s.Guard(ctx)
	if err := ui.GuardOutcome(g); err != nil {
		g.Close()
		return nil, nil, err
	}
	return s, g, nil
}

func parseID(arg string) (sdk.InquiryID, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid inquiry id %q: %w", arg, err)
	}
	return sdk.InquiryID(id), nil
}
