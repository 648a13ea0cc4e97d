// Package ui renders agencyctl output with pterm.
package ui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
)

var (
	ErrAccessDenied  = errors.New("access denied")
	ErrLoginRequired = errors.New("login required; run `agencyctl auth login`")
)

// GuardStateText describes a guard state for progress output.
func GuardStateText(state guard.State) string {
	switch state {
	case guard.Initializing:
		return "Loading credentials..."
	case guard.ResolvingRole:
		return "Verifying access..."
	case guard.Granted:
		return "Access granted"
	case guard.Denied:
		return "Access denied"
	case guard.Unauthenticated:
		return "Not logged in"
	}
	return state.String()
}

// GuardOutcome renders the decision of a settled guard and returns nil only
// when the protected view may be shown.
func GuardOutcome(g *guard.Guard) error {
	switch state := g.State(); state {
	case guard.Granted:
		return nil
	case guard.Unauthenticated:
		pterm.Warning.Println("You need to log in to view this page.")
		return ErrLoginRequired
	case guard.Denied:
		pterm.Error.Println("Access Denied")
		pterm.Println("You do not have permission to access the admin dashboard.")
		if err := g.Err(); err != nil {
			pterm.Debug.Printf("role check failed: %v\n", err)
		}
		pterm.Info.Println("Return to Home: agencyctl inquiry submit")
		return ErrAccessDenied
	default:
		return fmt.Errorf("access check did not settle (%s)", state)
	}
}

// InquiryTable prints entries as a table.
func InquiryTable(entries []sdk.InquiryEntry) error {
	if len(entries) == 0 {
		pterm.Info.Println("No inquiries yet.")
		return nil
	}
	data := pterm.TableData{{"ID", "NAME", "EMAIL", "COMPANY", "WEBSITE", "BUDGET", "DEADLINE"}}
	for _, e := range entries {
		data = append(data, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.FullName,
			e.EmailAddress,
			e.CompanyName,
			e.WebsiteType,
			e.Budget,
			e.Deadline,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// InquiryDetail prints every field of one inquiry.
func InquiryDetail(id sdk.InquiryID, in *sdk.Inquiry) error {
	pterm.DefaultSection.Printf("Inquiry %d\n", id)
	notes := in.AdditionalNotes
	if notes == "" {
		notes = "-"
	}
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Full name", in.FullName},
		{"Email", in.EmailAddress},
		{"Phone", in.PhoneNumber},
		{"Company", in.CompanyName},
		{"Website type", in.WebsiteType},
		{"Features", in.Features},
		{"Budget", in.Budget},
		{"Deadline", in.Deadline},
		{"Notes", notes},
	}).Render()
}

// ProfileTable prints profile entries as a table.
func ProfileTable(entries []sdk.ProfileEntry) error {
	if len(entries) == 0 {
		pterm.Info.Println("No user profiles yet.")
		return nil
	}
	data := pterm.TableData{{"OWNER", "NAME"}}
	for _, e := range entries {
		data = append(data, []string{string(e.Owner), e.Profile.Name})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// FieldErrors prints per-field violations inline.
func FieldErrors(err error) bool {
	var fe *sdk.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	for field, msg := range fe.Fields {
		pterm.Error.Printf("%s: %s\n", field, msg)
	}
	return true
}
