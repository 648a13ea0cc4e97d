package sdk

import (
	"fmt"
	"strings"
	"time"

	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
)

// Role is the caller role resolved by the backend.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	case RoleGuest:
		return RoleGuest, nil
	}
	return "", fmt.Errorf("%w: unknown role %q (want admin, user or guest)", ErrInvalidInput, s)
}

func (r Role) String() string { return string(r) }

// OwnerID identifies the principal that owns a profile (e.g. "user:<subject>").
type OwnerID string

// InquiryID is the backend-assigned, strictly increasing inquiry identifier.
type InquiryID uint64

// UserProfile is the single profile a caller may keep.
type UserProfile struct {
	Name string
}

// Inquiry is a submitted contact-form record. Inquiries are write-once.
type Inquiry struct {
	FullName        string
	EmailAddress    string
	PhoneNumber     string
	CompanyName     string
	WebsiteType     string
	Features        string
	Budget          string
	Deadline        string
	AdditionalNotes string
}

// InquiryEntry pairs an inquiry with its id.
type InquiryEntry struct {
	ID      InquiryID
	Inquiry Inquiry
}

// ProfileEntry pairs a profile with its owner.
type ProfileEntry struct {
	Owner   OwnerID
	Profile UserProfile
}

// SessionToken is returned by the credential login.
type SessionToken struct {
	Token     string
	Principal string
	ExpiresAt time.Time
}

// WebsiteTypes lists the suggested values for Inquiry.WebsiteType.
var WebsiteTypes = []string{"Personal", "Business", "E-Commerce", "Portfolio"}

func inquiryToWire(in Inquiry) agencyv1.Inquiry {
	return agencyv1.Inquiry{
		FullName:        in.FullName,
		EmailAddress:    in.EmailAddress,
		PhoneNumber:     in.PhoneNumber,
		CompanyName:     in.CompanyName,
		WebsiteType:     in.WebsiteType,
		Features:        in.Features,
		Budget:          in.Budget,
		Deadline:        in.Deadline,
		AdditionalNotes: in.AdditionalNotes,
	}
}

func inquiryFromWire(in agencyv1.Inquiry) Inquiry {
	return Inquiry{
		FullName:        in.FullName,
		EmailAddress:    in.EmailAddress,
		PhoneNumber:     in.PhoneNumber,
		CompanyName:     in.CompanyName,
		WebsiteType:     in.WebsiteType,
		Features:        in.Features,
		Budget:          in.Budget,
		Deadline:        in.Deadline,
		AdditionalNotes: in.AdditionalNotes,
	}
}

func profileFromWire(p *agencyv1.UserProfile) *UserProfile {
	if p == nil {
		return nil
	}
	return &UserProfile{Name: p.Name}
}
