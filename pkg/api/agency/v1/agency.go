// Package agencyv1 defines the wire messages of the agency.v1.AgencyService
// RPC surface. Messages travel as JSON bodies over the Connect protocol.
package agencyv1

import "time"

// Role is the wire form of a caller role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

type UserProfile struct {
	Name string `json:"name"`
}

type Inquiry struct {
	FullName        string `json:"fullName"`
	EmailAddress    string `json:"emailAddress"`
	PhoneNumber     string `json:"phoneNumber"`
	CompanyName     string `json:"companyName"`
	WebsiteType     string `json:"websiteType"`
	Features        string `json:"features"`
	Budget          string `json:"budget"`
	Deadline        string `json:"deadline"`
	AdditionalNotes string `json:"additionalNotes"`
}

// InquiryEntry pairs an inquiry with its backend-assigned id.
type InquiryEntry struct {
	Id      uint64  `json:"id"`
	Inquiry Inquiry `json:"inquiry"`
}

// ProfileEntry pairs a profile with the principal that owns it.
type ProfileEntry struct {
	Owner   string      `json:"owner"`
	Profile UserProfile `json:"profile"`
}

type GetCallerUserProfileRequest struct{}

type GetCallerUserProfileResponse struct {
	Profile *UserProfile `json:"profile,omitempty"`
}

type SaveCallerUserProfileRequest struct {
	Profile UserProfile `json:"profile"`
}

type SaveCallerUserProfileResponse struct{}

type GetCallerRoleRequest struct{}

type GetCallerRoleResponse struct {
	Role Role `json:"role"`
}

type IsCallerAdminRequest struct{}

type IsCallerAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

type GetAllUserProfilesRequest struct{}

type GetAllUserProfilesResponse struct {
	Profiles []ProfileEntry `json:"profiles"`
}

type GetUserProfileRequest struct {
	Owner string `json:"owner"`
}

type GetUserProfileResponse struct {
	Profile *UserProfile `json:"profile,omitempty"`
}

type DeleteUserProfileRequest struct {
	Owner string `json:"owner"`
}

type DeleteUserProfileResponse struct{}

type AssignCallerUserRoleRequest struct {
	Role Role `json:"role"`
}

type AssignCallerUserRoleResponse struct{}

type AssignUserRoleRequest struct {
	Target string `json:"target"`
	Role   Role   `json:"role"`
}

type AssignUserRoleResponse struct{}

type SubmitInquiryRequest struct {
	Inquiry Inquiry `json:"inquiry"`
}

type SubmitInquiryResponse struct {
	Id uint64 `json:"id"`
}

type GetAllInquiriesRequest struct{}

type GetAllInquiriesResponse struct {
	Inquiries []InquiryEntry `json:"inquiries"`
}

type GetInquiryRequest struct {
	Id uint64 `json:"id"`
}

type GetInquiryResponse struct {
	Inquiry *Inquiry `json:"inquiry,omitempty"`
}

type DeleteInquiryRequest struct {
	Id uint64 `json:"id"`
}

type DeleteInquiryResponse struct{}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expiresAt"`
}
