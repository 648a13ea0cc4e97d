package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Inquiry is a submitted contact-form record. Rows are written once and only
// ever deleted; ID comes from the inquiries counter.
type Inquiry struct {
	bun.BaseModel `bun:"table:inquiries,alias:i"`

	ID              uint64    `bun:"id,pk"`
	FullName        string    `bun:"full_name,notnull"`
	EmailAddress    string    `bun:"email_address,notnull"`
	PhoneNumber     string    `bun:"phone_number,notnull"`
	CompanyName     string    `bun:"company_name,notnull"`
	WebsiteType     string    `bun:"website_type,notnull"`
	Features        string    `bun:"features,notnull"`
	Budget          string    `bun:"budget,notnull"`
	Deadline        string    `bun:"deadline,notnull"`
	AdditionalNotes string    `bun:"additional_notes,notnull,default:''"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Profile is the single profile a principal may keep. Seq preserves the
// order profiles were first created in.
type Profile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	Seq       int64     `bun:"seq,pk,autoincrement"`
	Owner     string    `bun:"owner,notnull,unique"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RoleAssignment binds a principal to exactly one role. Principals without a
// row are users when authenticated and guests otherwise.
type RoleAssignment struct {
	bun.BaseModel `bun:"table:role_assignments,alias:ra"`

	Principal  string    `bun:"principal,pk"`
	Role       string    `bun:"role,notnull"`
	AssignedBy string    `bun:"assigned_by,notnull"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
}

// User is a local account for password login.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string     `bun:"id,pk"`
	Username     string     `bun:"username,notnull,unique"`
	PasswordHash string     `bun:"password_hash,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
	DisabledAt   *time.Time `bun:"disabled_at"`
}

// PrincipalID returns the identity the user's session tokens carry.
func (u *User) PrincipalID() string {
	if u == nil {
		return ""
	}
	return "user:" + u.Username
}

// Counter is a named monotonically increasing sequence. Value is the next
// number to hand out.
type Counter struct {
	bun.BaseModel `bun:"table:counters,alias:c"`

	Name  string `bun:"name,pk"`
	Value uint64 `bun:"value,notnull,default:0"`
}

// InquiryCounter names the counter that assigns inquiry ids.
const InquiryCounter = "inquiries"
