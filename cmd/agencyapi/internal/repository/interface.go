package repository

import (
	"context"
	"errors"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
)

// ErrNotFound is wrapped by every lookup or delete that matches no row.
var ErrNotFound = errors.New("not found")

// InquiryRepository stores inquiries. Create assigns the next id from the
// inquiry counter; ids are never reused.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	Get(ctx context.Context, id uint64) (*models.Inquiry, error)
	List(ctx context.Context) ([]models.Inquiry, error)
	Delete(ctx context.Context, id uint64) error
}

// ProfileRepository stores one profile per owner, listed in creation order.
type ProfileRepository interface {
	Upsert(ctx context.Context, owner, name string) error
	Get(ctx context.Context, owner string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Delete(ctx context.Context, owner string) error
}

// RoleRepository stores explicit role assignments.
type RoleRepository interface {
	Get(ctx context.Context, principal string) (*models.RoleAssignment, error)
	Upsert(ctx context.Context, assignment *models.RoleAssignment) error
	List(ctx context.Context) ([]models.RoleAssignment, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

// UserRepository stores local accounts for password login.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
