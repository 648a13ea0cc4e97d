package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunRoleRepository implements RoleRepository using Bun ORM
type BunRoleRepository struct {
	db *bun.DB
}

// NewBunRoleRepository creates a new Bun-based role repository
func NewBunRoleRepository(db *bun.DB) *BunRoleRepository {
	return &BunRoleRepository{db: db}
}

// Get retrieves the assignment for principal
func (r *BunRoleRepository) Get(ctx context.Context, principal string) (*models.RoleAssignment, error) {
	assignment := new(models.RoleAssignment)
	err := r.db.NewSelect().Model(assignment).Where("principal = ?", principal).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role assignment %s: %w", principal, ErrNotFound)
		}
		return nil, fmt.Errorf("get role assignment: %w", err)
	}
	return assignment, nil
}

// Upsert replaces the principal's role
func (r *BunRoleRepository) Upsert(ctx context.Context, assignment *models.RoleAssignment) error {
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	_, err := r.db.NewInsert().
		Model(assignment).
		On("CONFLICT (principal) DO UPDATE").
		Set("role = EXCLUDED.role").
		Set("assigned_by = EXCLUDED.assigned_by").
		Set("assigned_at = EXCLUDED.assigned_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// List returns every explicit assignment
func (r *BunRoleRepository) List(ctx context.Context) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	if err := r.db.NewSelect().Model(&assignments).Order("principal ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return assignments, nil
}

// CountByRole counts the principals holding role
func (r *BunRoleRepository) CountByRole(ctx context.Context, role string) (int, error) {
	n, err := r.db.NewSelect().Model((*models.RoleAssignment)(nil)).Where("role = ?", role).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count role assignments: %w", err)
	}
	return n, nil
}
