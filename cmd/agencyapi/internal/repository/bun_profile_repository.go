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

// BunProfileRepository implements ProfileRepository using Bun ORM
type BunProfileRepository struct {
	db *bun.DB
}

// NewBunProfileRepository creates a new Bun-based profile repository
func NewBunProfileRepository(db *bun.DB) *BunProfileRepository {
	return &BunProfileRepository{db: db}
}

// Upsert creates the owner's profile or overwrites its name. An existing
// profile keeps its position in List.
func (r *BunProfileRepository) Upsert(ctx context.Context, owner, name string) error {
	now := time.Now().UTC()
	profile := &models.Profile{Owner: owner, Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := r.db.NewInsert().
		Model(profile).
		On("CONFLICT (owner) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Get retrieves the profile owned by owner
func (r *BunProfileRepository) Get(ctx context.Context, owner string) (*models.Profile, error) {
	profile := new(models.Profile)
	err := r.db.NewSelect().Model(profile).Where("owner = ?", owner).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", owner, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// List returns every profile in creation order
func (r *BunProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.NewSelect().Model(&profiles).Order("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Delete removes the profile owned by owner
func (r *BunProfileRepository) Delete(ctx context.Context, owner string) error {
	result, err := r.db.NewDelete().Model((*models.Profile)(nil)).Where("owner = ?", owner).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("profile %s: %w", owner, ErrNotFound)
	}
	return nil
}
