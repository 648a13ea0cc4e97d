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

// BunInquiryRepository implements InquiryRepository using Bun ORM
type BunInquiryRepository struct {
	db *bun.DB
}

// NewBunInquiryRepository creates a new Bun-based inquiry repository
func NewBunInquiryRepository(db *bun.DB) *BunInquiryRepository {
	return &BunInquiryRepository{db: db}
}

// Create takes the next id from the counter and inserts the inquiry in the
// same transaction, so a failed insert does not consume an id.
func (r *BunInquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var next uint64
		err := tx.NewRaw(
			"UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value",
			models.InquiryCounter,
		).Scan(ctx, &next)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("inquiry counter missing; run migrations")
			}
			return fmt.Errorf("advance inquiry counter: %w", err)
		}

		inquiry.ID = next - 1
		if inquiry.CreatedAt.IsZero() {
			inquiry.CreatedAt = time.Now().UTC()
		}
		if _, err := tx.NewInsert().Model(inquiry).Exec(ctx); err != nil {
			return fmt.Errorf("create inquiry: %w", err)
		}
		return nil
	})
}

// Get retrieves an inquiry by id
func (r *BunInquiryRepository) Get(ctx context.Context, id uint64) (*models.Inquiry, error) {
	inquiry := new(models.Inquiry)
	err := r.db.NewSelect().Model(inquiry).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inquiry %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get inquiry: %w", err)
	}
	return inquiry, nil
}

// List returns every inquiry in id order
func (r *BunInquiryRepository) List(ctx context.Context) ([]models.Inquiry, error) {
	var inquiries []models.Inquiry
	if err := r.db.NewSelect().Model(&inquiries).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

// Delete removes an inquiry by id
func (r *BunInquiryRepository) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.NewDelete().Model((*models.Inquiry)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inquiry %d: %w", id, ErrNotFound)
	}
	return nil
}
