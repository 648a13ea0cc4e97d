package migrations

import (
	"context"
	"fmt"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261018000000, down_20261018000000)
}

// up_20261018000000 creates the inquiry, profile, role and user tables and
// seeds the inquiry id counter at zero.
func up_20261018000000(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		name  string
		model any
	}{
		{"counters", (*models.Counter)(nil)},
		{"inquiries", (*models.Inquiry)(nil)},
		{"user_profiles", (*models.Profile)(nil)},
		{"role_assignments", (*models.RoleAssignment)(nil)},
		{"users", (*models.User)(nil)},
	}

	for _, table := range tables {
		fmt.Printf(" [up] creating %s table...", table.name)
		if _, err := db.NewCreateTable().Model(table.model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
		fmt.Println(" OK")
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_role_assignments_role ON role_assignments(role)`); err != nil {
		return fmt.Errorf("failed to create role index: %w", err)
	}

	fmt.Print(" [up] seeding inquiry counter...")
	_, err := db.NewInsert().
		Model(&models.Counter{Name: models.InquiryCounter, Value: 0}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed inquiry counter: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

func down_20261018000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping all tables...")

	tables := []string{
		"users",
		"role_assignments",
		"user_profiles",
		"inquiries",
		"counters",
	}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, dropTableStmt(db, table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}

	fmt.Println(" OK")
	return nil
}
