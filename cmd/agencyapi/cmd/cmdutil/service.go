package cmdutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/uptrace/bun"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/config"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/bunx"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/migrations"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/services/agency"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
)

// ServiceOptions controls how commands construct the service.
type ServiceOptions struct {
	// Migrate applies pending migrations before role bindings are loaded.
	Migrate bool
	// LoginMetrics is handed to the service when set.
	LoginMetrics *telemetry.LoginMetrics
}

// ServiceBundle bundles the agency service with the connection and enforcer
// it was built on so commands can reuse them.
type ServiceBundle struct {
	Service  *agency.Service
	DB       *bun.DB
	Enforcer *casbin.SyncedEnforcer
	Users    *repository.BunUserRepository
	Tokens   *auth.TokenIssuer
}

// Close releases the underlying database connection.
func (b *ServiceBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	_ = bunx.Close(b.DB)
}

// NewServiceBundle opens the database, loads role bindings into casbin and
// returns a ready-to-use service. Tokens is nil when no secret is configured.
func NewServiceBundle(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ServiceOptions) (*ServiceBundle, error) {
	db, err := bunx.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Migrate {
		group, err := migrations.Apply(ctx, db)
		if err != nil {
			_ = bunx.Close(db)
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		if group.ID != 0 {
			logger.InfoContext(ctx, "applied migration group", "group", group.ID)
		}
	}

	roles := repository.NewBunRoleRepository(db)
	enforcer, err := auth.InitEnforcer(roles)
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to initialize casbin enforcer: %w", err)
	}

	var tokens *auth.TokenIssuer
	if cfg.Token.Secret != "" {
		tokens, err = auth.NewTokenIssuer(cfg.Token.Secret, cfg.Token.TTL)
		if err != nil {
			_ = bunx.Close(db)
			return nil, fmt.Errorf("failed to configure session tokens: %w", err)
		}
	}

	users := repository.NewBunUserRepository(db)
	svc := agency.NewService(agency.Dependencies{
		Inquiries: repository.NewBunInquiryRepository(db),
		Profiles:  repository.NewBunProfileRepository(db),
		Roles:     roles,
		Users:     users,
		Enforcer:  enforcer,
		Tokens:    tokens,
		Logger:    logger,

		LoginMetrics: opts.LoginMetrics,
	})

	return &ServiceBundle{
		Service:  svc,
		DB:       db,
		Enforcer: enforcer,
		Users:    users,
		Tokens:   tokens,
	}, nil
}
