// Package roles resolves the caller's role against the backend. Role values
// are cached but never trusted across an identity change or a role mutation.
package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"golang.org/x/sync/errgroup"
)

// ErrNoIdentity is returned when role resolution is attempted without an identity.
var ErrNoIdentity = errors.New("no identity: role cannot be resolved")

// Gateway is the subset of the backend the service calls.
type Gateway interface {
	GetCallerRole(ctx context.Context) (sdk.Role, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	AssignCallerUserRole(ctx context.Context, role sdk.Role) error
	AssignUserRole(ctx context.Context, target sdk.OwnerID, role sdk.Role) error
}

// Resolution is the reconciled outcome of both role queries.
type Resolution struct {
	Role sdk.Role
	// Admin is true only when isCallerAdmin and callerRole both say admin.
	Admin bool
}

// Service is the authorization source of truth for the client.
type Service struct {
	gw            Gateway
	cache         *cache.Coordinator
	authenticated func() bool
	logger        *slog.Logger
}

// NewService wires a Service. authenticated reports whether an identity is
// present; no role query is issued while it returns false.
func NewService(gw Gateway, c *cache.Coordinator, authenticated func() bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gw:            gw,
		cache:         c,
		authenticated: authenticated,
		logger:        logger.With("component", "roles"),
	}
}

// ResolveRole returns the caller's role from callerRole.
func (s *Service) ResolveRole(ctx context.Context) (sdk.Role, error) {
	if !s.authenticated() {
		return "", ErrNoIdentity
	}
	role, err := cache.Fetch(ctx, s.cache, cache.Query[sdk.Role]{
		Key:     cache.KeyCallerRole,
		Enabled: s.authenticated,
		Fetch:   s.gw.GetCallerRole,
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller role: %w", err)
	}
	return role, nil
}

// IsAdmin asks isCallerAdmin. It never looks at callerRole. On failure the
// caller is reported as non-admin alongside the error.
func (s *Service) IsAdmin(ctx context.Context) (bool, error) {
	if !s.authenticated() {
		return false, ErrNoIdentity
	}
	ok, err := cache.Fetch(ctx, s.cache, cache.Query[bool]{
		Key:     cache.KeyIsCallerAdmin,
		Enabled: s.authenticated,
		Fetch:   s.gw.IsCallerAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check admin status: %w", err)
	}
	return ok, nil
}

// Resolve fetches both role queries concurrently and reconciles them.
// Any failure, or any disagreement between the two, yields a non-admin
// result. Disagreement also invalidates both keys so the next call refetches.
func (s *Service) Resolve(ctx context.Context) (Resolution, error) {
	var (
		role    sdk.Role
		isAdmin bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		role, err = s.ResolveRole(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		isAdmin, err = s.IsAdmin(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Resolution{Role: sdk.RoleGuest}, err
	}

	if isAdmin != (role == sdk.RoleAdmin) {
		s.logger.Warn("role queries disagree", "role", role, "is_admin", isAdmin)
		s.cache.Invalidate(cache.KeyIsCallerAdmin, cache.KeyCallerRole)
		return Resolution{Role: role}, nil
	}
	return Resolution{Role: role, Admin: isAdmin}, nil
}

// Verify forces a re-validation against the backend. Sensitive views call
// it on entry.
func (s *Service) Verify(ctx context.Context) (Resolution, error) {
	s.cache.Invalidate(cache.KeyIsCallerAdmin, cache.KeyCallerRole)
	return s.Resolve(ctx)
}

// VerifyAdmin is Verify reduced to the admin decision.
func (s *Service) VerifyAdmin(ctx context.Context) (bool, error) {
	res, err := s.Verify(ctx)
	return res.Admin, err
}

// Confirmed reports whether the cache currently holds fresh, agreeing admin
// answers for both role queries. Admin-only queries are gated on it.
func (s *Service) Confirmed() bool {
	if !s.authenticated() {
		return false
	}
	isAdmin := s.cache.Peek(cache.KeyIsCallerAdmin)
	role := s.cache.Peek(cache.KeyCallerRole)
	if !isAdmin.Fresh() || !role.Fresh() {
		return false
	}
	ok, _ := isAdmin.Data.(bool)
	r, _ := role.Data.(sdk.Role)
	return ok && r == sdk.RoleAdmin
}

// AssignCaller sets the caller's own role.
func (s *Service) AssignCaller(ctx context.Context, role sdk.Role) error {
	if err := s.gw.AssignCallerUserRole(ctx, role); err != nil {
		return fmt.Errorf("failed to assign caller role: %w", err)
	}
	s.cache.InvalidateFor(cache.MutationAssignCallerUserRole)
	return nil
}

// Assign sets the role of target.
func (s *Service) Assign(ctx context.Context, target sdk.OwnerID, role sdk.Role) error {
	if err := s.gw.AssignUserRole(ctx, target, role); err != nil {
		return fmt.Errorf("failed to assign role to %s: %w", target, err)
	}
	s.cache.InvalidateFor(cache.MutationAssignUserRole)
	return nil
}
