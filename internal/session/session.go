// Package session ties one identity provider to the client-side state that
// depends on it: the query cache, role resolution, the managers and the
// access guards of protected views.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/internal/identity"
	"github.com/caffeinepub/agencydesk/internal/manager"
	"github.com/caffeinepub/agencydesk/internal/roles"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"golang.org/x/sync/errgroup"
)

// Gateway is the full backend surface a session drives.
type Gateway interface {
	roles.Gateway
	manager.InquiryGateway
	manager.ProfileGateway
}

// Options configures a Session.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// Session owns the cache of one signed-in (or anonymous) user.
type Session struct {
	provider identity.Provider
	cache    *cache.Coordinator
	logger   *slog.Logger

	Roles     *roles.Service
	Inquiries *manager.Inquiries
	Profiles  *manager.Profiles

	mu          sync.Mutex
	principal   string
	unsubscribe func()
}

// New wires a session. Identity changes observed from provider clear the
// cache so no data fetched for one principal is served to another.
func New(provider identity.Provider, gw Gateway, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := cache.New(cache.Options{Clock: opts.Clock, Logger: opts.Logger})
	s := &Session{
		provider: provider,
		cache:    c,
		logger:   opts.Logger.With("component", "session"),
	}
	if id := provider.Identity(); id != nil {
		s.principal = id.Principal
	}

	s.Roles = roles.NewService(gw, c, s.Authenticated, opts.Logger)
	s.Inquiries = manager.NewInquiries(gw, c, s.Roles.Confirmed, opts.Logger)
	s.Profiles = manager.NewProfiles(gw, c, s.Authenticated, s.Roles.Confirmed, opts.Logger)
	s.unsubscribe = provider.Subscribe(s.identityChanged)
	return s
}

// Cache exposes the coordinator, mainly for observers.
func (s *Session) Cache() *cache.Coordinator {
	return s.cache
}

// Authenticated reports whether a non-expired identity is present.
func (s *Session) Authenticated() bool {
	return s.provider.Identity() != nil
}

// Identity returns the current identity, or nil.
func (s *Session) Identity() *identity.Identity {
	return s.provider.Identity()
}

func (s *Session) identityChanged(id *identity.Identity) {
	principal := ""
	if id != nil {
		principal = id.Principal
	}

	s.mu.Lock()
	changed := principal != s.principal
	s.principal = principal
	s.mu.Unlock()

	if id == nil || changed {
		s.logger.Debug("identity changed, clearing cache", "principal", principal)
		s.cache.Clear()
	}
}

// Login runs the provider handshake. A backend login counts as a mutation and
// invalidates role and profile queries even for a returning principal.
func (s *Session) Login(ctx context.Context) error {
	if err := s.provider.Login(ctx); err != nil {
		return err
	}
	if s.provider.Mode() == sdk.AuthModePassword {
		s.cache.InvalidateFor(cache.MutationLogin)
	}
	return nil
}

// Logout forgets the identity and drops every cached query.
func (s *Session) Logout(ctx context.Context) error {
	err := s.provider.Clear(ctx)
	s.cache.Clear()
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Guard opens an access guard for a protected view. It follows identity
// changes and re-verifies admin status with the backend on entry, after
// every identity change, and after any mutation that makes a role query
// stale. observers run on every state transition, including the first
// resolution. Close the guard when the view goes away.
func (s *Session) Guard(ctx context.Context, observers ...func(guard.State)) *guard.Guard {
	g := guard.New(s.logger)
	for _, fn := range observers {
		g.OnChange(fn)
	}
	ctx, cancel := context.WithCancel(ctx)

	var (
		mu   sync.Mutex
		done bool
		wg   sync.WaitGroup
	)
	resolve := func() {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Resolve(ctx, s.Roles)
		}()
	}

	signal := func(id *identity.Identity) guard.IdentitySignal {
		sig := guard.IdentitySignal{Initializing: s.provider.Initializing(), Present: id != nil}
		if id != nil {
			sig.Principal = id.Principal
		}
		return sig
	}
	g.SetIdentity(signal(s.provider.Identity()))

	unsubscribeIdentity := s.provider.Subscribe(func(id *identity.Identity) {
		g.SetIdentity(signal(id))
		if id != nil {
			resolve()
		}
	})
	unsubscribeCache := s.cache.Subscribe(func(e cache.Entry) {
		if e.Key != cache.KeyIsCallerAdmin && e.Key != cache.KeyCallerRole {
			return
		}
		if !e.Stale || e.InvalidatedBy == "" {
			return
		}
		if g.InvalidateRole() {
			s.logger.Debug("role query invalidated, re-verifying", "mutation", e.InvalidatedBy)
			resolve()
		}
	})
	g.OnClose(func() {
		unsubscribeIdentity()
		unsubscribeCache()
		mu.Lock()
		done = true
		mu.Unlock()
		cancel()
		wg.Wait()
	})

	g.Resolve(ctx, s.Roles)
	return g
}

// Dashboard is the data of the admin view.
type Dashboard struct {
	Inquiries []sdk.InquiryEntry
	Profiles  []sdk.ProfileEntry
}

// LoadDashboard fetches the admin view behind g. Nothing is fetched unless g
// has granted access. An unauthorized answer is fed back into g.
func (s *Session) LoadDashboard(ctx context.Context, g *guard.Guard) (*Dashboard, error) {
	if !g.Granted() {
		return nil, manager.ErrNotGranted
	}

	var d Dashboard
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		d.Inquiries, err = s.Inquiries.List(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		d.Profiles, err = s.Profiles.List(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, sdk.ErrUnauthorized) {
			g.ReportError(err)
		}
		return nil, err
	}
	return &d, nil
}

// Close detaches the session from its provider.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
