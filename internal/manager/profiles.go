package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// ErrNoIdentity is returned by caller-scoped operations without an identity.
var ErrNoIdentity = errors.New("not authenticated")

// ProfileGateway is the profile part of the backend surface.
type ProfileGateway interface {
	GetCallerUserProfile(ctx context.Context) (*sdk.UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile sdk.UserProfile) error
	GetAllUserProfiles(ctx context.Context) ([]sdk.ProfileEntry, error)
	GetUserProfile(ctx context.Context, owner sdk.OwnerID) (*sdk.UserProfile, error)
	DeleteUserProfile(ctx context.Context, owner sdk.OwnerID) error
}

// Profiles manages user profiles.
type Profiles struct {
	gw            ProfileGateway
	cache         *cache.Coordinator
	authenticated func() bool
	granted       func() bool
	logger        *slog.Logger
}

// NewProfiles wires a profile manager. authenticated gates the caller's own
// profile; granted gates the admin operations.
func NewProfiles(gw ProfileGateway, c *cache.Coordinator, authenticated, granted func() bool, logger *slog.Logger) *Profiles {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiles{
		gw:            gw,
		cache:         c,
		authenticated: authenticated,
		granted:       granted,
		logger:        logger.With("component", "profiles"),
	}
}

// Own returns the caller's profile, or nil when none has been saved.
func (m *Profiles) Own(ctx context.Context) (*sdk.UserProfile, error) {
	profile, err := cache.Fetch(ctx, m.cache, cache.Query[*sdk.UserProfile]{
		Key:     cache.KeyCurrentUserProfile,
		Enabled: m.authenticated,
		Fetch:   m.gw.GetCallerUserProfile,
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// SaveOwn creates or overwrites the caller's profile. The name is trimmed.
func (m *Profiles) SaveOwn(ctx context.Context, name string) error {
	if !m.authenticated() {
		return ErrNoIdentity
	}
	name = strings.TrimSpace(name)
	if err := sdk.ValidateProfileName(name); err != nil {
		return err
	}
	if err := m.gw.SaveCallerUserProfile(ctx, sdk.UserProfile{Name: name}); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	m.cache.InvalidateFor(cache.MutationSaveCallerUserProfile)
	return nil
}

// List returns every profile in insertion order.
func (m *Profiles) List(ctx context.Context) ([]sdk.ProfileEntry, error) {
	entries, err := cache.Fetch(ctx, m.cache, cache.Query[[]sdk.ProfileEntry]{
		Key:     cache.KeyAllUserProfiles,
		Enabled: m.granted,
		Fetch:   m.gw.GetAllUserProfiles,
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNotGranted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return entries, nil
}

// Get returns the profile of owner, or nil when absent.
func (m *Profiles) Get(ctx context.Context, owner sdk.OwnerID) (*sdk.UserProfile, error) {
	if !m.granted() {
		return nil, ErrNotGranted
	}
	profile, err := m.gw.GetUserProfile(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile of %s: %w", owner, err)
	}
	return profile, nil
}

// Delete removes the profile of owner. A missing profile counts as deleted.
func (m *Profiles) Delete(ctx context.Context, owner sdk.OwnerID) error {
	if !m.granted() {
		return ErrNotGranted
	}
	err := m.gw.DeleteUserProfile(ctx, owner)
	if errors.Is(err, sdk.ErrNotFound) {
		m.logger.Debug("profile already absent", "owner", owner)
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete profile of %s: %w", owner, err)
	}
	m.cache.InvalidateFor(cache.MutationDeleteUserProfile)
	return nil
}
