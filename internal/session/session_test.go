package session_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/internal/gatewaytest"
	"github.com/caffeinepub/agencydesk/internal/guard"
	"github.com/caffeinepub/agencydesk/internal/identity"
	"github.com/caffeinepub/agencydesk/internal/manager"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock    *clock.Mock
	fake     *gatewaytest.Fake
	provider *identity.Adapter
	session  *session.Session
	next     string
}

func newHarness(t *testing.T, mode sdk.AuthMode) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := clock.NewMock()
	h := &harness{clock: mock, fake: gatewaytest.New()}

	authenticate := func(context.Context) (*sdk.Credentials, error) {
		if h.next == "" {
			return nil, fmt.Errorf("%w: rejected", sdk.ErrUnauthorized)
		}
		return &sdk.Credentials{
			AccessToken: "token-" + h.next,
			TokenType:   "Bearer",
			ExpiresAt:   mock.Now().Add(time.Hour),
			PrincipalID: h.next,
		}, nil
	}
	h.provider = identity.New(mode, authenticate, identity.NewMemoryStore(), identity.Options{Clock: mock, Logger: logger})
	require.NoError(t, h.provider.Init(context.Background()))

	h.session = session.New(h.provider, h.fake, session.Options{Clock: mock, Logger: logger})
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) login(t *testing.T, principal string, role sdk.Role) {
	t.Helper()
	h.next = principal
	h.fake.SetCaller(sdk.OwnerID(principal), role)
	require.NoError(t, h.session.Login(context.Background()))
}

func TestGuard_NonAdminIsDeniedWithoutDashboardFetch(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:bob", sdk.RoleUser)

	g := h.session.Guard(context.Background())
	defer g.Close()

	assert.Equal(t, guard.Denied, g.State())
	_, err := h.session.LoadDashboard(context.Background(), g)
	assert.ErrorIs(t, err, manager.ErrNotGranted)
	_, err = h.session.Inquiries.List(context.Background())
	assert.ErrorIs(t, err, manager.ErrNotGranted)

	assert.Zero(t, h.fake.Calls("getAllInquiries"))
	assert.Zero(t, h.fake.Calls("getAllUserProfiles"))
}

func TestGuard_AnonymousNeverQueriesRoles(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)

	g := h.session.Guard(context.Background())
	defer g.Close()

	assert.Equal(t, guard.Unauthenticated, g.State())
	assert.Zero(t, h.fake.Calls("isCallerAdmin"))
	assert.Zero(t, h.fake.Calls("getCallerRole"))
}

func TestGuard_AdminLoadsDashboard(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.fake.SeedInquiry(sdk.Inquiry{FullName: "Ada"})
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())

	d, err := h.session.LoadDashboard(context.Background(), g)
	require.NoError(t, err)
	assert.Len(t, d.Inquiries, 1)
	assert.Empty(t, d.Profiles)
}

func TestGuard_VerifiesOnEveryEntry(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	first := h.session.Guard(context.Background())
	require.Equal(t, guard.Granted, first.State())
	first.Close()

	// Demoted elsewhere; the cached admin answer must not be trusted.
	h.fake.SetCaller("user:admin", sdk.RoleUser)
	second := h.session.Guard(context.Background())
	defer second.Close()

	assert.Equal(t, guard.Denied, second.State())
	assert.Equal(t, 2, h.fake.Calls("isCallerAdmin"))
}

func TestGuard_LogoutWhileGranted(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())
	_, err := h.session.LoadDashboard(context.Background(), g)
	require.NoError(t, err)

	require.NoError(t, h.session.Logout(context.Background()))
	assert.Equal(t, guard.Unauthenticated, g.State())
	assert.Equal(t, cache.StatusIdle, h.session.Cache().Peek(cache.KeyAllInquiries).Status)
	assert.False(t, h.session.Roles.Confirmed())
}

func TestGuard_IdentitySwitchReverifies(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())
	_, err := h.session.LoadDashboard(context.Background(), g)
	require.NoError(t, err)

	h.login(t, "user:bob", sdk.RoleUser)

	assert.Eventually(t, func() bool { return g.State() == guard.Denied }, time.Second, 5*time.Millisecond)
	assert.Equal(t, cache.StatusIdle, h.session.Cache().Peek(cache.KeyAllInquiries).Status)
	assert.Equal(t, 1, h.fake.Calls("getAllInquiries"))
}

func TestGuard_UnauthorizedAnswerDenies(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())

	h.fake.FailWith("getAllInquiries", fmt.Errorf("%w: role revoked", sdk.ErrUnauthorized))
	_, err := h.session.LoadDashboard(context.Background(), g)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
	assert.Equal(t, guard.Denied, g.State())
}

func TestSession_PasswordLoginInvalidatesRoleQueries(t *testing.T) {
	h := newHarness(t, sdk.AuthModePassword)
	h.login(t, "user:admin", sdk.RoleAdmin)

	_, err := h.session.Roles.Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, h.session.Roles.Confirmed())

	// Same principal logging in again keeps its cache but drops role answers.
	h.login(t, "user:admin", sdk.RoleAdmin)
	assert.True(t, h.session.Cache().Peek(cache.KeyIsCallerAdmin).Stale)
	assert.True(t, h.session.Cache().Peek(cache.KeyCallerRole).Stale)
	assert.False(t, h.session.Roles.Confirmed())
}

func TestSession_FailedLoginKeepsAnonymous(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.next = ""

	err := h.session.Login(context.Background())
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
	assert.False(t, h.session.Authenticated())
	assert.Equal(t, identity.StatusError, h.provider.Status())
}

func TestGuard_SelfDemotionReverifies(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())
	require.Equal(t, 1, h.fake.Calls("isCallerAdmin"))

	require.NoError(t, h.session.Roles.AssignCaller(context.Background(), sdk.RoleUser))
	assert.NotEqual(t, guard.Granted, g.State())

	assert.Eventually(t, func() bool { return g.State() == guard.Denied }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, h.fake.Calls("isCallerAdmin"))
	assert.False(t, h.session.Roles.Confirmed())

	_, err := h.session.LoadDashboard(context.Background(), g)
	assert.ErrorIs(t, err, manager.ErrNotGranted)
	assert.Zero(t, h.fake.Calls("getAllInquiries"))
}

func TestGuard_AssigningAnotherUserReverifiesAndKeepsAccess(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	var mu sync.Mutex
	var seen []guard.State
	g := h.session.Guard(context.Background(), func(s guard.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	})
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())

	require.NoError(t, h.session.Roles.Assign(context.Background(), "user:bob", sdk.RoleAdmin))

	assert.Eventually(t, func() bool {
		return g.State() == guard.Granted && h.fake.Calls("isCallerAdmin") == 2
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.session.Roles.Confirmed())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []guard.State{guard.ResolvingRole, guard.Granted, guard.ResolvingRole, guard.Granted}, seen)
}

func TestGuard_OpenGuardsDoNotReverifyEachOther(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	first := h.session.Guard(context.Background())
	defer first.Close()
	second := h.session.Guard(context.Background())
	defer second.Close()

	assert.Equal(t, guard.Granted, first.State())
	assert.Equal(t, guard.Granted, second.State())
	assert.Never(t, func() bool { return h.fake.Calls("isCallerAdmin") > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSession_LogoutDuringAdminFetchIssuesNoFurtherQueries(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.fake.SeedInquiry(sdk.Inquiry{FullName: "Ada"})
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())

	var once sync.Once
	h.fake.Before("getAllInquiries", func() {
		once.Do(func() {
			assert.NoError(t, h.session.Logout(context.Background()))
		})
	})

	_, err := h.session.Inquiries.List(context.Background())
	assert.ErrorIs(t, err, manager.ErrNotGranted)
	assert.Equal(t, 1, h.fake.Calls("getAllInquiries"))
	assert.False(t, h.session.Cache().Peek(cache.KeyAllInquiries).Fresh())
	assert.Equal(t, guard.Unauthenticated, g.State())
}

func TestGuard_TokenExpiryWhileGranted(t *testing.T) {
	h := newHarness(t, sdk.AuthModeOIDC)
	h.login(t, "user:admin", sdk.RoleAdmin)

	g := h.session.Guard(context.Background())
	defer g.Close()
	require.Equal(t, guard.Granted, g.State())
	_, err := h.session.LoadDashboard(context.Background(), g)
	require.NoError(t, err)

	h.clock.Add(time.Hour)

	assert.Eventually(t, func() bool { return g.State() == guard.Unauthenticated }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return h.session.Cache().Peek(cache.KeyAllInquiries).Status == cache.StatusIdle
	}, time.Second, 5*time.Millisecond)
	assert.False(t, h.session.Authenticated())
	assert.False(t, h.session.Roles.Confirmed())
}
