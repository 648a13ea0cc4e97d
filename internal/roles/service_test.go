package roles_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/internal/gatewaytest"
	"github.com/caffeinepub/agencydesk/internal/roles"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, authenticated bool) (*roles.Service, *gatewaytest.Fake, *cache.Coordinator) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := gatewaytest.New()
	c := cache.New(cache.Options{Logger: logger})
	svc := roles.NewService(fake, c, func() bool { return authenticated }, logger)
	return svc, fake, c
}

func TestResolveRole_RequiresIdentity(t *testing.T) {
	svc, fake, _ := setup(t, false)

	_, err := svc.ResolveRole(context.Background())
	assert.ErrorIs(t, err, roles.ErrNoIdentity)

	ok, err := svc.IsAdmin(context.Background())
	assert.ErrorIs(t, err, roles.ErrNoIdentity)
	assert.False(t, ok)

	assert.Zero(t, fake.Calls("getCallerRole"))
	assert.Zero(t, fake.Calls("isCallerAdmin"))
}

func TestIsAdmin_IsAnIndependentCall(t *testing.T) {
	svc, fake, _ := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleAdmin)

	role, err := svc.ResolveRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.RoleAdmin, role)
	assert.Zero(t, fake.Calls("isCallerAdmin"))

	ok, err := svc.IsAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fake.Calls("isCallerAdmin"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		role      sdk.Role
		adminFlag *bool
		fail      string
		wantAdmin bool
		wantErr   error
	}{
		{name: "admin", role: sdk.RoleAdmin, wantAdmin: true},
		{name: "user", role: sdk.RoleUser},
		{name: "disagreement is non-admin", role: sdk.RoleAdmin, adminFlag: ptr(false)},
		{name: "flag without role is non-admin", role: sdk.RoleUser, adminFlag: ptr(true)},
		{name: "admin check fails closed", role: sdk.RoleAdmin, fail: "isCallerAdmin", wantErr: sdk.ErrUnavailable},
		{name: "role fetch fails closed", role: sdk.RoleAdmin, fail: "getCallerRole", wantErr: sdk.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake, _ := setup(t, true)
			fake.SetCaller("user:alice", tt.role)
			if tt.adminFlag != nil {
				fake.SetAdminFlag(*tt.adminFlag)
			}
			if tt.fail != "" {
				fake.FailWith(tt.fail, fmt.Errorf("%w: backend down", sdk.ErrUnavailable))
			}

			res, err := svc.Resolve(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAdmin, res.Admin)
			assert.Equal(t, tt.wantAdmin, svc.Confirmed())
		})
	}
}

func TestResolve_DisagreementInvalidatesBothKeys(t *testing.T) {
	svc, fake, c := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleAdmin)
	fake.SetAdminFlag(false)

	_, err := svc.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Peek(cache.KeyIsCallerAdmin).Stale)
	assert.True(t, c.Peek(cache.KeyCallerRole).Stale)

	_, err = svc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("isCallerAdmin"))
	assert.Equal(t, 2, fake.Calls("getCallerRole"))
}

func TestVerify_AlwaysRefetches(t *testing.T) {
	svc, fake, _ := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleAdmin)

	for i := 1; i <= 3; i++ {
		ok, err := svc.VerifyAdmin(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, fake.Calls("isCallerAdmin"))
		assert.Equal(t, i, fake.Calls("getCallerRole"))
	}
}

func TestVerify_SeesDemotion(t *testing.T) {
	svc, fake, _ := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleAdmin)

	ok, err := svc.VerifyAdmin(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	fake.SetCaller("user:alice", sdk.RoleUser)
	ok, err = svc.VerifyAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, svc.Confirmed())
}

func TestAssignCaller_BootstrapsAndInvalidates(t *testing.T) {
	svc, fake, c := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleUser)

	res, err := svc.Resolve(context.Background())
	require.NoError(t, err)
	require.False(t, res.Admin)

	require.NoError(t, svc.AssignCaller(context.Background(), sdk.RoleAdmin))
	for _, key := range cache.InvalidationSet(cache.MutationAssignCallerUserRole) {
		assert.True(t, c.Peek(key).Stale, key)
	}

	res, err = svc.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Admin)
}

func TestAssign_RequiresAdmin(t *testing.T) {
	svc, fake, _ := setup(t, true)
	fake.SetCaller("user:alice", sdk.RoleAdmin)
	fake.SetCaller("user:bob", sdk.RoleUser)

	err := svc.Assign(context.Background(), "user:carol", sdk.RoleAdmin)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	err = svc.AssignCaller(context.Background(), sdk.RoleAdmin)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func ptr[T any](v T) *T { return &v }
