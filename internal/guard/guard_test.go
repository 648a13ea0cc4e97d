package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type verifierFunc func(ctx context.Context) (bool, error)

func (f verifierFunc) VerifyAdmin(ctx context.Context) (bool, error) { return f(ctx) }

func TestEvaluate(t *testing.T) {
	identities := []IdentitySignal{
		{Initializing: true},
		{Initializing: true, Present: true},
		{},
		{Present: true},
	}
	roles := []RoleSignal{
		{Status: RolePending},
		{Status: RolePending, Admin: true},
		{Status: RoleResolved},
		{Status: RoleResolved, Admin: true},
		{Status: RoleFailed, Err: errors.New("boom")},
		{Status: RoleFailed, Admin: true, Err: errors.New("boom")},
	}

	for _, id := range identities {
		for _, role := range roles {
			t.Run(fmt.Sprintf("%+v/%+v", id, role), func(t *testing.T) {
				got := Evaluate(id, role)
				wantGranted := !id.Initializing && id.Present && role.Status == RoleResolved && role.Admin
				assert.Equal(t, wantGranted, got == Granted)

				switch {
				case id.Initializing:
					assert.Equal(t, Initializing, got)
				case !id.Present:
					assert.Equal(t, Unauthenticated, got)
				case role.Status == RolePending:
					assert.Equal(t, ResolvingRole, got)
				}
			})
		}
	}
}

// Random signal sequences never grant unless the latest role signal is a
// successful admin resolution for a present identity.
func TestGuard_NeverGrantsWithoutResolvedAdmin(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := New(discard)

	var lastID IdentitySignal = IdentitySignal{Initializing: true}
	var lastRole RoleSignal
	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			next := IdentitySignal{Initializing: rng.Intn(4) == 0, Present: rng.Intn(2) == 0}
			if next != lastID {
				lastRole = RoleSignal{Status: RolePending}
			}
			lastID = next
			g.SetIdentity(next)
		} else {
			lastRole = RoleSignal{Status: RoleStatus(rng.Intn(3)), Admin: rng.Intn(2) == 0}
			g.SetRole(lastRole)
		}

		if g.Granted() {
			require.False(t, lastID.Initializing)
			require.True(t, lastID.Present)
			require.Equal(t, RoleResolved, lastRole.Status)
			require.True(t, lastRole.Admin)
		}
	}
}

func TestGuard_Transitions(t *testing.T) {
	g := New(discard)
	var seen []State
	g.OnChange(func(s State) { seen = append(seen, s) })

	assert.Equal(t, Initializing, g.State())

	g.SetIdentity(IdentitySignal{Present: true})
	assert.Equal(t, ResolvingRole, g.State())

	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		return true, nil
	}))
	assert.Equal(t, Granted, state)

	// Logout while granted.
	g.SetIdentity(IdentitySignal{Present: false})
	assert.Equal(t, Unauthenticated, g.State())

	assert.Equal(t, []State{ResolvingRole, Granted, Unauthenticated}, seen)
}

func TestGuard_NonAdminIsDenied(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		return false, nil
	}))
	assert.Equal(t, Denied, state)
	assert.NoError(t, g.Err())
}

func TestGuard_FailedResolutionIsDenied(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	boom := fmt.Errorf("%w: backend down", sdk.ErrUnavailable)
	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		return true, boom
	}))
	assert.Equal(t, Denied, state)
	assert.ErrorIs(t, g.Err(), sdk.ErrUnavailable)
}

func TestGuard_UnauthorizedQueryDenies(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})
	g.SetRole(RoleSignal{Status: RoleResolved, Admin: true})
	require.Equal(t, Granted, g.State())

	g.ReportError(fmt.Errorf("%w: boom", sdk.ErrUnavailable))
	assert.Equal(t, Granted, g.State())

	g.ReportError(fmt.Errorf("list inquiries: %w", sdk.ErrUnauthorized))
	assert.Equal(t, Denied, g.State())
}

func TestGuard_ResolveWithoutIdentityDoesNotCall(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{})

	called := false
	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		called = true
		return true, nil
	}))
	assert.False(t, called)
	assert.Equal(t, Unauthenticated, state)
}

func TestGuard_DropsResultForPreviousIdentity(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		// Identity flips while the role call is in flight.
		g.SetIdentity(IdentitySignal{})
		g.SetIdentity(IdentitySignal{Present: true})
		return true, nil
	}))
	assert.Equal(t, ResolvingRole, state)
}

func TestGuard_CloseDiscardsLateSignals(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	cleaned := false
	g.OnClose(func() { cleaned = true })

	state := g.Resolve(context.Background(), verifierFunc(func(context.Context) (bool, error) {
		g.Close()
		return true, nil
	}))
	assert.True(t, cleaned)
	assert.Equal(t, ResolvingRole, state)

	g.SetRole(RoleSignal{Status: RoleResolved, Admin: true})
	assert.Equal(t, ResolvingRole, g.State())
}

type confirmingVerifier struct {
	verify    func(ctx context.Context) (bool, error)
	confirmed func() bool
}

func (v confirmingVerifier) VerifyAdmin(ctx context.Context) (bool, error) { return v.verify(ctx) }
func (v confirmingVerifier) Confirmed() bool                              { return v.confirmed() }

func TestGuard_InvalidateRole(t *testing.T) {
	g := New(discard)
	assert.False(t, g.InvalidateRole(), "no identity yet")

	g.SetIdentity(IdentitySignal{Present: true})
	assert.False(t, g.InvalidateRole(), "already resolving")

	g.SetRole(RoleSignal{Status: RoleResolved, Admin: true})
	require.Equal(t, Granted, g.State())

	assert.True(t, g.InvalidateRole())
	assert.Equal(t, ResolvingRole, g.State())
	assert.False(t, g.InvalidateRole())

	g.SetRole(RoleSignal{Status: RoleResolved})
	g.Close()
	assert.False(t, g.InvalidateRole())
	assert.Equal(t, Denied, g.State())
}

func TestGuard_RetriesUnconfirmedGrant(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	// The first answer is already outdated when it arrives.
	calls := 0
	state := g.Resolve(context.Background(), confirmingVerifier{
		verify: func(context.Context) (bool, error) {
			calls++
			return calls == 1, nil
		},
		confirmed: func() bool { return false },
	})
	assert.Equal(t, Denied, state)
	assert.Equal(t, 2, calls)
	assert.NoError(t, g.Err())
}

func TestGuard_NeverGrantsUnconfirmedAdmin(t *testing.T) {
	g := New(discard)
	g.SetIdentity(IdentitySignal{Present: true})

	calls := 0
	state := g.Resolve(context.Background(), confirmingVerifier{
		verify: func(context.Context) (bool, error) {
			calls++
			return true, nil
		},
		confirmed: func() bool { return false },
	})
	assert.Equal(t, Denied, state)
	assert.Equal(t, maxResolveAttempts, calls)
	assert.ErrorIs(t, g.Err(), ErrRoleUnsettled)
}
