package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = strings.Repeat("k", 32)

type stubRoles struct {
	assignments []models.RoleAssignment
}

func (s *stubRoles) Get(_ context.Context, principal string) (*models.RoleAssignment, error) {
	for _, ra := range s.assignments {
		if ra.Principal == principal {
			return &ra, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRoles) Upsert(_ context.Context, a *models.RoleAssignment) error {
	for i, ra := range s.assignments {
		if ra.Principal == a.Principal {
			s.assignments[i] = *a
			return nil
		}
	}
	s.assignments = append(s.assignments, *a)
	return nil
}

func (s *stubRoles) List(context.Context) ([]models.RoleAssignment, error) {
	return s.assignments, nil
}

func (s *stubRoles) CountByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, ra := range s.assignments {
		if ra.Role == role {
			n++
		}
	}
	return n, nil
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(secret, time.Hour)
	require.NoError(t, err)

	tok, err := issuer.Issue("ada")
	require.NoError(t, err)
	assert.Equal(t, "user:ada", tok.Principal)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)

	p, err := issuer.Authenticate(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user:ada", p.ID)
	assert.Equal(t, "ada", p.Subject)
	assert.Equal(t, MethodSessionToken, p.Method)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer(secret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)

	expired, err := NewTokenIssuer(secret, time.Minute)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredTok, err := expired.Issue("ada")
	require.NoError(t, err)

	foreign, err := other.Issue("ada")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    TokenIssuerName,
		Subject:   "ada",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"other secret", foreign.Token},
		{"expired", expiredTok.Token},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Authenticate(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	_, err := NewTokenIssuer("short", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer(secret, 0)
	assert.Error(t, err)
}

type authFunc func(context.Context, string) (*Principal, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*Principal, error) {
	return f(ctx, token)
}

func TestChain(t *testing.T) {
	reject := authFunc(func(context.Context, string) (*Principal, error) {
		return nil, errors.New("nope")
	})
	accept := authFunc(func(_ context.Context, token string) (*Principal, error) {
		return &Principal{ID: UserID(token), Subject: token, Method: MethodOIDC}, nil
	})

	p, err := Chain{reject, accept}.Authenticate(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "user:ada", p.ID)

	_, err = Chain{reject, reject}.Authenticate(context.Background(), "ada")
	assert.Error(t, err)

	_, err = Chain{}.Authenticate(context.Background(), "ada")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewOIDCVerifier_RequiresIssuerAndAudience(t *testing.T) {
	_, err := NewOIDCVerifier("", "agencyapi")
	assert.Error(t, err)
	_, err = NewOIDCVerifier("https://idp.example.com", "")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestEnforcer_RolesAndPermissions(t *testing.T) {
	roles := &stubRoles{assignments: []models.RoleAssignment{
		{Principal: "user:ada", Role: RoleAdmin},
		{Principal: "user:eve", Role: RoleGuest},
	}}
	enforcer, err := InitEnforcer(roles)
	require.NoError(t, err)

	roleTests := []struct {
		principal string
		want      string
	}{
		{"", RoleGuest},
		{"user:ada", RoleAdmin},
		{"user:eve", RoleGuest},
		{"user:bob", RoleUser},
	}
	for _, tt := range roleTests {
		got, err := EffectiveRole(enforcer, tt.principal)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "principal %q", tt.principal)
	}

	permTests := []struct {
		role, obj, act string
		want           bool
	}{
		{RoleGuest, ObjectInquiry, ActionSubmit, true},
		{RoleGuest, ObjectInquiry, ActionRead, false},
		{RoleUser, ObjectProfile, ActionSelf, true},
		{RoleUser, ObjectProfile, ActionRead, false},
		{RoleUser, ObjectRole, ActionAssign, false},
		{RoleAdmin, ObjectInquiry, ActionRead, true},
		{RoleAdmin, ObjectInquiry, ActionDelete, true},
		{RoleAdmin, ObjectProfile, ActionDelete, true},
		{RoleAdmin, ObjectRole, ActionAssign, true},
		{RoleAdmin, ObjectInquiry, ActionSubmit, true},
	}
	for _, tt := range permTests {
		ok, err := Allowed(enforcer, tt.role, tt.obj, tt.act)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s %s %s", tt.role, tt.obj, tt.act)
	}
}

func TestEnforcer_ReloadPicksUpAssignments(t *testing.T) {
	roles := &stubRoles{}
	enforcer, err := InitEnforcer(roles)
	require.NoError(t, err)

	role, err := EffectiveRole(enforcer, "user:ada")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	require.NoError(t, roles.Upsert(context.Background(), &models.RoleAssignment{Principal: "user:ada", Role: RoleAdmin}))
	require.NoError(t, enforcer.LoadPolicy())

	role, err = EffectiveRole(enforcer, "user:ada")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	assert.ErrorIs(t, enforcer.SavePolicy(), errReadOnlyPolicy)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{ID: "user:ada"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user:ada", p.ID)
}
