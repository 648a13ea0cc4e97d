package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/alicebob/miniredis/v2"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/bunx"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/migrations"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/services/agency"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"
)

const testPassword = "correct horse battery"

type testServer struct {
	srv     *httptest.Server
	redis   *miniredis.Miniredis
	metrics *sdkmetric.ManualReader
}

func newTestServer(t *testing.T, usernames ...string) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := bunx.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })
	_, err = migrations.Apply(ctx, db)
	require.NoError(t, err)

	users := repository.NewBunUserRepository(db)
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	for _, name := range usernames {
		require.NoError(t, users.Create(ctx, &models.User{Username: name, PasswordHash: hash}))
	}

	roles := repository.NewBunRoleRepository(db)
	enforcer, err := auth.InitEnforcer(roles)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)

	svc := agency.NewService(agency.Dependencies{
		Inquiries: repository.NewBunInquiryRepository(db),
		Profiles:  repository.NewBunProfileRepository(db),
		Roles:     roles,
		Users:     users,
		Enforcer:  enforcer,
		Tokens:    tokens,
		Logger:    logger,
	})

	reader := sdkmetric.NewManualReader()
	rpcMetrics, err := telemetry.NewRPCMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = cache.Close() })

	router := NewRouter(RouterOptions{
		Handler: NewAgencyServiceHandler(svc, logger),
		ConnectInterceptors: []connect.Interceptor{
			NewTelemetryInterceptor(rpcMetrics),
			NewLoginThrottle(cache, 5, nil, logger),
			NewAuthnInterceptor(auth.Chain{tokens}, logger),
			NewAuthzInterceptor(enforcer, logger),
		},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, redis: mr, metrics: reader}
}

func (ts *testServer) anonymous() *sdk.Client {
	return sdk.NewClient(ts.srv.URL, sdk.WithHTTPClient(ts.srv.Client()))
}

func (ts *testServer) login(t *testing.T, username string) *sdk.Client {
	t.Helper()
	tok, err := ts.anonymous().Login(context.Background(), username, testPassword)
	require.NoError(t, err)
	require.Equal(t, "user:"+username, tok.Principal)
	return sdk.NewClient(ts.srv.URL,
		sdk.WithHTTPClient(ts.srv.Client()),
		sdk.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok.Token})),
	)
}

func inquiry(name string) sdk.Inquiry {
	return sdk.Inquiry{
		FullName:     name,
		EmailAddress: strings.ToLower(name) + "@example.com",
		PhoneNumber:  "555-0100",
		CompanyName:  "Acme",
		WebsiteType:  "Portfolio",
		Features:     "Gallery",
		Budget:       "$5k",
		Deadline:     "next quarter",
	}
}

func TestServer_AnonymousSubmitThenAdminReview(t *testing.T) {
	ts := newTestServer(t, "alice")
	ctx := context.Background()

	anon := ts.anonymous()
	id, err := anon.SubmitInquiry(ctx, inquiry("Grace"))
	require.NoError(t, err)
	assert.Equal(t, sdk.InquiryID(0), id)

	role, err := anon.GetCallerRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, sdk.RoleGuest, role)

	_, err = anon.GetAllInquiries(ctx)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	alice := ts.login(t, "alice")
	role, err = alice.GetCallerRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, sdk.RoleUser, role)

	require.NoError(t, alice.AssignCallerUserRole(ctx, sdk.RoleAdmin))
	admin, err := alice.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, admin)

	second, err := anon.SubmitInquiry(ctx, inquiry("Linus"))
	require.NoError(t, err)
	assert.Equal(t, sdk.InquiryID(1), second)

	entries, err := alice.GetAllInquiries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Grace", entries[0].Inquiry.FullName)

	got, err := alice.GetInquiry(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Linus", got.FullName)

	require.NoError(t, alice.DeleteInquiry(ctx, 0))
	entries, err = alice.GetAllInquiries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sdk.InquiryID(1), entries[0].ID)

	err = alice.DeleteInquiry(ctx, 0)
	assert.ErrorIs(t, err, sdk.ErrNotFound)

	missing, err := alice.GetInquiry(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestServer_NonAdminIsDenied(t *testing.T) {
	ts := newTestServer(t, "alice", "bob")
	ctx := context.Background()

	alice := ts.login(t, "alice")
	require.NoError(t, alice.AssignCallerUserRole(ctx, sdk.RoleAdmin))

	bob := ts.login(t, "bob")
	_, err := bob.GetAllInquiries(ctx)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
	err = bob.DeleteInquiry(ctx, 0)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	// The bootstrap window closed once alice became admin.
	err = bob.AssignCallerUserRole(ctx, sdk.RoleAdmin)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	require.NoError(t, bob.SaveCallerUserProfile(ctx, sdk.UserProfile{Name: "Bob"}))
	own, err := bob.GetUserProfile(ctx, "user:bob")
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, "Bob", own.Name)

	_, err = bob.GetUserProfile(ctx, "user:alice")
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	profiles, err := alice.GetAllUserProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, sdk.OwnerID("user:bob"), profiles[0].Owner)

	require.NoError(t, alice.AssignUserRole(ctx, "user:bob", sdk.RoleAdmin))
	_, err = bob.GetAllInquiries(ctx)
	assert.NoError(t, err)
}

func TestServer_CallerProfileRequiresIdentity(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.anonymous().GetCallerUserProfile(ctx)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestServer_InvalidFieldsAreReported(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	// The SDK validates locally, so go through the raw client.
	rpc := agencyv1connect.NewAgencyServiceClient(ts.srv.Client(), ts.srv.URL)
	_, err := rpc.SubmitInquiry(ctx, connect.NewRequest(&agencyv1.SubmitInquiryRequest{
		Inquiry: agencyv1.Inquiry{FullName: "Only A Name"},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	fields := strings.Split(cerr.Meta().Get(sdk.InvalidFieldsHeader), ",")
	assert.Contains(t, fields, sdk.FieldEmailAddress)
	assert.Contains(t, fields, sdk.FieldDeadline)
	assert.NotContains(t, fields, sdk.FieldFullName)
	assert.NotContains(t, fields, sdk.FieldAdditionalNotes)
}

func TestServer_RejectsInvalidToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	client := sdk.NewClient(ts.srv.URL,
		sdk.WithHTTPClient(ts.srv.Client()),
		sdk.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "not-a-jwt"})),
	)
	_, err := client.GetCallerRole(ctx)
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestServer_LoginThrottle(t *testing.T) {
	ts := newTestServer(t, "carol")
	ctx := context.Background()
	anon := ts.anonymous()

	for i := 0; i < 5; i++ {
		_, err := anon.Login(ctx, "carol", "wrong password")
		require.ErrorIs(t, err, sdk.ErrUnauthorized, "attempt %d", i+1)
	}
	_, err := anon.Login(ctx, "carol", testPassword)
	assert.ErrorIs(t, err, sdk.ErrUnavailable)

	// Other usernames have their own budget.
	_, err = anon.Login(ctx, "dave", "whatever")
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestServer_LoginThrottleFailsOpen(t *testing.T) {
	ts := newTestServer(t, "carol")
	ts.redis.Close()

	tok, err := ts.anonymous().Login(context.Background(), "carol", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
}

func TestServer_RecordsRPCMetrics(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	anon := ts.anonymous()

	_, err := anon.SubmitInquiry(ctx, inquiry("Grace"))
	require.NoError(t, err)
	_, err = anon.GetAllInquiries(ctx)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, ts.metrics.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				counts[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["rpc.server.call.count"])
	assert.Equal(t, int64(1), counts["rpc.server.error.count"])
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"field error", &sdk.FieldError{Fields: map[string]string{"name": "required"}}, connect.CodeInvalidArgument},
		{"unauthenticated", agency.ErrUnauthenticated, connect.CodeUnauthenticated},
		{"bad credentials", auth.ErrInvalidCredentials, connect.CodeUnauthenticated},
		{"forbidden", agency.ErrForbidden, connect.CodePermissionDenied},
		{"not found", agency.ErrNotFound, connect.CodeNotFound},
		{"login disabled", agency.ErrLoginDisabled, connect.CodeFailedPrecondition},
		{"other", errors.New("disk on fire"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapServiceError(tt.err)
			assert.Equal(t, tt.want, connect.CodeOf(got))
		})
	}

	internal := mapServiceError(errors.New("disk on fire"))
	assert.NotContains(t, internal.Error(), "disk")
}
