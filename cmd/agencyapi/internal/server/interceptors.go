package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"github.com/casbin/casbin/v2"
	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
)

// NewAuthnInterceptor authenticates the bearer token when one is present and
// stores the principal on the context. Requests without an Authorization
// header continue anonymously; a token that fails verification is rejected.
func NewAuthnInterceptor(authenticator auth.Authenticator, logger *slog.Logger) connect.UnaryInterceptorFunc {
	tokenStrings := [][]options.TokenStringOption{{}}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Header().Get("Authorization") == "" {
				return next(ctx, req)
			}

			token, err := oidctoken.GetTokenString(req.Header().Get, tokenStrings)
			if err != nil || strings.TrimSpace(token) == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("malformed authorization header"))
			}

			principal, err := authenticator.Authenticate(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.DebugContext(ctx, "authentication failed", "procedure", req.Spec().Procedure, "error", err)
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}
			return next(auth.WithPrincipal(ctx, *principal), req)
		}
	}
}

type permission struct {
	obj, act string
	// authenticated rejects anonymous callers before the role check.
	authenticated bool
}

// procedurePermissions maps every procedure to the permission it needs.
// GetUserProfile is resolved per request and Login is public.
var procedurePermissions = map[string]permission{
	agencyv1connect.AgencyServiceSubmitInquiryProcedure:         {auth.ObjectInquiry, auth.ActionSubmit, false},
	agencyv1connect.AgencyServiceGetCallerRoleProcedure:         {auth.ObjectRole, auth.ActionRead, false},
	agencyv1connect.AgencyServiceIsCallerAdminProcedure:         {auth.ObjectRole, auth.ActionRead, false},
	agencyv1connect.AgencyServiceGetCallerUserProfileProcedure:  {auth.ObjectProfile, auth.ActionSelf, true},
	agencyv1connect.AgencyServiceSaveCallerUserProfileProcedure: {auth.ObjectProfile, auth.ActionSelf, true},
	agencyv1connect.AgencyServiceAssignCallerUserRoleProcedure:  {auth.ObjectRole, auth.ActionRead, true},
	agencyv1connect.AgencyServiceGetAllUserProfilesProcedure:    {auth.ObjectProfile, auth.ActionRead, true},
	agencyv1connect.AgencyServiceDeleteUserProfileProcedure:     {auth.ObjectProfile, auth.ActionDelete, true},
	agencyv1connect.AgencyServiceAssignUserRoleProcedure:        {auth.ObjectRole, auth.ActionAssign, true},
	agencyv1connect.AgencyServiceGetAllInquiriesProcedure:       {auth.ObjectInquiry, auth.ActionRead, true},
	agencyv1connect.AgencyServiceGetInquiryProcedure:            {auth.ObjectInquiry, auth.ActionRead, true},
	agencyv1connect.AgencyServiceDeleteInquiryProcedure:         {auth.ObjectInquiry, auth.ActionDelete, true},
}

// NewAuthzInterceptor enforces the casbin policy for each procedure.
// Unknown procedures are denied.
func NewAuthzInterceptor(enforcer casbin.IEnforcer, logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			if procedure == agencyv1connect.AgencyServiceLoginProcedure {
				return next(ctx, req)
			}

			principal, authenticated := auth.PrincipalFromContext(ctx)

			perm, ok := procedurePermissions[procedure]
			if procedure == agencyv1connect.AgencyServiceGetUserProfileProcedure {
				perm, ok = permission{auth.ObjectProfile, auth.ActionRead, true}, true
				if r, isReq := req.Any().(*agencyv1.GetUserProfileRequest); isReq && authenticated && r.Owner == principal.ID {
					perm.act = auth.ActionSelf
				}
			}
			if !ok {
				return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("procedure %s is not allowed", procedure))
			}

			if perm.authenticated && !authenticated {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
			}

			role, err := auth.EffectiveRole(enforcer, principal.ID)
			if err != nil {
				logger.ErrorContext(ctx, "role lookup failed", "principal", principal.ID, "error", err)
				return nil, connect.NewError(connect.CodeInternal, errors.New("authorization unavailable"))
			}
			allowed, err := auth.Allowed(enforcer, role, perm.obj, perm.act)
			if err != nil {
				logger.ErrorContext(ctx, "policy evaluation failed", "procedure", procedure, "error", err)
				return nil, connect.NewError(connect.CodeInternal, errors.New("authorization unavailable"))
			}
			telemetry.AddEvent(trace.SpanFromContext(ctx), "policy.evaluated",
				attribute.String(telemetry.AttrPrincipalID, principal.ID),
				attribute.String(telemetry.AttrRole, role),
				attribute.String(telemetry.AttrPolicyObject, perm.obj),
				attribute.String(telemetry.AttrPolicyAction, perm.act),
				attribute.Bool(telemetry.AttrPolicyAllowed, allowed),
			)
			if !allowed {
				logger.InfoContext(ctx, "permission denied",
					"procedure", procedure, "principal", principal.ID, "role", role)
				return nil, connect.NewError(connect.CodePermissionDenied,
					fmt.Errorf("role %s may not %s %s", role, perm.act, perm.obj))
			}
			return next(ctx, req)
		}
	}
}
