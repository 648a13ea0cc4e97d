// Package agency implements the inquiry, profile, role and login operations
// behind agency.v1.AgencyService. Callers are taken from the request context;
// static permission checks happen in the authorization interceptor.
package agency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/casbin/casbin/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnauthenticated is returned when an operation needs a caller identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrLoginDisabled is returned by Login when no token secret is configured.
	ErrLoginDisabled = errors.New("password login is not enabled")
)

// Dependencies wires the service to storage and authorization.
type Dependencies struct {
	Inquiries repository.InquiryRepository
	Profiles  repository.ProfileRepository
	Roles     repository.RoleRepository
	Users     repository.UserRepository
	Enforcer  casbin.IEnforcer
	// Tokens signs session tokens for Login. Nil disables password login.
	Tokens *auth.TokenIssuer
	Logger *slog.Logger

	// LoginMetrics is optional.
	LoginMetrics *telemetry.LoginMetrics
}

// Service orchestrates persistence and role decisions for RPC handlers.
type Service struct {
	deps   Dependencies
	logger *slog.Logger

	// assignMu serializes role changes so two first callers cannot both
	// pass the bootstrap check.
	assignMu sync.Mutex
}

// NewService constructs a Service.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "agency")}
}

func caller(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.ID == "" {
		return auth.Principal{}, ErrUnauthenticated
	}
	return p, nil
}

func callerID(ctx context.Context) string {
	p, _ := auth.PrincipalFromContext(ctx)
	return p.ID
}

// RoleOf returns the effective role of principalID ("" for anonymous).
func (s *Service) RoleOf(principalID string) (string, error) {
	return auth.EffectiveRole(s.deps.Enforcer, principalID)
}

// CallerRole returns the caller's effective role.
func (s *Service) CallerRole(ctx context.Context) (string, error) {
	return s.RoleOf(callerID(ctx))
}

// IsCallerAdmin reports whether the caller currently holds the admin role.
func (s *Service) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := s.CallerRole(ctx)
	if err != nil {
		return false, err
	}
	return role == auth.RoleAdmin, nil
}

// CallerProfile returns the caller's profile, or nil when none was saved yet.
func (s *Service) CallerProfile(ctx context.Context) (*models.Profile, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, p.ID)
}

// SaveCallerProfile creates or overwrites the caller's profile.
func (s *Service) SaveCallerProfile(ctx context.Context, name string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := sdk.ValidateProfileName(name); err != nil {
		return err
	}
	if err := s.deps.Profiles.Upsert(ctx, p.ID, name); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile saved", "owner", p.ID)
	return nil
}

// GetProfile returns owner's profile, or nil when absent.
func (s *Service) GetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	profile, err := s.deps.Profiles.Get(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// ListProfiles returns every profile in creation order.
func (s *Service) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.deps.Profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes owner's profile. Returns ErrNotFound when absent.
func (s *Service) DeleteProfile(ctx context.Context, owner string) error {
	if err := s.deps.Profiles.Delete(ctx, owner); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "profile deleted", "owner", owner, "by", callerID(ctx))
	return nil
}

// AssignCallerRole sets the caller's own role. Admins may pick any role.
// While no admin exists, any authenticated caller may, which is how the
// first admin is created.
func (s *Service) AssignCallerRole(ctx context.Context, role string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	role, err = parseRole(role)
	if err != nil {
		return err
	}

	s.assignMu.Lock()
	defer s.assignMu.Unlock()

	current, err := s.RoleOf(p.ID)
	if err != nil {
		return err
	}
	if current != auth.RoleAdmin {
		admins, err := s.deps.Roles.CountByRole(ctx, auth.RoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins > 0 {
			return fmt.Errorf("%w: only an admin may change roles once an admin exists", ErrForbidden)
		}
		s.logger.WarnContext(ctx, "bootstrapping role assignment; no admin exists", "principal", p.ID, "role", role)
		telemetry.AddEvent(trace.SpanFromContext(ctx), "role.bootstrap",
			attribute.String(telemetry.AttrPrincipalID, p.ID),
			attribute.String(telemetry.AttrRole, role),
		)
	}
	return s.assignLocked(ctx, p.ID, role, p.ID)
}

// AssignRole sets target's role. The caller must be an admin, which the
// authorization interceptor enforces.
func (s *Service) AssignRole(ctx context.Context, target, role string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return &sdk.FieldError{Fields: map[string]string{"target": "required"}}
	}
	role, err := parseRole(role)
	if err != nil {
		return err
	}

	s.assignMu.Lock()
	defer s.assignMu.Unlock()
	return s.assignLocked(ctx, target, role, callerID(ctx))
}

func (s *Service) assignLocked(ctx context.Context, principal, role, by string) error {
	err := s.deps.Roles.Upsert(ctx, &models.RoleAssignment{
		Principal:  principal,
		Role:       role,
		AssignedBy: by,
		AssignedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	if err := s.deps.Enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload role bindings: %w", err)
	}
	s.logger.InfoContext(ctx, "role assigned", "principal", principal, "role", role, "by", by)
	return nil
}

func parseRole(role string) (string, error) {
	r, err := sdk.ParseRole(role)
	if err != nil {
		return "", &sdk.FieldError{Fields: map[string]string{"role": "must be admin, user or guest"}}
	}
	return string(r), nil
}

// SubmitInquiry validates and stores an inquiry, returning its new id.
// Anonymous callers may submit.
func (s *Service) SubmitInquiry(ctx context.Context, in sdk.Inquiry) (uint64, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAgency, "agency.SubmitInquiry")
	defer span.End()

	if err := sdk.ValidateInquiry(in); err != nil {
		telemetry.AddEvent(span, "validation.failed", attribute.String("error", err.Error()))
		return 0, err
	}
	row := inquiryModel(in)
	if err := s.deps.Inquiries.Create(ctx, row); err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to submit inquiry: %w", err)
	}
	span.SetAttributes(attribute.Int64(telemetry.AttrInquiryID, int64(row.ID)))
	s.logger.InfoContext(ctx, "inquiry submitted", "id", row.ID, "website_type", row.WebsiteType)
	return row.ID, nil
}

// ListInquiries returns every inquiry in id order.
func (s *Service) ListInquiries(ctx context.Context) ([]models.Inquiry, error) {
	rows, err := s.deps.Inquiries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return rows, nil
}

// GetInquiry returns the inquiry with id, or nil when absent.
func (s *Service) GetInquiry(ctx context.Context, id uint64) (*models.Inquiry, error) {
	row, err := s.deps.Inquiries.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}
	return row, nil
}

// DeleteInquiry removes the inquiry with id. Returns ErrNotFound when absent.
func (s *Service) DeleteInquiry(ctx context.Context, id uint64) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAgency, "agency.DeleteInquiry",
		attribute.Int64(telemetry.AttrInquiryID, int64(id)),
		attribute.String(telemetry.AttrPrincipalID, callerID(ctx)),
	)
	defer span.End()

	if err := s.deps.Inquiries.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.InfoContext(ctx, "inquiry deleted", "id", id, "by", callerID(ctx))
	return nil
}

// Login checks local credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*auth.SessionToken, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerAgency, "agency.Login")
	defer span.End()

	token, err := s.login(ctx, username, password)
	if m := s.deps.LoginMetrics; m != nil {
		m.Attempts.Add(ctx, 1)
		if err != nil {
			m.Failures.Add(ctx, 1)
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrPrincipalID, token.Principal))
	return token, nil
}

func (s *Service) login(ctx context.Context, username, password string) (*auth.SessionToken, error) {
	if s.deps.Tokens == nil || s.deps.Users == nil {
		return nil, ErrLoginDisabled
	}
	username = strings.TrimSpace(username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return nil, &sdk.FieldError{Fields: fields}
	}

	user, err := s.deps.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.DisabledAt != nil {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "login failed", "username", username)
		return nil, err
	}

	token, err := s.deps.Tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "login succeeded", "principal", token.Principal)
	return token, nil
}

func inquiryModel(in sdk.Inquiry) *models.Inquiry {
	return &models.Inquiry{
		FullName:        in.FullName,
		EmailAddress:    in.EmailAddress,
		PhoneNumber:     in.PhoneNumber,
		CompanyName:     in.CompanyName,
		WebsiteType:     in.WebsiteType,
		Features:        in.Features,
		Budget:          in.Budget,
		Deadline:        in.Deadline,
		AdditionalNotes: in.AdditionalNotes,
	}
}
