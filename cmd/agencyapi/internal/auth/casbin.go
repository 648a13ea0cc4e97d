package auth

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/repository"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
)

//go:embed model.conf
var casbinModelContent string

//go:embed policy.csv
var casbinPolicyContent string

var errReadOnlyPolicy = errors.New("casbin policy is read-only; change role_assignments instead")

// InitEnforcer creates a Casbin enforcer whose role permissions come from the
// embedded policy and whose principal bindings come from role_assignments.
// Call LoadPolicy on the enforcer after changing an assignment.
func InitEnforcer(roles repository.RoleRepository) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, &roleAdapter{roles: roles})
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	enforcer.EnableAutoSave(false)

	return enforcer, nil
}

// roleAdapter is a load-only casbin adapter.
type roleAdapter struct {
	roles repository.RoleRepository
}

func (a *roleAdapter) LoadPolicy(m model.Model) error {
	scanner := bufio.NewScanner(strings.NewReader(casbinPolicyContent))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := persist.LoadPolicyLine(line, m); err != nil {
			return fmt.Errorf("load policy line %q: %w", line, err)
		}
	}

	assignments, err := a.roles.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load role assignments: %w", err)
	}
	for _, ra := range assignments {
		line := fmt.Sprintf("g, %s, %s", ra.Principal, RoleSubject(ra.Role))
		if err := persist.LoadPolicyLine(line, m); err != nil {
			return fmt.Errorf("load role binding for %s: %w", ra.Principal, err)
		}
	}
	return nil
}

func (a *roleAdapter) SavePolicy(model.Model) error { return errReadOnlyPolicy }

func (a *roleAdapter) AddPolicy(string, string, []string) error { return errReadOnlyPolicy }

func (a *roleAdapter) RemovePolicy(string, string, []string) error { return errReadOnlyPolicy }

func (a *roleAdapter) RemoveFilteredPolicy(string, string, int, ...string) error {
	return errReadOnlyPolicy
}

// EffectiveRole returns the role bound to principalID. Anonymous callers are
// guests; authenticated callers without an assignment are users.
func EffectiveRole(enforcer casbin.IEnforcer, principalID string) (string, error) {
	if principalID == "" {
		return RoleGuest, nil
	}
	bound, err := enforcer.GetRolesForUser(principalID)
	if err != nil {
		return "", fmt.Errorf("get roles for %s: %w", principalID, err)
	}
	for _, subject := range bound {
		if role, ok := strings.CutPrefix(subject, "role:"); ok {
			return role, nil
		}
	}
	return RoleUser, nil
}

// Allowed reports whether role may perform act on obj.
func Allowed(enforcer casbin.IEnforcer, role, obj, act string) (bool, error) {
	ok, err := enforcer.Enforce(RoleSubject(role), obj, act)
	if err != nil {
		return false, fmt.Errorf("enforce %s %s %s: %w", role, obj, act, err)
	}
	return ok, nil
}
