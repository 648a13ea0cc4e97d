// Package gatewaytest provides an in-memory backend for client-side tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// Fake implements every gateway operation in memory. It behaves like the
// reference backend for a single caller: admin-only operations return
// sdk.ErrUnauthorized unless the caller role is admin.
type Fake struct {
	mu sync.Mutex

	caller    sdk.OwnerID
	roles     map[sdk.OwnerID]sdk.Role
	adminFlag *bool

	inquiries []sdk.InquiryEntry
	nextID    sdk.InquiryID
	profiles  []sdk.ProfileEntry

	calls  map[string]int
	errs   map[string]error
	before map[string]func()
}

// New returns a Fake whose caller is anonymous.
func New() *Fake {
	return &Fake{
		roles:  make(map[sdk.OwnerID]sdk.Role),
		calls:  make(map[string]int),
		errs:   make(map[string]error),
		before: make(map[string]func()),
	}
}

// SetCaller changes the principal issuing subsequent calls.
func (f *Fake) SetCaller(owner sdk.OwnerID, role sdk.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caller = owner
	if owner != "" {
		f.roles[owner] = role
	}
}

// SetAdminFlag makes IsCallerAdmin answer v regardless of the caller role.
func (f *Fake) SetAdminFlag(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminFlag = &v
}

// FailWith makes op return err until cleared with a nil err.
func (f *Fake) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Before runs hook at the start of every call to op, outside the lock.
func (f *Fake) Before(op string, hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before[op] = hook
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// SeedInquiry stores an inquiry directly and returns its id.
func (f *Fake) SeedInquiry(in sdk.Inquiry) sdk.InquiryID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertInquiryLocked(in)
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	hook := f.before[op]
	err := f.errs[op]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (f *Fake) roleLocked() sdk.Role {
	if f.caller == "" {
		return sdk.RoleGuest
	}
	if r, ok := f.roles[f.caller]; ok {
		return r
	}
	return sdk.RoleUser
}

func (f *Fake) requireAdminLocked() error {
	if f.roleLocked() != sdk.RoleAdmin {
		return fmt.Errorf("%w: admin role required", sdk.ErrUnauthorized)
	}
	return nil
}

func (f *Fake) insertInquiryLocked(in sdk.Inquiry) sdk.InquiryID {
	id := f.nextID
	f.nextID++
	f.inquiries = append(f.inquiries, sdk.InquiryEntry{ID: id, Inquiry: in})
	return id
}

func (f *Fake) GetCallerUserProfile(ctx context.Context) (*sdk.UserProfile, error) {
	if err := f.enter("getCallerUserProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.caller == "" {
		return nil, fmt.Errorf("%w: anonymous caller", sdk.ErrUnauthorized)
	}
	for _, p := range f.profiles {
		if p.Owner == f.caller {
			profile := p.Profile
			return &profile, nil
		}
	}
	return nil, nil
}

func (f *Fake) SaveCallerUserProfile(ctx context.Context, profile sdk.UserProfile) error {
	if err := f.enter("saveCallerUserProfile"); err != nil {
		return err
	}
	if err := sdk.ValidateProfileName(profile.Name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.caller == "" {
		return fmt.Errorf("%w: anonymous caller", sdk.ErrUnauthorized)
	}
	for i, p := range f.profiles {
		if p.Owner == f.caller {
			f.profiles[i].Profile = profile
			return nil
		}
	}
	f.profiles = append(f.profiles, sdk.ProfileEntry{Owner: f.caller, Profile: profile})
	return nil
}

func (f *Fake) GetCallerRole(ctx context.Context) (sdk.Role, error) {
	if err := f.enter("getCallerRole"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roleLocked(), nil
}

func (f *Fake) IsCallerAdmin(ctx context.Context) (bool, error) {
	if err := f.enter("isCallerAdmin"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminFlag != nil {
		return *f.adminFlag, nil
	}
	return f.roleLocked() == sdk.RoleAdmin, nil
}

func (f *Fake) GetAllUserProfiles(ctx context.Context) ([]sdk.ProfileEntry, error) {
	if err := f.enter("getAllUserProfiles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return nil, err
	}
	out := make([]sdk.ProfileEntry, len(f.profiles))
	copy(out, f.profiles)
	return out, nil
}

func (f *Fake) GetUserProfile(ctx context.Context, owner sdk.OwnerID) (*sdk.UserProfile, error) {
	if err := f.enter("getUserProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if owner != f.caller {
		if err := f.requireAdminLocked(); err != nil {
			return nil, err
		}
	}
	for _, p := range f.profiles {
		if p.Owner == owner {
			profile := p.Profile
			return &profile, nil
		}
	}
	return nil, nil
}

func (f *Fake) DeleteUserProfile(ctx context.Context, owner sdk.OwnerID) error {
	if err := f.enter("deleteUserProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return err
	}
	for i, p := range f.profiles {
		if p.Owner == owner {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: profile %s", sdk.ErrNotFound, owner)
}

func (f *Fake) AssignCallerUserRole(ctx context.Context, role sdk.Role) error {
	if err := f.enter("assignCallerUserRole"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.caller == "" {
		return fmt.Errorf("%w: anonymous caller", sdk.ErrUnauthorized)
	}
	if f.roleLocked() != sdk.RoleAdmin && f.hasAdminLocked() {
		return fmt.Errorf("%w: admin role required", sdk.ErrUnauthorized)
	}
	f.roles[f.caller] = role
	return nil
}

func (f *Fake) hasAdminLocked() bool {
	for _, r := range f.roles {
		if r == sdk.RoleAdmin {
			return true
		}
	}
	return false
}

func (f *Fake) AssignUserRole(ctx context.Context, target sdk.OwnerID, role sdk.Role) error {
	if err := f.enter("assignUserRole"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return err
	}
	f.roles[target] = role
	return nil
}

func (f *Fake) SubmitInquiry(ctx context.Context, in sdk.Inquiry) (sdk.InquiryID, error) {
	if err := f.enter("submitInquiry"); err != nil {
		return 0, err
	}
	if err := sdk.ValidateInquiry(in); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertInquiryLocked(in), nil
}

func (f *Fake) GetAllInquiries(ctx context.Context) ([]sdk.InquiryEntry, error) {
	if err := f.enter("getAllInquiries"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return nil, err
	}
	out := make([]sdk.InquiryEntry, len(f.inquiries))
	copy(out, f.inquiries)
	return out, nil
}

func (f *Fake) GetInquiry(ctx context.Context, id sdk.InquiryID) (*sdk.Inquiry, error) {
	if err := f.enter("getInquiry"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return nil, err
	}
	for _, e := range f.inquiries {
		if e.ID == id {
			in := e.Inquiry
			return &in, nil
		}
	}
	return nil, nil
}

func (f *Fake) DeleteInquiry(ctx context.Context, id sdk.InquiryID) error {
	if err := f.enter("deleteInquiry"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireAdminLocked(); err != nil {
		return err
	}
	for i, e := range f.inquiries {
		if e.ID == id {
			f.inquiries = append(f.inquiries[:i], f.inquiries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: inquiry %d", sdk.ErrNotFound, id)
}
