package forms

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// OwnProfiles reads and writes the caller's own profile.
type OwnProfiles interface {
	Own(ctx context.Context) (*sdk.UserProfile, error)
	SaveOwn(ctx context.Context, name string) error
}

// ProfileSetup is the prompt shown to a signed-in caller who has not saved
// a profile yet.
type ProfileSetup struct {
	profiles OwnProfiles

	mu       sync.Mutex
	open     bool
	name     string
	fieldErr string
	err      error
}

func NewProfileSetup(profiles OwnProfiles) *ProfileSetup {
	return &ProfileSetup{profiles: profiles}
}

// Refresh loads the caller's profile and opens the prompt when it is absent.
func (p *ProfileSetup) Refresh(ctx context.Context) error {
	profile, err := p.profiles.Own(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.open = false
		p.err = err
		return err
	}
	p.err = nil
	p.open = profile == nil
	return nil
}

// Open reports whether the prompt is showing.
func (p *ProfileSetup) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *ProfileSetup) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
	p.fieldErr = ""
}

// FieldError is the inline error of the name field.
func (p *ProfileSetup) FieldError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fieldErr
}

func (p *ProfileSetup) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Submit saves the trimmed name and closes the prompt on success.
func (p *ProfileSetup) Submit(ctx context.Context) error {
	p.mu.Lock()
	name := strings.TrimSpace(p.name)
	if name == "" {
		p.fieldErr = "required"
		p.mu.Unlock()
		return &sdk.FieldError{Fields: map[string]string{sdk.FieldName: "required"}}
	}
	p.mu.Unlock()

	err := p.profiles.SaveOwn(ctx, name)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		var fe *sdk.FieldError
		if errors.As(err, &fe) {
			p.fieldErr = fe.Field(sdk.FieldName)
		} else {
			p.err = err
		}
		return err
	}
	p.open = false
	p.name = ""
	p.err = nil
	return nil
}
