// Package forms holds the view models of the public contact form and the
// first-login profile setup prompt.
package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// SuccessBannerDuration is how long the confirmation stays visible.
const SuccessBannerDuration = 5 * time.Second

// InquirySubmitter sends a completed inquiry.
type InquirySubmitter interface {
	Submit(ctx context.Context, in sdk.Inquiry) (sdk.InquiryID, error)
}

// ContactForm tracks the fields, inline errors and success banner of the
// inquiry form.
type ContactForm struct {
	submitter InquirySubmitter
	clock     clock.Clock
	logger    *slog.Logger

	mu          sync.Mutex
	values      sdk.Inquiry
	fieldErrs   map[string]string
	err         error
	submitting  bool
	banner      bool
	bannerTimer *clock.Timer
	lastID      sdk.InquiryID
	closed      bool
}

// NewContactForm returns an empty form.
func NewContactForm(submitter InquirySubmitter, clk clock.Clock, logger *slog.Logger) *ContactForm {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactForm{
		submitter: submitter,
		clock:     clk,
		logger:    logger.With("component", "contact_form"),
		fieldErrs: map[string]string{},
	}
}

// Set updates one field by its wire name and clears its inline error.
func (f *ContactForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := &f.values
	switch field {
	case sdk.FieldFullName:
		v.FullName = value
	case sdk.FieldEmailAddress:
		v.EmailAddress = value
	case sdk.FieldPhoneNumber:
		v.PhoneNumber = value
	case sdk.FieldCompanyName:
		v.CompanyName = value
	case sdk.FieldWebsiteType:
		v.WebsiteType = value
	case sdk.FieldFeatures:
		v.Features = value
	case sdk.FieldBudget:
		v.Budget = value
	case sdk.FieldDeadline:
		v.Deadline = value
	case sdk.FieldAdditionalNotes:
		v.AdditionalNotes = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	delete(f.fieldErrs, field)
	return nil
}

// Values returns the current field values.
func (f *ContactForm) Values() sdk.Inquiry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// FieldError returns the inline error shown next to field.
func (f *ContactForm) FieldError(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrs[field]
}

// HasFieldErrors reports whether any inline error is showing.
func (f *ContactForm) HasFieldErrors() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fieldErrs) > 0
}

// Err returns the last non-field failure. The user may retry.
func (f *ContactForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Submitting reports whether a submission is in flight.
func (f *ContactForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// BannerVisible reports whether the success confirmation is showing.
func (f *ContactForm) BannerVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banner
}

// LastID returns the id assigned by the last successful submission.
func (f *ContactForm) LastID() sdk.InquiryID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastID
}

// Submit validates and sends the inquiry. On success the fields clear and the
// banner shows for SuccessBannerDuration. Field violations are kept inline.
func (f *ContactForm) Submit(ctx context.Context) (sdk.InquiryID, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return 0, errors.New("submission already in progress")
	}
	values := f.values
	f.err = nil
	if err := sdk.ValidateInquiry(values); err != nil {
		f.applyFieldErrorLocked(err)
		f.mu.Unlock()
		return 0, err
	}
	f.submitting = true
	f.mu.Unlock()

	id, err := f.submitter.Submit(ctx, values)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if f.closed {
		return id, err
	}
	if err != nil {
		if !f.applyFieldErrorLocked(err) {
			f.err = err
		}
		f.logger.Info("inquiry submission failed", "error", err)
		return 0, err
	}

	f.values = sdk.Inquiry{}
	f.fieldErrs = map[string]string{}
	f.lastID = id
	f.showBannerLocked()
	return id, nil
}

func (f *ContactForm) applyFieldErrorLocked(err error) bool {
	var fe *sdk.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	f.fieldErrs = map[string]string{}
	for field, msg := range fe.Fields {
		f.fieldErrs[field] = msg
	}
	return true
}

func (f *ContactForm) showBannerLocked() {
	if f.bannerTimer != nil {
		f.bannerTimer.Stop()
	}
	f.banner = true
	f.bannerTimer = f.clock.AfterFunc(SuccessBannerDuration, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.banner = false
	})
}

// Close stops the banner timer. Results arriving afterwards are ignored.
func (f *ContactForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.bannerTimer != nil {
		f.bannerTimer.Stop()
	}
}
