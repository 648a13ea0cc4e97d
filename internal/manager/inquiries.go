// Package manager orchestrates inquiry and profile CRUD over the cache
// coordinator and the gateway. Managers hold no state of their own.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/agencydesk/internal/cache"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// ErrNotGranted is returned by admin operations issued before the access
// guard has granted the view.
var ErrNotGranted = errors.New("admin access not confirmed")

// InquiryGateway is the inquiry part of the backend surface.
type InquiryGateway interface {
	SubmitInquiry(ctx context.Context, in sdk.Inquiry) (sdk.InquiryID, error)
	GetAllInquiries(ctx context.Context) ([]sdk.InquiryEntry, error)
	GetInquiry(ctx context.Context, id sdk.InquiryID) (*sdk.Inquiry, error)
	DeleteInquiry(ctx context.Context, id sdk.InquiryID) error
}

// Inquiries manages the inquiry collection.
type Inquiries struct {
	gw      InquiryGateway
	cache   *cache.Coordinator
	granted func() bool
	logger  *slog.Logger
}

// NewInquiries wires an inquiry manager. granted gates the admin operations.
func NewInquiries(gw InquiryGateway, c *cache.Coordinator, granted func() bool, logger *slog.Logger) *Inquiries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inquiries{gw: gw, cache: c, granted: granted, logger: logger.With("component", "inquiries")}
}

// List returns every inquiry, served from the cache while fresh.
func (m *Inquiries) List(ctx context.Context) ([]sdk.InquiryEntry, error) {
	entries, err := cache.Fetch(ctx, m.cache, cache.Query[[]sdk.InquiryEntry]{
		Key:     cache.KeyAllInquiries,
		Enabled: m.granted,
		Fetch:   m.gw.GetAllInquiries,
	})
	if errors.Is(err, cache.ErrDisabled) {
		return nil, ErrNotGranted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return entries, nil
}

// Get returns one inquiry, or nil when it does not exist.
func (m *Inquiries) Get(ctx context.Context, id sdk.InquiryID) (*sdk.Inquiry, error) {
	if !m.granted() {
		return nil, ErrNotGranted
	}
	in, err := m.gw.GetInquiry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inquiry %d: %w", id, err)
	}
	return in, nil
}

// Submit stores a new inquiry. No identity is required.
func (m *Inquiries) Submit(ctx context.Context, in sdk.Inquiry) (sdk.InquiryID, error) {
	id, err := m.gw.SubmitInquiry(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("failed to submit inquiry: %w", err)
	}
	m.cache.InvalidateFor(cache.MutationSubmitInquiry)
	m.logger.Debug("inquiry submitted", "id", id)
	return id, nil
}

// Delete removes an inquiry. Deleting an inquiry that is already gone succeeds.
func (m *Inquiries) Delete(ctx context.Context, id sdk.InquiryID) error {
	if !m.granted() {
		return ErrNotGranted
	}
	err := m.gw.DeleteInquiry(ctx, id)
	if errors.Is(err, sdk.ErrNotFound) {
		m.logger.Debug("inquiry already absent", "id", id)
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete inquiry %d: %w", id, err)
	}
	m.cache.InvalidateFor(cache.MutationDeleteInquiry)
	return nil
}
