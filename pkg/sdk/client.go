package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned by a TokenSource when no identity is present.
// The request then goes out anonymously.
var ErrNoCredentials = errors.New("no credentials")

// Client is the single channel for every backend operation. Queries are safe
// to reissue; mutations are sent once and never retried by the client.
// Errors are classified into ErrUnauthorized, ErrNotFound, ErrInvalidInput
// and ErrUnavailable.
type Client struct {
	rpc     agencyv1connect.AgencyServiceClient
	baseURL string
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient   *http.Client
	TokenSource  oauth2.TokenSource
	Interceptors []connect.Interceptor
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for RPC calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTokenSource attaches a bearer token to every call for which the source
// yields one. A source returning ErrNoCredentials leaves the call anonymous.
func WithTokenSource(ts oauth2.TokenSource) ClientOption {
	return func(opts *ClientOptions) {
		opts.TokenSource = ts
	}
}

// WithInterceptors adds connect interceptors ahead of the token interceptor.
func WithInterceptors(interceptors ...connect.Interceptor) ClientOption {
	return func(opts *ClientOptions) {
		opts.Interceptors = append(opts.Interceptors, interceptors...)
	}
}

// NewClient creates a client that talks to the backend at baseURL.
// An http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	interceptors := opts.Interceptors
	if opts.TokenSource != nil {
		interceptors = append(interceptors, bearerInterceptor(opts.TokenSource))
	}

	var connectOpts []connect.ClientOption
	if len(interceptors) > 0 {
		connectOpts = append(connectOpts, connect.WithInterceptors(interceptors...))
	}

	return &Client{
		rpc:     agencyv1connect.NewAgencyServiceClient(opts.HTTPClient, baseURL, connectOpts...),
		baseURL: baseURL,
	}
}

// BaseURL returns the server address the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func bearerInterceptor(ts oauth2.TokenSource) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			tok, err := ts.Token()
			switch {
			case errors.Is(err, ErrNoCredentials):
			case err != nil:
				return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
			case tok != nil && tok.AccessToken != "":
				tok.SetAuthHeader(&http.Request{Header: req.Header()})
			}
			return next(ctx, req)
		}
	}
}

// GetCallerUserProfile returns the caller's profile, or nil when none exists yet.
func (c *Client) GetCallerUserProfile(ctx context.Context) (*UserProfile, error) {
	resp, err := c.rpc.GetCallerUserProfile(ctx, connect.NewRequest(&agencyv1.GetCallerUserProfileRequest{}))
	if err != nil {
		return nil, classify(err)
	}
	return profileFromWire(resp.Msg.Profile), nil
}

// SaveCallerUserProfile creates or overwrites the caller's profile.
func (c *Client) SaveCallerUserProfile(ctx context.Context, profile UserProfile) error {
	if err := ValidateProfileName(profile.Name); err != nil {
		return err
	}
	_, err := c.rpc.SaveCallerUserProfile(ctx, connect.NewRequest(&agencyv1.SaveCallerUserProfileRequest{
		Profile: agencyv1.UserProfile{Name: profile.Name},
	}))
	return classify(err)
}

// GetCallerRole returns the caller's role as the backend sees it.
func (c *Client) GetCallerRole(ctx context.Context) (Role, error) {
	resp, err := c.rpc.GetCallerRole(ctx, connect.NewRequest(&agencyv1.GetCallerRoleRequest{}))
	if err != nil {
		return "", classify(err)
	}
	return ParseRole(string(resp.Msg.Role))
}

// IsCallerAdmin asks the backend directly whether the caller is an admin.
func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	resp, err := c.rpc.IsCallerAdmin(ctx, connect.NewRequest(&agencyv1.IsCallerAdminRequest{}))
	if err != nil {
		return false, classify(err)
	}
	return resp.Msg.IsAdmin, nil
}

// GetAllUserProfiles lists every profile in insertion order. Admin only.
func (c *Client) GetAllUserProfiles(ctx context.Context) ([]ProfileEntry, error) {
	resp, err := c.rpc.GetAllUserProfiles(ctx, connect.NewRequest(&agencyv1.GetAllUserProfilesRequest{}))
	if err != nil {
		return nil, classify(err)
	}
	entries := make([]ProfileEntry, 0, len(resp.Msg.Profiles))
	for _, p := range resp.Msg.Profiles {
		entries = append(entries, ProfileEntry{
			Owner:   OwnerID(p.Owner),
			Profile: UserProfile{Name: p.Profile.Name},
		})
	}
	return entries, nil
}

// GetUserProfile returns the profile owned by owner, or nil when absent.
func (c *Client) GetUserProfile(ctx context.Context, owner OwnerID) (*UserProfile, error) {
	resp, err := c.rpc.GetUserProfile(ctx, connect.NewRequest(&agencyv1.GetUserProfileRequest{Owner: string(owner)}))
	if err != nil {
		return nil, classify(err)
	}
	return profileFromWire(resp.Msg.Profile), nil
}

// DeleteUserProfile removes the profile owned by owner.
func (c *Client) DeleteUserProfile(ctx context.Context, owner OwnerID) error {
	if owner == "" {
		return &FieldError{Fields: map[string]string{"owner": "required"}}
	}
	_, err := c.rpc.DeleteUserProfile(ctx, connect.NewRequest(&agencyv1.DeleteUserProfileRequest{Owner: string(owner)}))
	return classify(err)
}

// AssignCallerUserRole sets the caller's own role. The backend permits this
// for admins, and for anyone while no admin exists yet.
func (c *Client) AssignCallerUserRole(ctx context.Context, role Role) error {
	_, err := c.rpc.AssignCallerUserRole(ctx, connect.NewRequest(&agencyv1.AssignCallerUserRoleRequest{
		Role: agencyv1.Role(role),
	}))
	return classify(err)
}

// AssignUserRole sets the role of another principal. Admin only.
func (c *Client) AssignUserRole(ctx context.Context, target OwnerID, role Role) error {
	if target == "" {
		return &FieldError{Fields: map[string]string{"target": "required"}}
	}
	_, err := c.rpc.AssignUserRole(ctx, connect.NewRequest(&agencyv1.AssignUserRoleRequest{
		Target: string(target),
		Role:   agencyv1.Role(role),
	}))
	return classify(err)
}

// SubmitInquiry stores a new inquiry and returns its id. Works without an identity.
func (c *Client) SubmitInquiry(ctx context.Context, in Inquiry) (InquiryID, error) {
	if err := ValidateInquiry(in); err != nil {
		return 0, err
	}
	resp, err := c.rpc.SubmitInquiry(ctx, connect.NewRequest(&agencyv1.SubmitInquiryRequest{
		Inquiry: inquiryToWire(in),
	}))
	if err != nil {
		return 0, classify(err)
	}
	return InquiryID(resp.Msg.Id), nil
}

// GetAllInquiries lists every inquiry ordered by id. Admin only.
func (c *Client) GetAllInquiries(ctx context.Context) ([]InquiryEntry, error) {
	resp, err := c.rpc.GetAllInquiries(ctx, connect.NewRequest(&agencyv1.GetAllInquiriesRequest{}))
	if err != nil {
		return nil, classify(err)
	}
	entries := make([]InquiryEntry, 0, len(resp.Msg.Inquiries))
	for _, e := range resp.Msg.Inquiries {
		entries = append(entries, InquiryEntry{
			ID:      InquiryID(e.Id),
			Inquiry: inquiryFromWire(e.Inquiry),
		})
	}
	return entries, nil
}

// GetInquiry returns a single inquiry, or nil when the id is unknown.
func (c *Client) GetInquiry(ctx context.Context, id InquiryID) (*Inquiry, error) {
	resp, err := c.rpc.GetInquiry(ctx, connect.NewRequest(&agencyv1.GetInquiryRequest{Id: uint64(id)}))
	if err != nil {
		return nil, classify(err)
	}
	if resp.Msg.Inquiry == nil {
		return nil, nil
	}
	in := inquiryFromWire(*resp.Msg.Inquiry)
	return &in, nil
}

// DeleteInquiry removes an inquiry by id.
func (c *Client) DeleteInquiry(ctx context.Context, id InquiryID) error {
	_, err := c.rpc.DeleteInquiry(ctx, connect.NewRequest(&agencyv1.DeleteInquiryRequest{Id: uint64(id)}))
	return classify(err)
}

// Login exchanges a username and password for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*SessionToken, error) {
	if username == "" || password == "" {
		fe := &FieldError{Fields: map[string]string{}}
		if username == "" {
			fe.Fields["username"] = "required"
		}
		if password == "" {
			fe.Fields["password"] = "required"
		}
		return nil, fe
	}
	resp, err := c.rpc.Login(ctx, connect.NewRequest(&agencyv1.LoginRequest{
		Username: username,
		Password: password,
	}))
	if err != nil {
		return nil, classify(err)
	}
	return &SessionToken{
		Token:     resp.Msg.Token,
		Principal: resp.Msg.Principal,
		ExpiresAt: resp.Msg.ExpiresAt,
	}, nil
}
