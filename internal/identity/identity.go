// Package identity adapts an authentication handshake into the signals the
// client core consumes: the current identity, a login status, login and clear.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"golang.org/x/oauth2"
)

// Identity is the authenticated caller.
type Identity struct {
	Principal string
	Token     string
	TokenType string
	ExpiresAt time.Time
	Mode      sdk.AuthMode
}

// LoginStatus is the state of the most recent login attempt.
type LoginStatus int

const (
	StatusIdle LoginStatus = iota
	StatusLoggingIn
	StatusError
)

func (s LoginStatus) String() string {
	switch s {
	case StatusLoggingIn:
		return "logging-in"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Provider is the identity surface the session depends on.
type Provider interface {
	Identity() *Identity
	Initializing() bool
	Status() LoginStatus
	Mode() sdk.AuthMode
	Init(ctx context.Context) error
	Login(ctx context.Context) error
	Clear(ctx context.Context) error
	Subscribe(fn func(*Identity)) func()
	Token() (*oauth2.Token, error)
}

// Authenticator performs the handshake and returns fresh credentials.
type Authenticator func(ctx context.Context) (*sdk.Credentials, error)

// Refresher trades stored credentials for new ones.
type Refresher func(ctx context.Context, creds *sdk.Credentials) (*sdk.Credentials, error)

// Options configures an Adapter.
type Options struct {
	Clock     clock.Clock
	Logger    *slog.Logger
	Refresher Refresher
}

// Adapter implements Provider over an Authenticator and a CredentialStore.
// It only accepts credentials issued by its own mode.
type Adapter struct {
	mode         sdk.AuthMode
	authenticate Authenticator
	refresh      Refresher
	store        sdk.CredentialStore
	clock        clock.Clock
	logger       *slog.Logger

	mu           sync.Mutex
	current      *Identity
	status       LoginStatus
	lastErr      error
	initializing bool
	expiry       *clock.Timer
	listeners    map[int]func(*Identity)
	nextID       int
}

var _ Provider = (*Adapter)(nil)

// New builds an Adapter. It starts initializing until Init is called.
func New(mode sdk.AuthMode, authenticate Authenticator, store sdk.CredentialStore, opts Options) *Adapter {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Adapter{
		mode:         mode,
		authenticate: authenticate,
		refresh:      opts.Refresher,
		store:        store,
		clock:        opts.Clock,
		logger:       opts.Logger.With("component", "identity", "mode", mode),
		initializing: true,
		listeners:    make(map[int]func(*Identity)),
	}
}

// OIDCConfig configures the device authorization adapter.
type OIDCConfig struct {
	Issuer      string
	ClientID    string
	Out         io.Writer
	OpenBrowser bool
}

// NewOIDC returns an adapter that logs in with the OIDC device flow and
// refreshes expired tokens with the stored refresh token.
func NewOIDC(cfg OIDCConfig, store sdk.CredentialStore, opts Options) *Adapter {
	logger := opts.Logger
	if opts.Refresher == nil {
		opts.Refresher = func(ctx context.Context, creds *sdk.Credentials) (*sdk.Credentials, error) {
			fresh, err := sdk.RefreshToken(ctx, cfg.Issuer, cfg.ClientID, creds.RefreshToken)
			if err != nil {
				return nil, err
			}
			if fresh.RefreshToken == "" {
				fresh.RefreshToken = creds.RefreshToken
			}
			fresh.PrincipalID = creds.PrincipalID
			return fresh, nil
		}
	}
	return New(sdk.AuthModeOIDC, func(ctx context.Context) (*sdk.Credentials, error) {
		if hasEnv, env := sdk.CheckEnvCreds(); hasEnv {
			return sdk.LoginWithServiceAccount(ctx, cfg.Issuer, env.ClientID, env.ClientSecret)
		}
		_, creds, err := sdk.LoginWithDeviceCode(ctx, cfg.Issuer, cfg.ClientID, sdk.DeviceLoginOptions{
			Out:         cfg.Out,
			OpenBrowser: cfg.OpenBrowser,
			Logger:      logger,
		})
		return creds, err
	}, store, opts)
}

// CredentialPrompt supplies a username and password.
type CredentialPrompt func(ctx context.Context) (username, password string, err error)

// NewPassword returns an adapter that logs in through the backend login RPC.
func NewPassword(client sdk.PasswordAuthenticator, prompt CredentialPrompt, store sdk.CredentialStore, opts Options) *Adapter {
	return New(sdk.AuthModePassword, func(ctx context.Context) (*sdk.Credentials, error) {
		username, password, err := prompt(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		return sdk.LoginWithPassword(ctx, client, username, password)
	}, store, opts)
}

// Mode returns the handshake this adapter uses.
func (a *Adapter) Mode() sdk.AuthMode {
	return a.mode
}

// Init loads stored credentials and ends the initializing phase. Expired
// credentials are refreshed when possible, otherwise treated as absent.
func (a *Adapter) Init(ctx context.Context) error {
	creds, err := a.store.LoadCredentials()
	switch {
	case errors.Is(err, sdk.ErrNotLoggedIn):
		creds = nil
	case err != nil:
		a.finishInit(nil)
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if creds != nil && creds.Mode != "" && creds.Mode != a.mode {
		a.logger.Warn("ignoring credentials from another auth mode", "stored_mode", creds.Mode)
		creds = nil
	}

	if creds != nil && a.expired(creds.ExpiresAt) {
		creds = a.tryRefresh(ctx, creds)
	}

	a.finishInit(fromCredentials(creds))
	return nil
}

func (a *Adapter) tryRefresh(ctx context.Context, creds *sdk.Credentials) *sdk.Credentials {
	if a.refresh == nil || creds.RefreshToken == "" {
		return nil
	}
	fresh, err := a.refresh(ctx, creds)
	if err != nil {
		a.logger.Warn("token refresh failed", "error", err)
		return nil
	}
	fresh.Mode = a.mode
	if err := a.store.SaveCredentials(fresh); err != nil {
		a.logger.Warn("failed to persist refreshed credentials", "error", err)
	}
	return fresh
}

func (a *Adapter) finishInit(id *Identity) {
	a.mu.Lock()
	a.setCurrentLocked(id)
	a.initializing = false
	a.mu.Unlock()
	a.notify(id)
}

// setCurrentLocked replaces the identity and arms a timer that clears it
// when its token expires, so subscribers see the expiry.
func (a *Adapter) setCurrentLocked(id *Identity) {
	if a.expiry != nil {
		a.expiry.Stop()
		a.expiry = nil
	}
	a.current = id
	if id == nil || id.ExpiresAt.IsZero() {
		return
	}
	a.expiry = a.clock.AfterFunc(id.ExpiresAt.Sub(a.clock.Now()), func() {
		a.expire(id)
	})
}

func (a *Adapter) expire(id *Identity) {
	a.mu.Lock()
	if a.current != id {
		a.mu.Unlock()
		return
	}
	a.current = nil
	a.expiry = nil
	a.mu.Unlock()

	a.logger.Info("identity expired", "principal", id.Principal)
	a.notify(nil)
}

// Identity returns the current identity, or nil when absent or expired.
func (a *Adapter) Identity() *Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.expired(a.current.ExpiresAt) {
		return nil
	}
	id := *a.current
	return &id
}

// Initializing reports whether stored credentials are still being loaded.
func (a *Adapter) Initializing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initializing
}

// Status returns the state of the most recent login.
func (a *Adapter) Status() LoginStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Err returns the error of the last failed login.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Login runs the handshake and persists the resulting credentials.
func (a *Adapter) Login(ctx context.Context) error {
	a.mu.Lock()
	if a.status == StatusLoggingIn {
		a.mu.Unlock()
		return errors.New("login already in progress")
	}
	a.status = StatusLoggingIn
	a.lastErr = nil
	a.mu.Unlock()

	creds, err := a.authenticate(ctx)
	if err == nil && creds == nil {
		err = errors.New("authenticator returned no credentials")
	}
	if err != nil {
		a.mu.Lock()
		a.status = StatusError
		a.lastErr = err
		a.mu.Unlock()
		a.logger.Info("login failed", "error", err)
		return err
	}

	creds.Mode = a.mode
	if err := a.store.SaveCredentials(creds); err != nil {
		a.mu.Lock()
		a.status = StatusError
		a.lastErr = err
		a.mu.Unlock()
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	id := fromCredentials(creds)
	a.mu.Lock()
	a.setCurrentLocked(id)
	a.status = StatusIdle
	a.initializing = false
	a.mu.Unlock()

	a.logger.Info("logged in", "principal", id.Principal)
	a.notify(id)
	return nil
}

// Clear forgets the identity and deletes stored credentials.
func (a *Adapter) Clear(ctx context.Context) error {
	err := a.store.DeleteCredentials()

	a.mu.Lock()
	a.setCurrentLocked(nil)
	a.status = StatusIdle
	a.lastErr = nil
	a.mu.Unlock()

	a.notify(nil)
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Subscribe registers fn for identity changes. It returns an unsubscribe func.
func (a *Adapter) Subscribe(fn func(*Identity)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Token implements oauth2.TokenSource for the gateway client. Without an
// identity it returns sdk.ErrNoCredentials so calls go out anonymously.
func (a *Adapter) Token() (*oauth2.Token, error) {
	id := a.Identity()
	if id == nil {
		return nil, sdk.ErrNoCredentials
	}
	return &oauth2.Token{
		AccessToken: id.Token,
		TokenType:   id.TokenType,
		Expiry:      id.ExpiresAt,
	}, nil
}

func (a *Adapter) expired(at time.Time) bool {
	return !at.IsZero() && !a.clock.Now().Before(at)
}

func (a *Adapter) notify(id *Identity) {
	a.mu.Lock()
	fns := make([]func(*Identity), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	var snapshot *Identity
	if id != nil {
		cp := *id
		snapshot = &cp
	}
	for _, fn := range fns {
		fn(snapshot)
	}
}

func fromCredentials(creds *sdk.Credentials) *Identity {
	if creds == nil {
		return nil
	}
	return &Identity{
		Principal: creds.PrincipalID,
		Token:     creds.AccessToken,
		TokenType: creds.TokenType,
		ExpiresAt: creds.ExpiresAt,
		Mode:      creds.Mode,
	}
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	creds *sdk.Credentials
}

var _ sdk.CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveCredentials(creds *sdk.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *creds
	s.creds = &cp
	return nil
}

func (s *MemoryStore) LoadCredentials() (*sdk.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, sdk.ErrNotLoggedIn
	}
	cp := *s.creds
	return &cp, nil
}

func (s *MemoryStore) DeleteCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
