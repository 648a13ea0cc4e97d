// Package client lazily builds the identity adapter, gateway client and
// session shared by agencyctl commands.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/auth"
	"github.com/caffeinepub/agencydesk/internal/identity"
	"github.com/caffeinepub/agencydesk/internal/session"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// ErrInteractionRequired is returned when a prompt is needed but prompts are disabled.
var ErrInteractionRequired = errors.New("interactive input required; rerun without --non-interactive")

// Options configures a Provider.
type Options struct {
	ServerURL      string
	AuthMode       sdk.AuthMode
	Issuer         string
	ClientID       string
	Timeout        time.Duration
	NonInteractive bool
	Logger         *slog.Logger
	Out            io.Writer

	// Overrides used by tests.
	Store      sdk.CredentialStore
	HTTPClient *http.Client
	Prompt     identity.CredentialPrompt
}

// Provider yields the objects commands need, each built at most once.
type Provider struct {
	opts Options

	storeOnce sync.Once
	store     sdk.CredentialStore
	storeErr  error

	idOnce   sync.Once
	identity *identity.Adapter
	idErr    error

	tokens    lazyTokenSource
	sdkOnce   sync.Once
	sdkClient *sdk.Client

	sessionOnce sync.Once
	session     *session.Session
	sessionErr  error
}

// NewProvider constructs a Provider.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Provider{opts: opts}
}

// NonInteractive reports whether prompts are disabled.
func (p *Provider) NonInteractive() bool {
	return p.opts.NonInteractive
}

// Store returns the credential store.
func (p *Provider) Store() (sdk.CredentialStore, error) {
	p.storeOnce.Do(func() {
		if p.opts.Store != nil {
			p.store = p.opts.Store
			return
		}
		p.store, p.storeErr = auth.NewFileStore()
	})
	return p.store, p.storeErr
}

// SDKClient returns the gateway client. Calls carry the current identity's
// token, or go out anonymously when there is none.
func (p *Provider) SDKClient() *sdk.Client {
	p.sdkOnce.Do(func() {
		p.sdkClient = sdk.NewClient(p.opts.ServerURL,
			sdk.WithHTTPClient(p.httpClient()),
			sdk.WithTokenSource(&p.tokens),
		)
	})
	return p.sdkClient
}

// Identity returns the configured identity adapter, initialized from the
// credential store.
func (p *Provider) Identity(ctx context.Context) (*identity.Adapter, error) {
	p.idOnce.Do(func() {
		store, err := p.Store()
		if err != nil {
			p.idErr = fmt.Errorf("failed to create credential store: %w", err)
			return
		}

		idOpts := identity.Options{Logger: p.opts.Logger}
		switch p.opts.AuthMode {
		case sdk.AuthModePassword:
			p.identity = identity.NewPassword(p.SDKClient(), p.prompt(), store, idOpts)
		default:
			p.identity = identity.NewOIDC(identity.OIDCConfig{
				Issuer:      p.opts.Issuer,
				ClientID:    p.opts.ClientID,
				Out:         p.opts.Out,
				OpenBrowser: !p.opts.NonInteractive,
			}, store, idOpts)
		}

		p.tokens.set(p.identity)
		if err := p.identity.Init(ctx); err != nil {
			p.idErr = err
		}
	})
	return p.identity, p.idErr
}

// Session returns the session bound to the identity adapter.
func (p *Provider) Session(ctx context.Context) (*session.Session, error) {
	p.sessionOnce.Do(func() {
		id, err := p.Identity(ctx)
		if err != nil {
			p.sessionErr = err
			return
		}
		p.session = session.New(id, p.SDKClient(), session.Options{Logger: p.opts.Logger})
	})
	return p.session, p.sessionErr
}

// Close releases the session.
func (p *Provider) Close() {
	if p.session != nil {
		p.session.Close()
	}
}

func (p *Provider) httpClient() *http.Client {
	if p.opts.HTTPClient != nil {
		return p.opts.HTTPClient
	}
	return &http.Client{Timeout: p.opts.Timeout}
}

func (p *Provider) prompt() identity.CredentialPrompt {
	if p.opts.Prompt != nil {
		return p.opts.Prompt
	}
	return func(ctx context.Context) (string, string, error) {
		if p.opts.NonInteractive {
			return "", "", ErrInteractionRequired
		}
		username, err := pterm.DefaultInteractiveTextInput.Show("Username")
		if err != nil {
			return "", "", err
		}
		password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", "", err
		}
		return username, password, nil
	}
}

// lazyTokenSource lets the gateway client exist before the identity adapter,
// which in password mode logs in through that same client.
type lazyTokenSource struct {
	mu  sync.Mutex
	src oauth2.TokenSource
}

func (l *lazyTokenSource) set(src oauth2.TokenSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src = src
}

func (l *lazyTokenSource) Token() (*oauth2.Token, error) {
	l.mu.Lock()
	src := l.src
	l.mu.Unlock()
	if src == nil {
		return nil, sdk.ErrNoCredentials
	}
	return src.Token()
}
