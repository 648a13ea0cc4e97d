package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
)

// OIDCVerifier validates bearer tokens issued by an external identity
// provider against its JWKS.
type OIDCVerifier struct {
	tokens *oidctoken.TokenHandler[map[string]any]
}

// NewOIDCVerifier creates a verifier for issuer that requires audience in the
// aud claim. Keys are fetched on first use so the provider may start later.
func NewOIDCVerifier(issuer, audience string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, errors.New("oidc issuer is required")
	}
	if audience == "" {
		return nil, errors.New("oidc audience is required")
	}

	handler, err := oidctoken.New[map[string]any](nil,
		options.WithIssuer(issuer),
		options.WithRequiredAudience(audience),
		options.WithLazyLoadJwks(true),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise oidc token handler: %w", err)
	}
	return &OIDCVerifier{tokens: handler}, nil
}

// Authenticate validates token and maps its sub claim to a principal.
func (v *OIDCVerifier) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := v.tokens.ParseToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return &Principal{ID: UserID(sub), Subject: sub, Method: MethodOIDC}, nil
}

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// Chain tries each authenticator in order; the first success wins.
type Chain []Authenticator

func (c Chain) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: no authenticators configured", ErrInvalidToken)
	}
	var errs []error
	for _, a := range c {
		p, err := a.Authenticate(ctx, token)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
