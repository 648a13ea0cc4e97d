package sdk

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// AuthMode names the identity source that produced a set of credentials.
type AuthMode string

const (
	AuthModeOIDC     AuthMode = "oidc"
	AuthModePassword AuthMode = "password"
)

// ErrNotLoggedIn is returned by a CredentialStore holding no credentials.
var ErrNotLoggedIn = errors.New("not logged in")

// CredentialStore persists the credentials of the current identity.
type CredentialStore interface {
	SaveCredentials(*Credentials) error
	LoadCredentials() (*Credentials, error)
	DeleteCredentials() error
}

// Credentials represents the authentication credentials of one identity.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	PrincipalID  string    `json:"principal_id,omitempty"` // e.g. "user:{subject}" or "sa:{clientID}"
	Mode         AuthMode  `json:"mode,omitempty"`
}

func (c *Credentials) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// OAuth2Token converts the credentials for use with golang.org/x/oauth2.
func (c *Credentials) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt,
	}
}
