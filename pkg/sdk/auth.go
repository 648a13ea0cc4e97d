package sdk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/client/rp/cli"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// LoginSuccessMetadata describes a completed login for confirmation output.
type LoginSuccessMetadata struct {
	// User is the 'sub' claim from the ID token.
	User string
	// Email is the 'email' claim, if present.
	Email string
	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time
}

// DeviceLoginOptions tunes LoginWithDeviceCode.
type DeviceLoginOptions struct {
	// Out receives the user code instructions. Defaults to os.Stdout.
	Out io.Writer
	// OpenBrowser tries to open the verification URL automatically.
	OpenBrowser bool
	Logger      *slog.Logger
}

// LoginWithDeviceCode runs the OIDC Device Authorization Flow (RFC 8628)
// against issuer: it prints the user code, polls the token endpoint until the
// user approves, and returns credentials for the resulting identity.
// Endpoints are found through OIDC discovery.
func LoginWithDeviceCode(
	ctx context.Context,
	issuer string,
	clientID string,
	opts DeviceLoginOptions,
) (*LoginSuccessMetadata, *Credentials, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}

	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		"", // public client
		"", // no redirect for device flow
		scopes,
		rp.WithHTTPClient(defaultHTTPClient()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover OIDC provider at %s: %w", issuer, err)
	}

	authResponse, err := rp.DeviceAuthorization(ctx, scopes, relyingParty, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start device authorization flow: %w", err)
	}

	printDeviceCodeInstructions(opts.Out, authResponse)

	if opts.OpenBrowser && authResponse.VerificationURIComplete != "" {
		cli.OpenBrowser(authResponse.VerificationURIComplete)
		logger.Debug("attempted to open browser", "url", authResponse.VerificationURIComplete)
	}

	interval := time.Duration(authResponse.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}

	token, err := rp.DeviceAccessToken(ctx, authResponse.DeviceCode, interval, relyingParty)
	if err != nil {
		return nil, nil, fmt.Errorf("device authorization failed: %w", err)
	}

	var idTokenClaims *oidc.IDTokenClaims
	if token.IDToken != "" {
		claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token.IDToken, relyingParty.IDTokenVerifier())
		if err != nil {
			logger.Warn("failed to verify ID token", "error", err)
		} else {
			idTokenClaims = claims
		}
	}

	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	creds := &Credentials{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
		Mode:         AuthModeOIDC,
	}

	metadata := &LoginSuccessMetadata{ExpiresAt: expiresAt}
	if idTokenClaims != nil {
		creds.PrincipalID = "user:" + idTokenClaims.Subject
		metadata.User = idTokenClaims.Subject
		metadata.Email = idTokenClaims.Email
	}

	return metadata, creds, nil
}

// LoginWithServiceAccount authenticates a machine identity using the OAuth2
// client credentials grant. The token endpoint comes from OIDC discovery.
func LoginWithServiceAccount(
	ctx context.Context,
	issuer string,
	clientID string,
	clientSecret string,
) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail}
	discoverer, err := rp.NewRelyingPartyOIDC(ctx, issuer, clientID, clientSecret, "", scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider at %s: %w", issuer, err)
	}

	ccConfig := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     discoverer.OAuthConfig().Endpoint.TokenURL,
		Scopes:       scopes,
	}

	token, err := ccConfig.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange client credentials for token: %w", err)
	}

	return &Credentials{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
		RefreshToken: token.RefreshToken,
		PrincipalID:  "sa:" + clientID,
		Mode:         AuthModeOIDC,
	}, nil
}

// RefreshToken trades a refresh token for fresh credentials.
func RefreshToken(
	ctx context.Context,
	issuer string,
	clientID string,
	refreshToken string,
) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}
	relyingParty, err := rp.NewRelyingPartyOIDC(ctx, issuer, clientID, "", "", scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	tokenSource := relyingParty.OAuthConfig().TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
	})

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return &Credentials{
		AccessToken:  newToken.AccessToken,
		TokenType:    newToken.TokenType,
		RefreshToken: newToken.RefreshToken,
		ExpiresAt:    newToken.Expiry,
		Mode:         AuthModeOIDC,
	}, nil
}

// PasswordAuthenticator is implemented by Client.
type PasswordAuthenticator interface {
	Login(ctx context.Context, username, password string) (*SessionToken, error)
}

// LoginWithPassword runs the credential login mutation and returns the
// resulting session as Credentials.
func LoginWithPassword(ctx context.Context, client PasswordAuthenticator, username, password string) (*Credentials, error) {
	session, err := client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("password login failed: %w", err)
	}
	return &Credentials{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		PrincipalID: session.Principal,
		Mode:        AuthModePassword,
	}, nil
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func printDeviceCodeInstructions(out io.Writer, authResponse *oidc.DeviceAuthorizationResponse) {
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintf(out, "Your user code is: %s\n\n", authResponse.UserCode)
	fmt.Fprintln(out, "Visit the following URL to authorize this device:")
	fmt.Fprintf(out, "  %s\n\n", authResponse.VerificationURI)
	if authResponse.VerificationURIComplete != "" {
		fmt.Fprintln(out, "Or use this direct link (includes code):")
		fmt.Fprintf(out, "  %s\n", authResponse.VerificationURIComplete)
	}
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintln(out, "Waiting for authorization...")
}

// EnvCreds holds service account credentials taken from the environment.
type EnvCreds struct {
	ClientID     string
	ClientSecret string
}

// CheckEnvCreds reports whether AGENCYDESK_CLIENT_ID and
// AGENCYDESK_CLIENT_SECRET are both set.
func CheckEnvCreds() (bool, EnvCreds) {
	creds := EnvCreds{
		ClientID:     os.Getenv("AGENCYDESK_CLIENT_ID"),
		ClientSecret: os.Getenv("AGENCYDESK_CLIENT_SECRET"),
	}
	return creds.ClientID != "" && creds.ClientSecret != "", creds
}
