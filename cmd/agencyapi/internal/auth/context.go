package auth

import "context"

// AuthMethod records how a principal was authenticated.
type AuthMethod string

const (
	MethodSessionToken AuthMethod = "session_token"
	MethodOIDC         AuthMethod = "oidc"
	// MethodSystem marks changes made by server-side admin commands.
	MethodSystem AuthMethod = "system"
)

// SystemPrincipalID attributes role changes made from the agencyapi CLI.
const SystemPrincipalID = "system:agencyapi"

// Principal is the authenticated caller of a request.
type Principal struct {
	// ID is the prefixed identity used for ownership and role bindings (user:<subject>).
	ID string
	// Subject is the unprefixed token subject.
	Subject string
	Method  AuthMethod
}

type principalContextKey struct{}

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the caller, or false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// UserID prefixes a subject into a principal ID.
func UserID(subject string) string {
	return "user:" + subject
}
