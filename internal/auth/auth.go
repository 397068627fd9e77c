// Package auth resolves the caller identity from a bearer ID token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// ErrUnauthenticated is returned for operations that require a signed-in caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified caller. The zero value is an anonymous caller.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool { return i.UID != "" }

// Verifier turns a raw token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

// GoogleVerifier validates Google-signed ID tokens for one audience.
type GoogleVerifier struct {
	Audience string
}

// Verify validates the token signature, expiry and audience.
func (v GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	payload, err := idtoken.Validate(ctx, token, v.Audience)
	if err != nil {
		return Identity{}, fmt.Errorf("Verify: validate id token: %w", err)
	}
	if payload.Subject == "" {
		return Identity{}, fmt.Errorf("Verify: token has no subject")
	}

	id := Identity{UID: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	if role, ok := payload.Claims["role"].(string); ok {
		id.Role = role
	}
	return id, nil
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity attached to ctx, or the anonymous identity.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{}
}

// Middleware verifies the Authorization bearer token, when present, and attaches the
// identity to the request context. Requests without a valid token continue anonymously;
// handlers that need a user reject them.
func Middleware(verifier Verifier, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
