package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mtlprog/taskescrow/internal/domain"
)

type contextKey string

// ContextKeyIdentity is the key for storing the caller identity in the
// request context.
const ContextKeyIdentity contextKey = "identity"

// IdentityHeader carries the already-authenticated caller identity.
// Verification of the caller's signature happens in the external signing
// gateway in front of this service; the ledger only requires that the
// header is present.
const IdentityHeader = "X-Authenticated-Identity"

// ErrNoIdentity is returned when a request context holds no caller identity.
var ErrNoIdentity = errors.New("no caller identity in context")

// IdentityMiddleware extracts the authenticated caller identity supplied
// by the upstream signing layer.
type IdentityMiddleware struct{}

// NewIdentityMiddleware creates a new IdentityMiddleware.
func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

// Authenticate requires the identity header and adds the caller identity
// to the request context.
func (m *IdentityMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := strings.TrimSpace(r.Header.Get(IdentityHeader))
		if identity == "" {
			http.Error(w, "missing caller identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyIdentity, domain.Identity(identity))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext retrieves the caller identity stored by Authenticate.
func GetIdentityFromContext(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(ContextKeyIdentity).(domain.Identity)
	if !ok || identity == "" {
		return "", ErrNoIdentity
	}
	return identity, nil
}
