package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
)

type capabilityKey struct{}

// CapabilitiesFromContext returns the capability set resolved for the
// request, or an empty set.
func CapabilitiesFromContext(ctx context.Context) CapabilitySet {
	if caps, ok := ctx.Value(capabilityKey{}).(CapabilitySet); ok {
		return caps
	}
	return CapabilitySet{}
}

// Authorizer resolves a session's capability set once per request and
// guards routes on it. The X-User-ID header stands in for whatever session
// layer terminates in front of this service; read-only routes take no
// guard at all so the public display works unauthenticated.
type Authorizer struct {
	app *App
}

func NewAuthorizer(app *App) *Authorizer {
	return &Authorizer{app: app}
}

// Require returns middleware that rejects requests whose session lacks the
// capability.
func (a *Authorizer) Require(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				httpx.Error(w, http.StatusUnauthorized, "missing_user", errors.New("X-User-ID header is required"))
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "invalid_user", errors.New("X-User-ID is not a valid id"))
				return
			}

			caps, err := a.app.Capabilities(r.Context(), id)
			if errors.Is(err, ErrUserNotFound) {
				httpx.Error(w, http.StatusUnauthorized, "unknown_user", err)
				return
			}
			if err != nil {
				httpx.Error(w, http.StatusInternalServerError, "internal", err)
				return
			}

			if !caps.Has(cap) {
				httpx.Error(w, http.StatusForbidden, "forbidden", errors.New("session lacks "+string(cap)))
				return
			}

			ctx := context.WithValue(r.Context(), capabilityKey{}, caps)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
