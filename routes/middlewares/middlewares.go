package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
)

// ClientCookie identifies the browser a funnel belongs to.
const ClientCookie = "pf_client"

type scopeKey struct{}

// Scope returns the client scope set by ClientScope.
func Scope(ctx context.Context) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope
}

// ClientScope reads the client id cookie, issuing a new id when it is
// missing or malformed.
func ClientScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var scope string
		if c, err := r.Cookie(ClientCookie); err == nil {
			if id, err := uuid.FromString(c.Value); err == nil {
				scope = id.String()
			}
		}

		if scope == "" {
			id, err := uuid.NewV4()
			if err != nil {
				httpx.LogInternalError(w, "client_scope.new_id", err)
				return
			}
			scope = id.String()
			http.SetCookie(w, &http.Cookie{
				Path:     "/",
				Name:     ClientCookie,
				Value:    scope,
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope)))
	})
}

// Admin rejects requests without a valid admin token.
func Admin(auth *httpx.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Verify(httpx.TokenFromRequest(r)); err != nil {
				httpx.LogStatusJSON(w, r, http.StatusUnauthorized, log.DebugLevel, "admin.token", map[string]string{"error": "invalid"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DevOnly hides the routes it wraps outside of development.
func DevOnly(dev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !dev {
				httpx.LogNotFound(w, "admin.dev_only", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
