package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *entity.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, or nil for anonymous requests.
func FromContext(ctx context.Context) *entity.Identity {
	id, _ := ctx.Value(ctxKey{}).(*entity.Identity)
	return id
}

// Middleware resolves the Authorization bearer token into an identity.
// Requests without a token pass through anonymously and handlers decide;
// a malformed or invalid token is rejected with 401.
func Middleware(v *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "invalid authorization header format")
				return
			}

			id, err := v.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				unauthorized(w, "token verification failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
