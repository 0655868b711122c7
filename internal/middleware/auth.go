package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/godutch/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// PhonenumberKey is the context key for storing the authenticated user's phone number.
	PhonenumberKey contextKey = "phonenumber"

	// callerKey holds a *caller filled in by inner interceptors, so outer
	// ones can see who made the call.
	callerKey contextKey = "caller"
)

type caller struct {
	userID string
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetPhonenumber extracts the user's phone number from the context.
// Returns empty string if not found.
func GetPhonenumber(ctx context.Context) string {
	phone, _ := ctx.Value(PhonenumberKey).(string)
	return phone
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, userID, phonenumber string) context.Context {
	if c, ok := ctx.Value(callerKey).(*caller); ok {
		c.userID = userID
	}
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, PhonenumberKey, phonenumber)
}

// bearerClaims validates the "Bearer <token>" Authorization header value.
func bearerClaims(jwtManager *auth.JWTManager, header string) (*auth.Claims, error) {
	if header == "" {
		return nil, auth.ErrMissingToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}

	return jwtManager.Validate(parts[1])
}

// RequireAuth returns an interceptor that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and phone number to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			claims, err := bearerClaims(jwtManager, req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithUser(ctx, claims.UserID, claims.Phonenumber), req)
		}
	}
}

// RequireBearer is the plain HTTP counterpart of RequireAuth, for REST routes.
func RequireBearer(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(jwtManager, r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Phonenumber)))
		})
	}
}
