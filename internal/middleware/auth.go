package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// The session collaborator: tokens are issued by the external auth system;
// this middleware only extracts the already-validated org/user/role claims
// that scope every core operation.

type contextKey string

const (
	orgIDKey  contextKey = "orgID"
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
	emailKey  contextKey = "email"
)

// Session is the caller identity every core operation requires. Email is the
// caller's notification address; empty when the token carries no email claim.
type Session struct {
	OrgID  string
	UserID string
	Role   string
	Email  string
}

// SessionFrom extracts the caller's session from the request context.
func SessionFrom(ctx context.Context) (Session, bool) {
	orgID, ok := ctx.Value(orgIDKey).(string)
	if !ok || orgID == "" {
		return Session{}, false
	}
	userID, _ := ctx.Value(userIDKey).(string)
	role, _ := ctx.Value(roleKey).(string)
	email, _ := ctx.Value(emailKey).(string)
	return Session{OrgID: orgID, UserID: userID, Role: role, Email: email}, true
}

// WithSession injects a session into a context. Test helper.
func WithSession(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, orgIDKey, s.OrgID)
	ctx = context.WithValue(ctx, userIDKey, s.UserID)
	ctx = context.WithValue(ctx, roleKey, s.Role)
	return context.WithValue(ctx, emailKey, s.Email)
}

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		session, err := validateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireRole gates an endpoint on the caller's role claim. Core services do
// not re-check roles; permission enforcement lives here at the boundary.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if session.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateToken(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return Session{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("unexpected claims type")
	}

	session := Session{
		OrgID:  fmt.Sprintf("%v", claims["org_id"]),
		UserID: fmt.Sprintf("%v", claims["user_id"]),
		Role:   fmt.Sprintf("%v", claims["role"]),
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if session.OrgID == "" || session.OrgID == "<nil>" {
		return Session{}, fmt.Errorf("token missing org_id claim")
	}
	return session, nil
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
