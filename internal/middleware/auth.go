// Package middleware provides HTTP middleware for the vault API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/time_vault/pkg/logger"
)

// Claims are the JWT claims the vault accepts. The Neo address is the caller
// identity handed to the access guard.
type Claims struct {
	NeoAddress string `json:"neo_address"`
	AuthMethod string `json:"auth_method,omitempty"`
	jwt.RegisteredClaims
}

type contextKey string

const callerKey contextKey = "caller"

// CallerFromContext returns the authenticated caller identity, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey).(string)
	return caller, ok && caller != ""
}

// AuthMiddleware provides JWT bearer authentication.
type AuthMiddleware struct {
	secret    []byte
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware verifying HS256
// tokens with the given secret. Paths in skipPaths bypass authentication.
func NewAuthMiddleware(secret []byte, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{secret: secret, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondUnauthorized(w, "missing Authorization header")
			return
		}
		raw := strings.TrimPrefix(authHeader, "Bearer ")
		if raw == authHeader {
			respondUnauthorized(w, "malformed Authorization header")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.log.WithError(err).Debug("token rejected")
			respondUnauthorized(w, "invalid token")
			return
		}
		if claims.NeoAddress == "" {
			respondUnauthorized(w, "token carries no caller address")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, claims.NeoAddress)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
