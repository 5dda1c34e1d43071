// Package middleware provides HTTP middleware for operator authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// operatorKey is the context key for storing the authenticated operator.
const operatorKey ContextKey = "operator"

// TokenCookie is the cookie that carries an operator token for browser requests.
const TokenCookie = "screening_token"

// TokenValidator validates operator tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (OperatorGetter, error)
}

// OperatorGetter extracts the operator name from token claims.
type OperatorGetter interface {
	GetOperator() string
}

// AuthMiddleware creates middleware that validates operator tokens and adds
// the operator to the request context. The token is read from a Bearer
// Authorization header or, failing that, from TokenCookie.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithOperator(r.Context(), claims.GetOperator())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Handle case-insensitive "Bearer" prefix
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		token := strings.TrimSpace(parts[1])
		return token, token != ""
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// WithOperator returns a copy of ctx carrying operator.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// GetOperator extracts the authenticated operator from the request context.
func GetOperator(r *http.Request) (string, error) {
	operator, ok := r.Context().Value(operatorKey).(string)
	if !ok || operator == "" {
		return "", fmt.Errorf("operator not found in request context")
	}
	return operator, nil
}

// OperatorKey returns the context key for the operator (for testing purposes).
func OperatorKey() ContextKey {
	return operatorKey
}
