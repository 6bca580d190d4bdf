package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"playpod/core/auth"
	"playpod/logger"
)

type contextKey string

const userIDKey contextKey = "userID"

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Authorization header is required", Reason: "unauthorized"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Invalid authorization header format", Reason: "unauthorized"})
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			logger.Debug("[Auth] 令牌校验失败", logger.ErrorField(err))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Invalid token", Reason: "unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// userID 从上下文取出用户ID，取不到时写 401
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Unauthorized", Reason: "unauthorized"})
		return "", false
	}
	return id, true
}
