package middleware

import (
	"context"
	"net/http"
	"strings"

	"survive/internal/service"
)

type contextKey string

const (
	RoomIDKey     contextKey = "roomId"
	PlayerNameKey contextKey = "playerName"
	SessionIDKey  contextKey = "sessionId"
)

// AuthMiddleware provides session token authentication
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireSession validates the session JWT from the Authorization header or token query param
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeUnauthorized(w, "missing authorization")
			return
		}

		claims, err := m.authSvc.ValidateSessionToken(token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, RoomIDKey, claims.RoomID)
		ctx = context.WithValue(ctx, PlayerNameKey, claims.PlayerName)
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRoomID extracts the session's room from context
func GetRoomID(ctx context.Context) string {
	if v := ctx.Value(RoomIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetPlayerName extracts the session's player from context
func GetPlayerName(ctx context.Context) string {
	if v := ctx.Value(PlayerNameKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionID extracts the session id from context
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
