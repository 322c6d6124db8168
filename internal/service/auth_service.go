package service

import (
	"errors"
	"time"

	"survive/internal/common/clock"
	"survive/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates resumable session tokens
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	clock     clock.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, ttl time.Duration, c clock.Clock) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		clock:     c,
	}
}

// IssueSessionToken creates a token bound to one roster entry
func (s *AuthService) IssueSessionToken(roomID, playerName, sessionID string) (string, error) {
	now := s.clock.Now()
	claims := &model.SessionClaims{
		RoomID:     roomID,
		PlayerName: playerName,
		SessionID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken validates a session JWT and returns claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.RoomID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
