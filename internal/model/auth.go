package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a player's resumable room session
type SessionClaims struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}
