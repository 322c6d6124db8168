package model

import "time"

// Player is one participant in a room
type Player struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Animal    string `json:"animal"`
	IsCenter  bool   `json:"isCenter"`
	HasBoost  bool   `json:"hasBoost"`
	Connected bool   `json:"connected"`
	// SessionID binds resume tokens to this exact roster entry
	SessionID      string     `json:"-"`
	JoinedAt       time.Time  `json:"joinedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
}
