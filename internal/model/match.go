package model

import "time"

// MatchRecord is the archived result of an ended room
type MatchRecord struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	RoomID       string     `json:"roomId" bson:"roomId"`
	Reason       string     `json:"reason" bson:"reason"`
	TimerSeconds int        `json:"timerSeconds" bson:"timerSeconds"`
	Rounds       int        `json:"rounds" bson:"rounds"`
	Standings    []Standing `json:"standings" bson:"standings"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt      time.Time  `json:"endedAt" bson:"endedAt"`
}

// BoostSource tells where a boost grant came from
type BoostSource string

const (
	BoostDirect  BoostSource = "direct"
	BoostPayment BoostSource = "payment"
)

// BoostGrant is the audit record of one applied boost
type BoostGrant struct {
	ID         string      `json:"id" bson:"_id,omitempty"`
	RoomID     string      `json:"roomId" bson:"roomId"`
	PlayerName string      `json:"playerName" bson:"playerName"`
	Points     int         `json:"points" bson:"points"`
	Source     BoostSource `json:"source" bson:"source"`
	PaymentRef string      `json:"paymentRef,omitempty" bson:"paymentRef,omitempty"`
	GrantedAt  time.Time   `json:"grantedAt" bson:"grantedAt"`
}
