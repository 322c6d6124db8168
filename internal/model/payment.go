package model

import "time"

// CheckoutSession is a boost purchase started with the payment provider and not yet confirmed
type CheckoutSession struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	PlayerName string    `json:"playerName"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
}
