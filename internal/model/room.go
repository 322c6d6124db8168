package model

import (
	"fmt"
	"sort"
	"time"
)

type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomActive  RoomStatus = "active"
	RoomEnded   RoomStatus = "ended"
)

// Resolution describes how a call was settled
type Resolution string

const (
	ResolvedByTap     Resolution = "tap"
	ResolvedByTimeout Resolution = "timeout"
	CallCancelled     Resolution = "cancelled"
)

// PendingCall is the single outstanding call in a room
type PendingCall struct {
	ID       string    `json:"id"`
	Caller   string    `json:"caller"`
	Target   string    `json:"target"`
	IssuedAt time.Time `json:"issuedAt"`
	Deadline time.Time `json:"deadline"`
}

// CallOutcome records the most recent settled call
type CallOutcome struct {
	CallID       string     `json:"callId"`
	Caller       string     `json:"caller"`
	Target       string     `json:"target"`
	Resolution   Resolution `json:"resolution"`
	CallerAnimal string     `json:"callerAnimal,omitempty"`
	TargetAnimal string     `json:"targetAnimal,omitempty"`
	TargetPoints int        `json:"targetPoints"`
	At           time.Time  `json:"at"`
}

// Room is the authoritative state of one game session
type Room struct {
	ID           string       `json:"id"`
	Status       RoomStatus   `json:"status"`
	Players      []*Player    `json:"players"`
	CenterIndex  int          `json:"centerIndex"`
	TimerSeconds int          `json:"timerSeconds"`
	MinPlayers   int          `json:"minPlayers"`
	MaxPlayers   int          `json:"maxPlayers"`
	Round        int          `json:"round"`
	PendingCall  *PendingCall `json:"pendingCall,omitempty"`
	LastCalled   *CallOutcome `json:"lastCalled,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	StartTime    *time.Time   `json:"startTime,omitempty"`
	EndedAt      *time.Time   `json:"endedAt,omitempty"`
	LastActivity time.Time    `json:"lastActivity"`
}

// IndexOf returns the roster index of name, or -1
func (r *Room) IndexOf(name string) int {
	for i, p := range r.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// PlayerByName returns the player called name, or nil
func (r *Room) PlayerByName(name string) *Player {
	if i := r.IndexOf(name); i >= 0 {
		return r.Players[i]
	}
	return nil
}

// Center returns the current center, or nil for an empty room
func (r *Room) Center() *Player {
	if r.CenterIndex < 0 || r.CenterIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CenterIndex]
}

// SyncCenter recomputes IsCenter from CenterIndex
func (r *Room) SyncCenter() {
	for i, p := range r.Players {
		p.IsCenter = i == r.CenterIndex
	}
}

// RemovePlayer drops the player at idx and keeps the center role on exactly one player.
// When the center leaves, the role passes to whoever now occupies the same index, wrapping to 0.
func (r *Room) RemovePlayer(idx int) *Player {
	if idx < 0 || idx >= len(r.Players) {
		return nil
	}
	removed := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	switch {
	case len(r.Players) == 0:
		r.CenterIndex = 0
	case idx < r.CenterIndex:
		r.CenterIndex--
	case idx == r.CenterIndex && r.CenterIndex >= len(r.Players):
		r.CenterIndex = 0
	}
	r.SyncCenter()
	return removed
}

// NextAnimal picks the first animal from roster not held by anyone in the room
func (r *Room) NextAnimal(roster []string) string {
	taken := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		taken[p.Animal] = true
	}
	for _, a := range roster {
		if !taken[a] {
			return a
		}
	}
	for n := len(r.Players) + 1; ; n++ {
		a := fmt.Sprintf("Animal-%d", n)
		if !taken[a] {
			return a
		}
	}
}

// ConnectedCount returns the number of players with a live session
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// Clone returns a deep copy that shares no memory with r
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		if p.DisconnectedAt != nil {
			t := *p.DisconnectedAt
			cp.DisconnectedAt = &t
		}
		c.Players[i] = &cp
	}
	if r.PendingCall != nil {
		pc := *r.PendingCall
		c.PendingCall = &pc
	}
	if r.LastCalled != nil {
		lc := *r.LastCalled
		c.LastCalled = &lc
	}
	if r.StartTime != nil {
		t := *r.StartTime
		c.StartTime = &t
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// Standing is one row of the room scoreboard
type Standing struct {
	Rank     int    `json:"rank" bson:"rank"`
	Name     string `json:"name" bson:"name"`
	Animal   string `json:"animal" bson:"animal"`
	Points   int    `json:"points" bson:"points"`
	HasBoost bool   `json:"hasBoost" bson:"hasBoost"`
}

// Standings ranks players by points, ties broken by join order
func (r *Room) Standings() []Standing {
	out := make([]Standing, len(r.Players))
	for i, p := range r.Players {
		out[i] = Standing{Name: p.Name, Animal: p.Animal, Points: p.Points, HasBoost: p.HasBoost}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
