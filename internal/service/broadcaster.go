package service

//go:generate mockgen -package=mocks -destination=mocks/mock_broadcaster.go survive/internal/service Broadcaster

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToPlayer(roomID, playerName string, msgType string, payload interface{})
	DisconnectRoom(roomID string)
}

// Outbound event names
const (
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventPlayerDisconnected = "playerDisconnected"
	EventPlayerReconnected  = "playerReconnected"
	EventGameStarted        = "gameStarted"
	EventGameEnded          = "gameEnded"
	EventCallIssued         = "callIssued"
	EventCallCancelled      = "callCancelled"
	EventPlayerTapped       = "playerTapped"
	EventAnimalSwitched     = "animalSwitched"
	EventRoomState          = "roomState"
	EventBoostApplied       = "boostApplied"
)

type roomStatePayload struct {
	GameID string      `json:"gameId"`
	Room   interface{} `json:"room"`
}

type playerJoinedPayload struct {
	GameID string      `json:"gameId"`
	Player interface{} `json:"player"`
	Count  int         `json:"count"`
}

type playerLeftPayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Reason     string `json:"reason"`
}

type playerDisconnectedPayload struct {
	GameID       string `json:"gameId"`
	PlayerName   string `json:"playerName"`
	GraceSeconds int    `json:"graceSeconds"`
	Connected    int    `json:"connected"`
}

type playerReconnectedPayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Connected  int    `json:"connected"`
}

type gameStartedPayload struct {
	GameID       string `json:"gameId"`
	TimerSeconds int    `json:"timerSeconds"`
	StartTime    string `json:"startTime"`
	EndsAt       string `json:"endsAt"`
}

type gameEndedPayload struct {
	GameID    string      `json:"gameId"`
	Reason    string      `json:"reason"`
	Standings interface{} `json:"standings"`
}

type callIssuedPayload struct {
	GameID   string `json:"gameId"`
	CallID   string `json:"callId"`
	Caller   string `json:"caller"`
	Target   string `json:"target"`
	Deadline string `json:"deadline"`
}

type callCancelledPayload struct {
	GameID string `json:"gameId"`
	CallID string `json:"callId"`
	Reason string `json:"reason"`
}

type playerTappedPayload struct {
	GameID string `json:"gameId"`
	CallID string `json:"callId"`
	By     string `json:"by"`
	Target string `json:"target"`
}

type animalSwitchedPayload struct {
	GameID     string `json:"gameId"`
	CallID     string `json:"callId"`
	Resolution string `json:"resolution"`
	From       string `json:"from"`
	To         string `json:"to"`
	FromAnimal string `json:"fromAnimal"`
	ToAnimal   string `json:"toAnimal"`
	ToPoints   int    `json:"toPoints"`
	Round      int    `json:"round"`
}

type boostAppliedPayload struct {
	GameID string `json:"gameId"`
	Points int    `json:"points"`
}
