package internal

import "encoding/json"

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound message types.
const (
	MsgIdentify    = "identify"
	MsgStartGame   = "start_game"
	MsgSubmitGuess = "submit_guess"
	MsgVideoError  = "video_error"
	MsgLeaveGame   = "leave_game"
)

// Outbound message types.
const (
	MsgGameUpdate = "game_update"
	MsgInitSync   = "init_sync"
	MsgError      = "error"
)

type InboundMessage = Message[json.RawMessage]

type IdentifyData struct {
	ClientID string `json:"clientId" validate:"required,max=64"`
	Name     string `json:"name" validate:"max=32"`
	RoomCode string `json:"roomCode" validate:"required"`
}

type GuessData struct {
	Guess string `json:"guess"`
}

type VideoErrorData struct {
	ErrorCode int `json:"errorCode"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type InitSyncData struct {
	ServerTime int64 `json:"serverTime"`
}

type CreateRoomRequest struct {
	HostName     string     `json:"hostName" validate:"required,max=32"`
	HostClientID string     `json:"hostClientId" validate:"required,max=64"`
	Config       GameConfig `json:"config"`
}

type CreateRoomResponse struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
}

type RoomSummary struct {
	RoomCode       string    `json:"roomCode"`
	Phase          GamePhase `json:"phase"`
	PlayerCount    int       `json:"playerCount"`
	ConnectedCount int       `json:"connectedCount"`
	CurrentRound   int       `json:"currentRound"`
	NumRounds      int       `json:"numRounds"`
	IsPublic       bool      `json:"isPublic"`
}
