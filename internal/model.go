package internal

import (
	"time"
)

const (
	DefaultNumRounds      = 5
	DefaultClipLength     = 5
	DefaultRoundLength    = 30
	DefaultRoundEndLength = 10
	MaxPlayersPerRoom     = 12

	// Points for a correct guess, before the time bonus.
	BaseScore = 500
	// Upper bound of the time bonus, reached with the full round remaining.
	MaxTimeBonus = 500

	// Random playback cues are drawn from [0, MaxRandomStart).
	MaxRandomStart = 120
)

type GamePhase string

const (
	PhaseLobby        GamePhase = "LOBBY"
	PhaseRoundPlaying GamePhase = "ROUND_PLAYING"
	PhaseRoundReveal  GamePhase = "ROUND_REVEAL"
	PhaseGameOver     GamePhase = "GAME_OVER"
)

// Revealed reports whether the active sketch may be shown in full.
func (p GamePhase) Revealed() bool {
	return p == PhaseRoundReveal || p == PhaseGameOver
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAll    Difficulty = "all"
)

// Any is true for "all" and for an unset difficulty.
func (d Difficulty) Any() bool {
	return d == "" || d == DifficultyAll
}

// Sketch is one entry of the guessable catalog.
type Sketch struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	YoutubeID   string     `json:"youtubeId"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
}

// PublicSketch is what clients see of the active sketch. Name and
// Description stay nil while the round is being played.
type PublicSketch struct {
	ID          string   `json:"id"`
	YoutubeID   string   `json:"youtubeId"`
	StartTime   int      `json:"startTime"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Masked returns the in-round projection of s.
func (s Sketch) Masked(startTime int) *PublicSketch {
	return &PublicSketch{
		ID:        s.ID,
		YoutubeID: s.YoutubeID,
		StartTime: startTime,
	}
}

// Revealed returns the full projection of s.
func (s Sketch) Revealed(startTime int) *PublicSketch {
	name, description := s.Name, s.Description
	return &PublicSketch{
		ID:          s.ID,
		YoutubeID:   s.YoutubeID,
		StartTime:   startTime,
		Name:        &name,
		Description: &description,
		Tags:        append([]string(nil), s.Tags...),
	}
}

type GameConfig struct {
	NumRounds       int        `json:"numRounds" validate:"required,min=1,max=50"`
	ClipLength      int        `json:"clipLength" validate:"min=0,max=120"`
	RoundLength     int        `json:"roundLength" validate:"required,min=1,max=600"`
	RoundEndLength  int        `json:"roundEndLength" validate:"required,min=1,max=600"`
	RandomStartTime bool       `json:"randomStartTime"`
	IsPublic        bool       `json:"isPublic"`
	Difficulty      Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard all"`
}

func (c GameConfig) RoundDuration() time.Duration {
	return time.Duration(c.RoundLength) * time.Second
}

func (c GameConfig) RevealDuration() time.Duration {
	return time.Duration(c.RoundEndLength) * time.Second
}

// WithDefaults fills zero values the way the create-room form does.
func (c GameConfig) WithDefaults() GameConfig {
	if c.NumRounds == 0 {
		c.NumRounds = DefaultNumRounds
	}
	if c.RoundLength == 0 {
		c.RoundLength = DefaultRoundLength
	}
	if c.RoundEndLength == 0 {
		c.RoundEndLength = DefaultRoundEndLength
	}
	if c.ClipLength == 0 {
		c.ClipLength = DefaultClipLength
	}
	if c.Difficulty == "" {
		c.Difficulty = DifficultyAll
	}
	return c
}

// FeedEntry is one line of the guess feed.
type FeedEntry struct {
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
	System     bool   `json:"system,omitempty"`
	At         int64  `json:"at"`
}

const SystemAuthor = "System"

// GameState is the full room snapshot broadcast to members.
type GameState struct {
	ID            string            `json:"gameId"`
	RoomCode      string            `json:"roomCode"`
	Phase         GamePhase         `json:"phase"`
	HostID        string            `json:"hostId"`
	CurrentRound  int               `json:"currentRound"`
	EndsAt        int64             `json:"endsAt"`
	Players       map[string]Player `json:"players"`
	CurrentSketch *PublicSketch     `json:"currentSketch,omitempty"`
	GuessFeed     []FeedEntry       `json:"guessFeed"`
	Config        GameConfig        `json:"config"`
}

type LeaderboardEntry struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
