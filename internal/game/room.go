package game

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/catalog"
	"github.com/scythe504/sketchguess-backend/internal/clock"
)

// Sink receives a deep copy of the room state after every visible change.
// It runs while the room is locked and must not call back into the room.
type Sink func(state internal.GameState)

// FailureHandler is told when a timer-driven transition cannot proceed.
// It runs after the room lock is released.
type FailureHandler func(roomID string, err error)

// Room is one running game. All exported methods are safe for concurrent
// use; operations and timer callbacks on the same room never interleave.
type Room struct {
	mu sync.Mutex

	state   internal.GameState
	cfg     internal.GameConfig
	catalog *catalog.Catalog

	// Sketch ids reported as unplayable; excluded for the rest of the game.
	blocked   map[string]struct{}
	active    *internal.Sketch
	startTime int

	lastActivityAt time.Time
	destroyed      bool

	timer    clock.Timer
	timerGen uint64

	sink      Sink
	selector  Selector
	onFailure FailureHandler
	clock     clock.Clock
	log       *slog.Logger
	rng       *rand.Rand
}

type RoomOption func(*Room)

func WithClock(c clock.Clock) RoomOption {
	return func(r *Room) { r.clock = c }
}

func WithLogger(log *slog.Logger) RoomOption {
	return func(r *Room) { r.log = log }
}

func WithRand(rng *rand.Rand) RoomOption {
	return func(r *Room) { r.rng = rng }
}

// WithSelector replaces the sketch selection policy.
func WithSelector(sel Selector) RoomOption {
	return func(r *Room) { r.selector = sel }
}

func WithFailureHandler(h FailureHandler) RoomOption {
	return func(r *Room) { r.onFailure = h }
}

// NewRoom builds a room in the LOBBY phase with host as its only player.
func NewRoom(id, roomCode string, cfg internal.GameConfig, host internal.Player, c *catalog.Catalog, sink Sink, opts ...RoomOption) (*Room, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, internal.ErrEmptyCatalog
	}

	r := &Room{
		cfg:      cfg,
		catalog:  c,
		blocked:  make(map[string]struct{}),
		sink:     sink,
		selector: SelectSketch,
		clock:    clock.New(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("room", id, "code", roomCode)

	host.ResetRoundState()
	r.state = internal.GameState{
		ID:       id,
		RoomCode: roomCode,
		Phase:    internal.PhaseLobby,
		HostID:   host.ClientID,
		Players:  map[string]internal.Player{host.ClientID: host},
		Config:   cfg,
	}
	r.lastActivityAt = r.clock.Now()

	r.log.Info("Room created", "host", host.ClientID, "rounds", cfg.NumRounds, "difficulty", cfg.Difficulty)
	return r, nil
}

// ValidateConfig checks the invariants the state machine relies on.
func ValidateConfig(cfg internal.GameConfig) error {
	switch {
	case cfg.NumRounds <= 0:
		return fmt.Errorf("%w: numRounds must be positive, got %d", internal.ErrInvalidConfig, cfg.NumRounds)
	case cfg.RoundLength <= 0:
		return fmt.Errorf("%w: roundLength must be positive, got %d", internal.ErrInvalidConfig, cfg.RoundLength)
	case cfg.RoundEndLength <= 0:
		return fmt.Errorf("%w: roundEndLength must be positive, got %d", internal.ErrInvalidConfig, cfg.RoundEndLength)
	case cfg.ClipLength < 0:
		return fmt.Errorf("%w: clipLength must not be negative, got %d", internal.ErrInvalidConfig, cfg.ClipLength)
	}
	switch cfg.Difficulty {
	case "", internal.DifficultyAll, internal.DifficultyEasy, internal.DifficultyMedium, internal.DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", internal.ErrInvalidConfig, cfg.Difficulty)
	}
	return nil
}

func (r *Room) ID() string       { return r.state.ID }
func (r *Room) RoomCode() string { return r.state.RoomCode }
func (r *Room) HostID() string   { return r.state.HostID }

func (r *Room) Config() internal.GameConfig { return r.cfg }

func (r *Room) Phase() internal.GamePhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Phase
}

// Players returns a copy of the roster.
func (r *Room) Players() map[string]internal.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.state.Players)
}

func (r *Room) LastActivityAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivityAt
}

// Snapshot returns the same deep copy a sink would receive.
func (r *Room) Snapshot() internal.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Summary is the lobby-browser view of the room.
func (r *Room) Summary() internal.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return internal.RoomSummary{
		RoomCode:       r.state.RoomCode,
		Phase:          r.state.Phase,
		PlayerCount:    len(r.state.Players),
		ConnectedCount: r.state.ConnectedCount(),
		CurrentRound:   r.state.CurrentRound,
		NumRounds:      r.cfg.NumRounds,
		IsPublic:       r.cfg.IsPublic,
	}
}

// Abandoned reports whether the room may be evicted: nobody is connected
// and nothing happened for longer than threshold.
func (r *Room) Abandoned(now time.Time, threshold time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.AllDisconnected() {
		return false
	}
	return now.Sub(r.lastActivityAt) > threshold
}

// Destroy cancels the pending timer. Every later operation is a no-op.
func (r *Room) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}
	r.destroyed = true
	r.cancelTimer()
	r.log.Info("Room destroyed", "phase", r.state.Phase, "round", r.state.CurrentRound)
}

func (r *Room) touch() {
	r.lastActivityAt = r.clock.Now()
}

func (r *Room) nowMillis() int64 {
	return r.clock.Now().UnixMilli()
}

// emit must be called with r.mu held.
func (r *Room) emit() {
	if r.sink == nil {
		return
	}
	r.sink(r.state.Clone())
}

func (r *Room) appendFeed(entry internal.FeedEntry) {
	entry.At = r.nowMillis()
	r.state.GuessFeed = append(r.state.GuessFeed, entry)
}
