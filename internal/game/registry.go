package game

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/catalog"
	"github.com/scythe504/sketchguess-backend/internal/clock"
	"github.com/scythe504/sketchguess-backend/internal/utils"
)

const (
	DefaultSweepInterval       = 60 * time.Second
	DefaultInactivityThreshold = 2 * time.Minute

	maxCodeAttempts = 32
)

// Registry owns every live room, indexed by id and by room code.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	byCode map[string]string

	catalog  *catalog.Catalog
	bindings *Bindings

	threshold time.Duration
	interval  time.Duration
	clock     clock.Clock
	log       *slog.Logger
	roomOpts  []RoomOption
	newCode   func() string
}

type RegistryOption func(*Registry)

func WithInactivityThreshold(d time.Duration) RegistryOption {
	return func(reg *Registry) { reg.threshold = d }
}

func WithSweepInterval(d time.Duration) RegistryOption {
	return func(reg *Registry) { reg.interval = d }
}

func WithRegistryClock(c clock.Clock) RegistryOption {
	return func(reg *Registry) { reg.clock = c }
}

func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(reg *Registry) { reg.log = log }
}

// WithRoomOptions appends options applied to every room the registry builds.
func WithRoomOptions(opts ...RoomOption) RegistryOption {
	return func(reg *Registry) { reg.roomOpts = append(reg.roomOpts, opts...) }
}

func withCodeGenerator(f func() string) RegistryOption {
	return func(reg *Registry) { reg.newCode = f }
}

func NewRegistry(c *catalog.Catalog, bindings *Bindings, opts ...RegistryOption) *Registry {
	reg := &Registry{
		rooms:     make(map[string]*Room),
		byCode:    make(map[string]string),
		catalog:   c,
		bindings:  bindings,
		threshold: DefaultInactivityThreshold,
		interval:  DefaultSweepInterval,
		clock:     clock.New(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		newCode:   utils.GenerateRoomCode,
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

func (reg *Registry) Bindings() *Bindings { return reg.bindings }

// Create builds a room hosted by host and binds the host to it. The host
// joins disconnected and flips to connected when their socket identifies.
func (reg *Registry) Create(cfg internal.GameConfig, host internal.Player, sink Sink) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.uniqueCode()
	if err != nil {
		return nil, err
	}
	id := utils.GenerateID()

	opts := []RoomOption{
		WithClock(reg.clock),
		WithLogger(reg.log),
		WithFailureHandler(reg.handleFailure),
	}
	opts = append(opts, reg.roomOpts...)

	room, err := NewRoom(id, code, cfg.WithDefaults(), host, reg.catalog, sink, opts...)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	reg.rooms[id] = room
	reg.byCode[code] = id
	reg.bindings.BindRoom(host.ClientID, id)

	reg.log.Info("Room registered", "room", id, "code", code, "rooms", len(reg.rooms))
	return room, nil
}

// uniqueCode must be called with reg.mu held.
func (reg *Registry) uniqueCode() (string, error) {
	for range maxCodeAttempts {
		code := reg.newCode()
		if _, taken := reg.byCode[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

func (reg *Registry) ByID(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// ByCode ignores case and surrounding space. Codes that GenerateRoomCode
// could not have produced are rejected without a lookup.
func (reg *Registry) ByCode(code string) (*Room, bool) {
	code = utils.NormalizeRoomCode(code)
	if !utils.ValidRoomCode(code) {
		return nil, false
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	id, ok := reg.byCode[code]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[id]
	return room, ok
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// PublicRooms lists public rooms still waiting in the lobby.
func (reg *Registry) PublicRooms() []internal.RoomSummary {
	reg.mu.Lock()
	rooms := lo.Values(reg.rooms)
	reg.mu.Unlock()

	summaries := lo.FilterMap(rooms, func(room *Room, _ int) (internal.RoomSummary, bool) {
		if !room.Config().IsPublic {
			return internal.RoomSummary{}, false
		}
		summary := room.Summary()
		return summary, summary.Phase == internal.PhaseLobby
	})
	slices.SortFunc(summaries, func(a, b internal.RoomSummary) int {
		return strings.Compare(a.RoomCode, b.RoomCode)
	})
	return summaries
}

// Remove retires a room immediately.
func (reg *Registry) Remove(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.purge(id)
}

// Sweep purges every abandoned room and returns their ids.
func (reg *Registry) Sweep(now time.Time) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var purged []string
	for id, room := range reg.rooms {
		if !room.Abandoned(now, reg.threshold) {
			continue
		}
		reg.log.Info("Evicting inactive room", "room", id, "code", room.RoomCode(), "idle", now.Sub(room.LastActivityAt()))
		reg.purge(id)
		purged = append(purged, id)
	}
	if len(purged) > 0 {
		reg.log.Info("Sweep finished", "purged", len(purged), "rooms", len(reg.rooms))
	}
	return purged
}

// Run sweeps once per interval, measured on the registry clock, until ctx
// is done.
func (reg *Registry) Run(ctx context.Context) {
	tick := make(chan struct{}, 1)
	arm := func() clock.Timer {
		return reg.clock.AfterFunc(reg.interval, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
	}

	reg.log.Info("Room sweeper started", "interval", reg.interval, "threshold", reg.threshold)
	timer := arm()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			reg.log.Info("Room sweeper stopped")
			return
		case <-tick:
			reg.Sweep(reg.clock.Now())
			timer = arm()
		}
	}
}

// purge must be called with reg.mu held.
func (reg *Registry) purge(id string) bool {
	room, ok := reg.rooms[id]
	if !ok {
		return false
	}

	room.Destroy()
	delete(reg.rooms, id)
	if reg.byCode[room.RoomCode()] == id {
		delete(reg.byCode, room.RoomCode())
	}
	reg.bindings.ForgetRoom(id, lo.Keys(room.Players()))
	return true
}

func (reg *Registry) handleFailure(roomID string, err error) {
	reg.log.Error("Removing room after fatal error", "room", roomID, "error", err)
	reg.Remove(roomID)
}
