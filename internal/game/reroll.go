package game

import (
	"fmt"

	"github.com/scythe504/sketchguess-backend/internal"
)

// RerollVideoForError replaces a sketch whose video failed to play. The
// failing sketch is blocked for the rest of the game, the round number is
// kept and the round timer restarts at full length.
func (r *Room) RerollVideoForError(clientID string, errorCode int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed || r.state.Phase != internal.PhaseRoundPlaying {
		r.log.Debug("Ignoring video error report", "client", clientID, "phase", r.state.Phase)
		return nil
	}

	r.touch()
	failed := ""
	if r.active != nil {
		failed = r.active.ID
		r.blocked[failed] = struct{}{}
	}

	sketch, err := r.pickSketch()
	if err != nil {
		return fmt.Errorf("reroll room %s: %w", r.state.RoomCode, err)
	}
	r.setActive(sketch)

	reporter := "a player"
	if p, ok := r.state.Players[clientID]; ok {
		reporter = p.Name
	}
	r.appendFeed(internal.FeedEntry{
		PlayerName: internal.SystemAuthor,
		Text:       fmt.Sprintf("Video blocked (error %d) reported by %s. Loading a new clip...", errorCode, reporter),
		System:     true,
	})

	r.log.Warn("Video rerolled", "client", clientID, "error_code", errorCode, "blocked", failed, "sketch", sketch.ID)
	r.transitionTo(internal.PhaseRoundPlaying, r.cfg.RoundDuration(), r.onRoundTimeout)
	return nil
}

// Blocked reports whether a sketch id is on the room's blocklist.
func (r *Room) Blocked(sketchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blocked[sketchID]
	return ok
}
