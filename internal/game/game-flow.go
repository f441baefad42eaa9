package game

import (
	"fmt"
	"time"

	"github.com/scythe504/sketchguess-backend/internal"
)

// =============================================================================
// GAME FLOW - ROUND MANAGEMENT
// =============================================================================

// Start leaves the lobby and begins round 1. Calling it in any other phase
// does nothing. The only error is a catalog that cannot supply a sketch.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed || r.state.Phase != internal.PhaseLobby {
		r.log.Debug("Ignoring start", "phase", r.state.Phase)
		return nil
	}

	r.touch()
	r.log.Info("Phase transition", "from", internal.PhaseLobby, "to", internal.PhaseRoundPlaying)
	if err := r.nextRound(); err != nil {
		return fmt.Errorf("start room %s: %w", r.state.RoomCode, err)
	}
	return nil
}

// nextRound must be called with r.mu held.
func (r *Room) nextRound() error {
	if r.state.CurrentRound >= r.cfg.NumRounds {
		r.log.Info("Game over", "rounds", r.state.CurrentRound)
		r.transitionTo(internal.PhaseGameOver, 0, nil)
		return nil
	}

	sketch, err := r.pickSketch()
	if err != nil {
		return err
	}

	r.state.CurrentRound++
	for id, p := range r.state.Players {
		p.ResetRoundState()
		r.state.Players[id] = p
	}
	r.setActive(sketch)

	r.log.Info("Round started", "round", r.state.CurrentRound, "sketch", sketch.ID)
	r.transitionTo(internal.PhaseRoundPlaying, r.cfg.RoundDuration(), r.onRoundTimeout)
	return nil
}

// revealRound must be called with r.mu held.
func (r *Room) revealRound() {
	if r.active != nil {
		r.state.CurrentSketch = r.active.Revealed(r.startTime)
	}
	r.log.Info("Round revealed", "round", r.state.CurrentRound)
	r.transitionTo(internal.PhaseRoundReveal, r.cfg.RevealDuration(), r.nextRound)
}

func (r *Room) onRoundTimeout() error {
	r.revealRound()
	return nil
}

// transitionTo cancels any pending timer, switches phase, broadcasts and
// arms the next timer when d is positive. Must be called with r.mu held.
func (r *Room) transitionTo(phase internal.GamePhase, d time.Duration, next func() error) {
	r.cancelTimer()

	r.state.Phase = phase
	r.state.EndsAt = 0
	if d > 0 {
		r.state.EndsAt = r.clock.Now().Add(d).UnixMilli()
	}
	r.touch()
	r.emit()

	if d > 0 && next != nil {
		r.armTimer(d, next)
	}
}

// setActive stores the full sketch privately and exposes only the masked
// projection. Must be called with r.mu held.
func (r *Room) setActive(sketch internal.Sketch) {
	r.active = &sketch
	r.startTime = 0
	if r.cfg.RandomStartTime {
		r.startTime = r.rng.IntN(internal.MaxRandomStart)
	}
	r.state.CurrentSketch = sketch.Masked(r.startTime)
}
