package game

import (
	"github.com/scythe504/sketchguess-backend/internal"
)

// =============================================================================
// ROSTER
// =============================================================================

// AddPlayer inserts or overwrites p. Capacity is checked by the caller.
func (r *Room) AddPlayer(p internal.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return
	}

	r.touch()
	p.ResetRoundState()
	r.state.Players[p.ClientID] = p

	r.log.Info("Player joined", "client", p.ClientID, "name", p.Name, "players", len(r.state.Players))
	r.emit()
}

// RemovePlayer drops a player who left on purpose. If everyone still in
// the round has already guessed, the round is revealed right away.
func (r *Room) RemovePlayer(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state.Players[clientID]; r.destroyed || !ok {
		return
	}

	r.touch()
	delete(r.state.Players, clientID)
	r.log.Info("Player left", "client", clientID, "players", len(r.state.Players))

	if r.state.Phase == internal.PhaseRoundPlaying && r.state.AllGuessed() {
		r.log.Info("Remaining players already guessed, revealing early", "round", r.state.CurrentRound)
		r.revealRound()
		return
	}
	r.emit()
}

// SetConnectionStatus flips the liveness flag only; score and guess state
// are kept so a reconnecting player resumes where they were.
func (r *Room) SetConnectionStatus(clientID string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.state.Players[clientID]
	if r.destroyed || !ok {
		return
	}

	r.touch()
	player.Connected = connected
	r.state.Players[clientID] = player

	r.log.Info("Connection status changed", "client", clientID, "connected", connected)
	r.emit()
}
