package game

import (
	"github.com/scythe504/sketchguess-backend/internal"
)

// CalculateGuessPoints scores a correct guess: the base score plus a bonus
// proportional to the share of the round still left. remainingMs below
// zero (clock skew) counts as zero.
func CalculateGuessPoints(remainingMs, roundMs int64) int {
	remainingMs = max(remainingMs, 0)
	if roundMs <= 0 {
		return internal.BaseScore
	}

	bonus := remainingMs * internal.MaxTimeBonus / roundMs
	bonus = min(bonus, internal.MaxTimeBonus)
	return internal.BaseScore + int(bonus)
}

// Leaderboard ranks the room's players by score.
func (r *Room) Leaderboard() []internal.LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Leaderboard()
}
