package game

import (
	"strings"

	"github.com/scythe504/sketchguess-backend/internal"
)

// =============================================================================
// GUESS HANDLING
// =============================================================================

const correctGuessText = "guessed the sketch!"

// NormalizeGuess trims surrounding whitespace and folds case.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SubmitGuess records one guess per player per round. Unknown players,
// repeated guesses and guesses outside ROUND_PLAYING are dropped.
func (r *Room) SubmitGuess(clientID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.state.Players[clientID]
	switch {
	case r.destroyed, !ok, r.active == nil, r.state.Phase != internal.PhaseRoundPlaying:
		r.log.Debug("Dropping guess", "client", clientID, "phase", r.state.Phase, "known", ok)
		return
	case player.HasGuessed:
		r.log.Debug("Dropping repeated guess", "client", clientID)
		return
	}

	r.touch()

	correct := NormalizeGuess(text) == NormalizeGuess(r.active.Name)
	points := 0
	if correct {
		remaining := r.state.EndsAt - r.nowMillis()
		points = CalculateGuessPoints(remaining, r.cfg.RoundDuration().Milliseconds())
		player.Score += points
	}

	player.HasGuessed = true
	player.LastGuessCorrect = correct
	player.LastGuessSketch = text
	r.state.Players[clientID] = player

	feedText := text
	if correct {
		feedText = correctGuessText
	}
	r.appendFeed(internal.FeedEntry{
		PlayerName: player.Name,
		Text:       feedText,
		IsCorrect:  correct,
	})

	r.log.Info("Guess submitted", "client", clientID, "correct", correct, "points", points)

	if r.state.AllGuessed() {
		r.log.Info("Everyone guessed, revealing early", "round", r.state.CurrentRound)
		r.revealRound()
		return
	}
	r.emit()
}
