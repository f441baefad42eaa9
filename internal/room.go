package internal

import (
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Clone deep-copies the snapshot so later room mutations never leak into
// an already emitted state.
func (s GameState) Clone() GameState {
	out := s
	out.Players = maps.Clone(s.Players)
	if out.Players == nil {
		out.Players = make(map[string]Player)
	}
	out.GuessFeed = slices.Clone(s.GuessFeed)
	if out.GuessFeed == nil {
		out.GuessFeed = []FeedEntry{}
	}
	if s.CurrentSketch != nil {
		sketch := *s.CurrentSketch
		if sketch.Name != nil {
			name := *sketch.Name
			sketch.Name = &name
		}
		if sketch.Description != nil {
			description := *sketch.Description
			sketch.Description = &description
		}
		sketch.Tags = slices.Clone(sketch.Tags)
		out.CurrentSketch = &sketch
	}
	return out
}

// AllGuessed is true when every player has guessed this round. An empty
// roster never counts as "all guessed".
func (s GameState) AllGuessed() bool {
	if len(s.Players) == 0 {
		return false
	}
	return lo.EveryBy(lo.Values(s.Players), func(p Player) bool { return p.HasGuessed })
}

// AllDisconnected is true for an empty roster too.
func (s GameState) AllDisconnected() bool {
	return lo.EveryBy(lo.Values(s.Players), func(p Player) bool { return !p.Connected })
}

func (s GameState) ConnectedCount() int {
	return lo.CountBy(lo.Values(s.Players), func(p Player) bool { return p.Connected })
}

// Leaderboard ranks players by score, ties broken by name.
func (s GameState) Leaderboard() []LeaderboardEntry {
	players := lo.Values(s.Players)
	slices.SortFunc(players, func(a, b Player) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Name, b.Name)
	})

	board := make([]LeaderboardEntry, 0, len(players))
	for idx, p := range players {
		board = append(board, LeaderboardEntry{
			ClientID: p.ClientID,
			Name:     p.Name,
			Score:    p.Score,
			Position: idx + 1,
		})
	}
	return board
}
