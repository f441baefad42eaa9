// Package catalog holds the read-only list of guessable sketches and the
// loaders that build it from files or Postgres.
package catalog

import (
	"io"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/scythe504/sketchguess-backend/internal"
)

// Catalog is immutable once built.
type Catalog struct {
	sketches []internal.Sketch
}

// New is Build without logging.
func New(sketches []internal.Sketch) *Catalog {
	return Build(sketches, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Build copies sketches, skipping entries without a name or a video id
// with a warning. Entries without an ID get their video id as ID.
func Build(sketches []internal.Sketch, log *slog.Logger) *Catalog {
	valid := lo.FilterMap(sketches, func(s internal.Sketch, i int) (internal.Sketch, bool) {
		if s.Name == "" || s.YoutubeID == "" {
			log.Warn("Skipping incomplete catalog entry", "index", i, "id", s.ID, "name", s.Name, "youtube_id", s.YoutubeID)
			return s, false
		}
		if s.ID == "" {
			s.ID = s.YoutubeID
		}
		s.Tags = slices.Clone(s.Tags)
		return s, true
	})
	return &Catalog{sketches: valid}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sketches)
}

// All returns a copy of every sketch.
func (c *Catalog) All() []internal.Sketch {
	if c == nil {
		return nil
	}
	return slices.Clone(c.sketches)
}

// Filter returns the sketches matching d; "all" and unset match everything.
func (c *Catalog) Filter(d internal.Difficulty) []internal.Sketch {
	if d.Any() {
		return c.All()
	}
	if c == nil {
		return nil
	}
	return lo.Filter(c.sketches, func(s internal.Sketch, _ int) bool {
		return s.Difficulty == d
	})
}

// Lookup finds a sketch by id.
func (c *Catalog) Lookup(id string) (internal.Sketch, bool) {
	if c == nil {
		return internal.Sketch{}, false
	}
	return lo.Find(c.sketches, func(s internal.Sketch) bool { return s.ID == id })
}
