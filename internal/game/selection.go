package game

import (
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/catalog"
)

// Selector picks the next sketch for a room.
type Selector func(c *catalog.Catalog, difficulty internal.Difficulty, blocked map[string]struct{}, rng *rand.Rand) (internal.Sketch, error)

// SelectSketch draws uniformly from the sketches matching difficulty that
// are not blocked. When that leaves nothing it ignores the blocklist, then
// the difficulty. An empty catalog is ErrEmptyCatalog.
func SelectSketch(c *catalog.Catalog, difficulty internal.Difficulty, blocked map[string]struct{}, rng *rand.Rand) (internal.Sketch, error) {
	pool := c.Filter(difficulty)
	candidates := lo.Reject(pool, func(s internal.Sketch, _ int) bool {
		_, isBlocked := blocked[s.ID]
		return isBlocked
	})

	if len(candidates) == 0 {
		candidates = pool
	}
	if len(candidates) == 0 {
		candidates = c.All()
	}
	if len(candidates) == 0 {
		return internal.Sketch{}, internal.ErrEmptyCatalog
	}

	return candidates[rng.IntN(len(candidates))], nil
}

// pickSketch must be called with r.mu held.
func (r *Room) pickSketch() (internal.Sketch, error) {
	return r.selector(r.catalog, r.cfg.Difficulty, r.blocked, r.rng)
}
