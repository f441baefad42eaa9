package game

import (
	"time"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

// armTimer replaces the room's phase timer. next runs with the room locked;
// an error it returns is handed to the failure handler after unlocking.
// Must be called with r.mu held.
func (r *Room) armTimer(d time.Duration, next func() error) {
	r.cancelTimer()
	gen := r.timerGen

	r.timer = r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		// A timer stopped after it started firing still lands here; the
		// generation check keeps it from touching the room.
		if r.destroyed || gen != r.timerGen {
			r.mu.Unlock()
			return
		}
		r.timer = nil
		err := next()
		r.mu.Unlock()

		if err != nil {
			r.fail(err)
		}
	})
}

// cancelTimer must be called with r.mu held.
func (r *Room) cancelTimer() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) fail(err error) {
	r.log.Error("Room cannot advance", "error", err)
	if r.onFailure != nil {
		r.onFailure(r.state.ID, err)
	}
}

// HasPendingTimer is true while a phase timer is armed.
func (r *Room) HasPendingTimer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}
