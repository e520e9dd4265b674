package swarm

// SpeedHold remembers the speed an agent had before a temporary slow-down.
// Save hands out a generation token; only the matching Release restores, so a
// slow-down is undone at most once however often recovery runs.
type SpeedHold struct {
	saved  float64
	active bool
	gen    uint64
}

// Save stores speed unless a hold is already active, in which case the first
// saved speed is kept. It returns the token for the active hold.
func (h *SpeedHold) Save(speed float64) uint64 {
	if !h.active {
		h.saved = speed
		h.active = true
	}
	return h.gen
}

// Release ends the hold identified by gen and returns the saved speed. The
// bool is false when the token is stale or nothing is held.
func (h *SpeedHold) Release(gen uint64) (float64, bool) {
	if !h.active || gen != h.gen {
		return 0, false
	}
	h.active = false
	h.gen++
	return h.saved, true
}

// Rebase replaces the saved speed of an active hold.
func (h *SpeedHold) Rebase(speed float64) {
	if h.active {
		h.saved = speed
	}
}

// Active reports whether a speed is being held.
func (h *SpeedHold) Active() bool { return h.active }

// Saved returns the held speed, or 0 when nothing is held.
func (h *SpeedHold) Saved() float64 {
	if !h.active {
		return 0
	}
	return h.saved
}
