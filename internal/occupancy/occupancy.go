// Package occupancy derives room occupation from the roster. It holds no
// state of its own; callers pass the current student list on every
// computation, which is cheap at roster sizes of a few hundred.
package occupancy

import "edutrack/internal/roster"

// HighWatermark is the occupancy rate above which a room is flagged as
// near its limit on the map view.
const HighWatermark = 85.0

// Count returns how many students are currently in class in the room
// assigned to classID. Matching is an exact ClassID comparison; the legacy
// room-code prefix rule was retired (see DESIGN.md).
func Count(students []roster.Student, classID string) int {
	n := 0
	for _, st := range students {
		if st.ClassID == classID && st.Status == roster.StatusInClass {
			n++
		}
	}
	return n
}

// Rate converts a head count into a percentage of capacity. A zero or
// negative capacity yields 0 rather than dividing by it.
func Rate(count, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(count) / float64(capacity) * 100
}

// High reports whether a rate crosses the near-limit threshold.
func High(rate float64) bool {
	return rate > HighWatermark
}
