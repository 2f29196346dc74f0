package checkin

import (
	"fmt"
	"time"

	"edutrack/internal/roster"
)

// Cutoff is the wall-clock boundary between an on-time and a late arrival.
// Comparison is at minute granularity: any second within the cutoff minute
// still counts as on time.
type Cutoff struct {
	Hour   int
	Minute int
}

// ParseCutoff reads an "HH:MM" string.
func ParseCutoff(s string) (Cutoff, error) {
	var c Cutoff
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return Cutoff{}, fmt.Errorf("invalid cutoff %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return Cutoff{}, fmt.Errorf("invalid cutoff %q", s)
	}
	return c, nil
}

// Classify maps an arrival instant to the status written on check-in:
// at or before the cutoff the student is IN_SCHOOL, after it LATE.
func (c Cutoff) Classify(t time.Time) roster.Status {
	arrived := t.Hour()*60 + t.Minute()
	if arrived <= c.Hour*60+c.Minute {
		return roster.StatusInSchool
	}
	return roster.StatusLate
}
