// Package schedule keeps the weekly lesson grid: a sparse map from
// (class, day, slot) to at most one lesson.
package schedule

import (
	"errors"
	"sort"
	"sync"
)

// The grid covers Monday through Friday in four fixed periods.
const (
	DayMin = 1 // Monday
	DayMax = 5 // Friday
	SlotMin = 0
	SlotMax = 3
)

// SlotRanges are the display time ranges per slot index.
var SlotRanges = [...]string{
	"07:30 - 08:20",
	"08:20 - 09:10",
	"09:30 - 10:20",
	"10:20 - 11:10",
}

// Entry is one scheduled lesson.
type Entry struct {
	Subject   string `json:"subject"`
	TeacherID string `json:"teacherId"`
	RoomID    string `json:"roomId"`
}

// Slot is an Entry with its grid position, as returned by ByClass.
type Slot struct {
	ClassID string `json:"classId"`
	Day     int    `json:"day"`
	Slot    int    `json:"slot"`
	Entry   Entry  `json:"entry"`
}

var (
	ErrBadDay   = errors.New("day out of range (1..5)")
	ErrBadSlot  = errors.New("slot out of range (0..3)")
	ErrNoClass  = errors.New("class id required")
	ErrNotFound = errors.New("no lesson at that slot")
)

type key struct {
	classID string
	day     int
	slot    int
}

// Grid is the mutable schedule. Teacher or room double-booking across
// classes is deliberately not validated here.
type Grid struct {
	mu      sync.RWMutex
	lessons map[key]Entry
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{lessons: make(map[key]Entry)}
}

func checkKey(classID string, day, slot int) error {
	if classID == "" {
		return ErrNoClass
	}
	if day < DayMin || day > DayMax {
		return ErrBadDay
	}
	if slot < SlotMin || slot > SlotMax {
		return ErrBadSlot
	}
	return nil
}

// Set upserts the lesson at (classID, day, slot), replacing any entry
// already there.
func (g *Grid) Set(classID string, day, slot int, e Entry) error {
	if err := checkKey(classID, day, slot); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lessons[key{classID, day, slot}] = e
	return nil
}

// Remove deletes the lesson at the exact key; removing an empty slot is
// not an error.
func (g *Grid) Remove(classID string, day, slot int) error {
	if err := checkKey(classID, day, slot); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lessons, key{classID, day, slot})
	return nil
}

// Get returns the lesson at the key, or ErrNotFound.
func (g *Grid) Get(classID string, day, slot int) (Entry, error) {
	if err := checkKey(classID, day, slot); err != nil {
		return Entry{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.lessons[key{classID, day, slot}]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// ByClass returns a class's lessons ordered by day then slot.
func (g *Grid) ByClass(classID string) []Slot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Slot
	for k, e := range g.lessons {
		if k.classID == classID {
			out = append(out, Slot{ClassID: k.classID, Day: k.day, Slot: k.slot, Entry: e})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

// Len reports how many lessons are scheduled.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.lessons)
}
