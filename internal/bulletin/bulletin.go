// Package bulletin is the announcements board shown on the dashboard and
// the TV panel.
package bulletin

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Category classifies an announcement.
type Category string

const (
	CategoryEvent   Category = "EVENT"
	CategoryUrgent  Category = "URGENT"
	CategoryGeneral Category = "GENERAL"
)

// Announcement is one board item.
type Announcement struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	ScheduledFor string   `json:"scheduledFor"` // YYYY-MM-DD
	Category     Category `json:"category"`
}

var (
	ErrTitleRequired   = errors.New("announcement title required")
	ErrContentRequired = errors.New("announcement content required")
	ErrBadCategory     = errors.New("unknown announcement category")
	ErrNotFound        = errors.New("announcement not found")
)

// Board holds the announcements, newest first.
type Board struct {
	mu    sync.RWMutex
	items []Announcement
}

// NewBoard seeds a board; seed order is preserved.
func NewBoard(seed []Announcement) *Board {
	b := &Board{}
	b.items = append(b.items, seed...)
	return b
}

// Seed returns the demo announcements.
func Seed() []Announcement {
	return []Announcement{
		{ID: "a1", Title: "Reunião de Pais", Content: "Próxima sexta-feira às 19h no auditório principal.", ScheduledFor: "2024-05-20", Category: CategoryEvent},
		{ID: "a2", Title: "Simulado ENEM", Content: "Inscrições abertas até o final desta semana.", ScheduledFor: "2024-05-18", Category: CategoryGeneral},
	}
}

// Post validates and prepends an announcement, assigning an id when absent.
func (b *Board) Post(a Announcement) (Announcement, error) {
	if strings.TrimSpace(a.Title) == "" {
		return Announcement{}, ErrTitleRequired
	}
	if strings.TrimSpace(a.Content) == "" {
		return Announcement{}, ErrContentRequired
	}
	switch a.Category {
	case CategoryEvent, CategoryUrgent, CategoryGeneral:
	default:
		return Announcement{}, ErrBadCategory
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]Announcement{a}, b.items...)
	return a, nil
}

// Remove deletes the announcement with the given id.
func (b *Board) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.items {
		if a.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// List returns a copy of the board, newest first.
func (b *Board) List() []Announcement {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Announcement, len(b.items))
	copy(out, b.items)
	return out
}
