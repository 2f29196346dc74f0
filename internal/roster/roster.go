package roster

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Status is a student's current whereabouts as tracked by the portaria.
type Status string

const (
	StatusInSchool Status = "IN_SCHOOL"
	StatusInClass  Status = "IN_CLASS"
	StatusAway     Status = "AWAY"
	StatusLate     Status = "LATE"
	StatusAbsent   Status = "ABSENT"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInSchool, StatusInClass, StatusAway, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Student is a roster record. Status and LastAccess always change together
// through UpdateStatus; everything else is set at registration.
type Student struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ClassID       string `json:"classId"`
	PhotoURL      string `json:"photoUrl"`
	Status        Status `json:"status"`
	LastAccess    string `json:"lastAccess"`
	Birthday      string `json:"birthday,omitempty"` // YYYY-MM-DD
	GuardianName  string `json:"guardianName,omitempty"`
	GuardianPhone string `json:"guardianPhone,omitempty"`
	GuardianEmail string `json:"guardianEmail,omitempty"`
}

var (
	ErrNotFound      = errors.New("student not found")
	ErrNameRequired  = errors.New("student name required")
	ErrClassRequired = errors.New("class id required")
	ErrPhotoRequired = errors.New("student photo required")
	ErrBadStatus     = errors.New("unknown status")
)

// Store owns the in-memory roster. It is the single mutation point; every
// reader sees a write as soon as UpdateStatus or Add returns.
type Store struct {
	mu       sync.RWMutex
	students []Student
	index    map[string]int
}

// NewStore seeds a store with the given students. Duplicate ids keep the
// first occurrence.
func NewStore(seed []Student) *Store {
	s := &Store{index: make(map[string]int, len(seed))}
	for _, st := range seed {
		if _, dup := s.index[st.ID]; dup || st.ID == "" {
			continue
		}
		s.index[st.ID] = len(s.students)
		s.students = append(s.students, st)
	}
	return s
}

// UpdateStatus sets a student's status and last-access time in one step.
// An unknown id leaves the roster untouched and returns ErrNotFound so the
// caller can decide whether to log it.
func (s *Store) UpdateStatus(id string, status Status, accessTime string) error {
	if !status.Valid() {
		return ErrBadStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.students[i].Status = status
	s.students[i].LastAccess = accessTime
	return nil
}

// Add registers a new student. The photo is mandatory (admission form
// rule); an empty id gets a generated one. There is no removal path.
func (s *Store) Add(st Student) (Student, error) {
	switch {
	case strings.TrimSpace(st.Name) == "":
		return Student{}, ErrNameRequired
	case strings.TrimSpace(st.ClassID) == "":
		return Student{}, ErrClassRequired
	case strings.TrimSpace(st.PhotoURL) == "":
		return Student{}, ErrPhotoRequired
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Status == "" {
		st.Status = StatusAway
	} else if !st.Status.Valid() {
		return Student{}, ErrBadStatus
	}
	if st.LastAccess == "" {
		st.LastAccess = "-"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[st.ID]; dup {
		return Student{}, errors.New("student id already registered")
	}
	s.index[st.ID] = len(s.students)
	s.students = append(s.students, st)
	return st, nil
}

// Get returns a copy of the student with the given id.
func (s *Store) Get(id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s.students[i], nil
}

// List returns a copy of the roster in registration order.
func (s *Store) List() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// Len reports the roster size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// Search matches the query against name, id and class, case-insensitively.
// An empty query returns the whole roster.
func (s *Store) Search(query string) []Student {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Student
	for _, st := range s.students {
		if strings.Contains(strings.ToLower(st.Name), q) ||
			strings.Contains(strings.ToLower(st.ID), q) ||
			strings.Contains(strings.ToLower(st.ClassID), q) {
			out = append(out, st)
		}
	}
	return out
}

// ByClass returns the students registered in the given class.
func (s *Store) ByClass(classID string) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Student
	for _, st := range s.students {
		if st.ClassID == classID {
			out = append(out, st)
		}
	}
	return out
}

// BirthdaysOn returns the students whose birthday falls on the given
// month-day ("MM-DD").
func (s *Store) BirthdaysOn(monthDay string) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Student
	for _, st := range s.students {
		if st.Birthday == "" {
			continue
		}
		// Seed data carries full dates; match on the MM-DD suffix.
		if strings.HasSuffix(st.Birthday, monthDay) || st.Birthday == monthDay {
			out = append(out, st)
		}
	}
	return out
}

// CountByStatus tallies the roster per status, for the dashboard KPIs.
func (s *Store) CountByStatus() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int)
	for _, st := range s.students {
		counts[st.Status]++
	}
	return counts
}
