package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStatus_SetsBothFieldsTogether(t *testing.T) {
	s := NewStore(Seed())

	err := s.UpdateStatus("102", StatusLate, "08:22")
	require.NoError(t, err)

	got, err := s.Get("102")
	require.NoError(t, err)
	assert.Equal(t, StatusLate, got.Status)
	assert.Equal(t, "08:22", got.LastAccess)

	// Everything else stays put.
	assert.Equal(t, "Bruno Santos", got.Name)
	assert.Equal(t, "3A", got.ClassID)
}

func TestUpdateStatus_DoesNotTouchOtherStudents(t *testing.T) {
	s := NewStore(Seed())
	before := s.List()

	require.NoError(t, s.UpdateStatus("101", StatusAway, "12:00"))

	after := s.List()
	require.Len(t, after, len(before))
	for i := range after {
		if after[i].ID == "101" {
			continue
		}
		assert.Equal(t, before[i], after[i], "student %s must be untouched", after[i].ID)
	}
}

func TestUpdateStatus_UnknownIDLeavesRosterUnchanged(t *testing.T) {
	s := NewStore(Seed())
	before := s.List()

	err := s.UpdateStatus("999", StatusInSchool, "08:00")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.List())
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	s := NewStore(Seed())
	err := s.UpdateStatus("101", Status("TELEPORTED"), "08:00")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestAdd_RequiresPhoto(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Add(Student{Name: "Novo Aluno", ClassID: "1C"})
	assert.ErrorIs(t, err, ErrPhotoRequired)
	assert.Zero(t, s.Len())
}

func TestAdd_AssignsIDAndDefaults(t *testing.T) {
	s := NewStore(Seed())
	st, err := s.Add(Student{Name: "Elisa Rocha", ClassID: "1C", PhotoURL: "https://example.com/p.jpg"})
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, StatusAway, st.Status)
	assert.Equal(t, "-", st.LastAccess)
	assert.Equal(t, 5, s.Len())
}

func TestAdd_RejectsUnknownStatus(t *testing.T) {
	s := NewStore(Seed())
	_, err := s.Add(Student{Name: "Elisa Rocha", ClassID: "1C", PhotoURL: "x", Status: "BOGUS"})
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.Equal(t, 4, s.Len())

	// Known statuses pass through unchanged.
	st, err := s.Add(Student{Name: "Elisa Rocha", ClassID: "1C", PhotoURL: "x", Status: StatusInSchool})
	require.NoError(t, err)
	assert.Equal(t, StatusInSchool, st.Status)
}

func TestAdd_RejectsDuplicateID(t *testing.T) {
	s := NewStore(Seed())
	_, err := s.Add(Student{ID: "101", Name: "Clone", ClassID: "3A", PhotoURL: "x"})
	assert.Error(t, err)
	assert.Equal(t, 4, s.Len())
}

func TestSearch(t *testing.T) {
	s := NewStore(Seed())

	tests := []struct {
		query string
		want  int
	}{
		{"ana", 1},
		{"3a", 3},
		{"103", 1},
		{"", 4},
		{"zzz", 0},
	}
	for _, tt := range tests {
		assert.Len(t, s.Search(tt.query), tt.want, "query %q", tt.query)
	}
}

func TestByClass(t *testing.T) {
	s := NewStore(Seed())
	assert.Len(t, s.ByClass("3A"), 3)
	assert.Len(t, s.ByClass("2B"), 1)
	assert.Empty(t, s.ByClass("9Z"))
}

func TestBirthdaysOn_MatchesMonthDaySuffix(t *testing.T) {
	s := NewStore(Seed())
	got := s.BirthdaysOn("05-15")
	require.Len(t, got, 1)
	assert.Equal(t, "Ana Silva", got[0].Name)
	assert.Empty(t, s.BirthdaysOn("12-25"))
}

func TestCountByStatus(t *testing.T) {
	s := NewStore(Seed())
	counts := s.CountByStatus()
	assert.Equal(t, 2, counts[StatusInClass])
	assert.Equal(t, 1, counts[StatusInSchool])
	assert.Equal(t, 1, counts[StatusAway])
}
