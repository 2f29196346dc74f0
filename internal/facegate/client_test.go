package facegate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_PicksBestMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[
			{"user_id":"102","similarity":0.61},
			{"user_id":"104","similarity":0.88},
			{"user_id":"101","similarity":0.47}
		],"faces_detected":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	id, sim, err := c.Search(context.Background(), "https://cdn/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "104", id)
	assert.InDelta(t, 0.88, sim, 0.001)
}

func TestSearch_NoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[],"faces_detected":0}`))
	}))
	defer srv.Close()

	_, _, err := New(srv.URL, false).Search(context.Background(), "https://cdn/photo.jpg")
	assert.Error(t, err)
}

func TestSearch_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := New(srv.URL, false).Search(context.Background(), "https://cdn/photo.jpg")
	assert.ErrorContains(t, err, "face service error")
}

func TestSearch_SkipMode(t *testing.T) {
	id, sim, err := New("http://unused", true).Search(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Greater(t, sim, 0.0)
}

func TestEnroll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/enroll", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := New(srv.URL, false).Enroll(context.Background(), "105", "Elisa Rocha", "https://cdn/p.jpg")
	assert.NoError(t, err)
}

func TestEnroll_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"face too blurry"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, false).Enroll(context.Background(), "105", "Elisa", "https://cdn/p.jpg")
	assert.ErrorContains(t, err, "face too blurry")
}

func TestEnroll_RequiresIDAndImage(t *testing.T) {
	c := New("http://unused", false)
	assert.Error(t, c.Enroll(context.Background(), "", "x", "url"))
	assert.Error(t, c.Enroll(context.Background(), "105", "x", ""))
}
