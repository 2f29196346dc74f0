package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, handler http.HandlerFunc) *Cloudinary {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewCloudinary("demo", "key", "secret", "edutrack/students")
	c.baseURL = srv.URL
	return c
}

func TestUploadBytes(t *testing.T) {
	c := testStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "edutrack/students", r.FormValue("folder"))
		assert.NotEmpty(t, r.FormValue("signature"))
		_, _ = w.Write([]byte(`{"public_id":"edutrack/students/abc","secure_url":"https://res.cloudinary.com/demo/abc.jpg","width":200,"height":200,"bytes":1234}`))
	})

	photo, err := c.UploadBytes(context.Background(), []byte("jpegdata"), "aluno.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/abc.jpg", photo.URL)
	assert.Equal(t, 200, photo.Width)
}

func TestUploadBase64(t *testing.T) {
	c := testStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Contains(t, r.FormValue("file"), "base64")
		_, _ = w.Write([]byte(`{"public_id":"p","secure_url":"https://res.cloudinary.com/demo/p.png"}`))
	})

	photo, err := c.UploadBase64(context.Background(), "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/p.png", photo.URL)
}

func TestUpload_ErrorStatus(t *testing.T) {
	c := testStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})

	_, err := c.UploadBytes(context.Background(), []byte("x"), "a.jpg")
	assert.ErrorContains(t, err, "upload failed (401)")
}

func TestSign_IsDeterministicAndExcludesAPIKey(t *testing.T) {
	c := NewCloudinary("demo", "key", "secret", "")
	params := map[string]string{"timestamp": "1700000000", "api_key": "key", "folder": "f"}
	sig1 := c.sign(params)
	sig2 := c.sign(map[string]string{"folder": "f", "timestamp": "1700000000"})
	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 40)
}
