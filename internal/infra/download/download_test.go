package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vinylbox/internal/domain/track"
)

func TestDownloader_HTTP(t *testing.T) {
	payload := strings.Repeat("ID3", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/one.mp3" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, payload)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "music")
	d := New(dir)

	res, err := d.Download(context.Background(), track.Track{Name: "AC/DC Live", URL: server.URL + "/audio/one.mp3"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "AC_DC Live.mp3"), res.Path)
	assert.Equal(t, int64(len(payload)), res.Bytes)
	assert.Equal(t, "2.9 KB", res.Size())

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestDownloader_HTTPFailureKeepsExistingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "Song.mp3")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	_, err := New(dir).Download(context.Background(), track.Track{Name: "Song", URL: server.URL + "/missing.mp3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestDownloader_LocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.mp3")
	require.NoError(t, os.WriteFile(src, []byte("local audio"), 0o644))

	dir := t.TempDir()
	res, err := New(dir).Download(context.Background(), track.Track{Name: "Local", URL: src})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Local.mp3"), res.Path)
	assert.Equal(t, int64(11), res.Bytes)
}

func TestDownloader_NoURL(t *testing.T) {
	_, err := New(t.TempDir()).Download(context.Background(), track.Track{Name: "Ghost"})
	assert.Error(t, err)
}

func TestOpen_FileURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(src, []byte("abc"), 0o644))

	rc, size, err := Open(context.Background(), http.DefaultClient, "file://"+filepath.ToSlash(src))
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(3), size)
}

func TestResult_Size(t *testing.T) {
	assert.Equal(t, "0 B", Result{Bytes: -1}.Size())
	assert.Equal(t, "512 B", Result{Bytes: 512}.Size())
	assert.Equal(t, "5.0 MB", Result{Bytes: 5 * 1024 * 1024}.Size())
}
