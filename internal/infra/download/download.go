// Package download saves catalog tracks to the local filesystem.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vinylbox/internal/domain/track"
)

// Result describes a completed download.
type Result struct {
	Path  string
	Bytes int64
}

// Size returns the downloaded size in human-readable form.
func (r Result) Size() string {
	if r.Bytes < 0 {
		return "0 B"
	}
	s := humanize.IBytes(uint64(r.Bytes))
	// Convert IEC notation to SI: MiB→MB, KiB→KB
	return strings.ReplaceAll(s, "iB", "B")
}

// Downloader saves tracks into a directory.
type Downloader struct {
	dir        string
	httpClient *http.Client
}

// New creates a downloader writing into dir.
func New(dir string) *Downloader {
	if dir == "" {
		dir = "."
	}
	return &Downloader{
		dir:        dir,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Dir returns the target directory.
func (d *Downloader) Dir() string {
	return d.dir
}

// Target returns where t would be saved.
func (d *Downloader) Target(t track.Track) string {
	return filepath.Join(d.dir, t.FileName())
}

// Download fetches the track's audio and saves it as "<name>.mp3".
// An existing file is replaced only once the transfer has completed.
func (d *Downloader) Download(ctx context.Context, t track.Track) (Result, error) {
	if t.URL == "" {
		return Result{}, errors.Newf("track %q has no url", t.Name)
	}

	src, _, err := Open(ctx, d.httpClient, t.URL)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Result{}, errors.Wrap(err, "failed to create download directory")
	}

	target := d.Target(t)
	tmp, err := os.CreateTemp(d.dir, ".vinylbox-*.part")
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to create temporary file")
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once renamed
		_ = os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return Result{}, errors.Wrap(err, "failed to write track")
	}
	if err := tmp.Close(); err != nil {
		return Result{}, errors.Wrap(err, "failed to write track")
	}

	// Write atomically via temp file + rename
	if err := os.Rename(tmpPath, target); err != nil {
		return Result{}, errors.Wrap(err, "failed to save track")
	}

	res := Result{Path: target, Bytes: n}
	zlog.Info().Msgf("download: saved %s (%s)", res.Path, res.Size())
	return res, nil
}

// Open opens an audio location: an http(s) URL, a file:// URL or a path.
// The returned size is -1 when unknown.
func Open(ctx context.Context, client *http.Client, location string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to create request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to send request")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, 0, errors.Newf("unexpected status %s fetching %s", resp.Status, location)
		}
		return resp.Body, resp.ContentLength, nil
	}

	path := location
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to open file")
	}
	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return f, size, nil
}
