// Package catalog loads the track list from a JSON resource.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
)

// maxCatalogSize bounds the catalog body read into memory.
const maxCatalogSize = 16 << 20

// LoadError reports a catalog that could not be fetched or parsed.
// Message is suitable for display.
type LoadError struct {
	Source  string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load catalog %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("load catalog %s: %s: %v", e.Source, e.Message, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Config represents catalog loader configuration.
type Config struct {
	Source  string        // http(s) URL, file:// URL or filesystem path
	Timeout time.Duration // Request timeout for remote catalogs
}

// entry is a single catalog element.
type entry struct {
	Name string     `mapstructure:"name" validate:"required"`
	URL  string     `mapstructure:"url" validate:"required"`
	Date *time.Time `mapstructure:"date"`
}

// Loader fetches and parses the catalog.
type Loader struct {
	source     string
	httpClient *http.Client
	validate   *validator.Validate
}

// New creates a new catalog loader.
func New(cfg Config) (*Loader, error) {
	if strings.TrimSpace(cfg.Source) == "" {
		return nil, errors.New("catalog source is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Loader{
		source:     cfg.Source,
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
	}, nil
}

// Source returns the configured catalog location.
func (l *Loader) Source() string {
	return l.source
}

// Load fetches the catalog and returns its tracks in catalog order.
// An empty catalog is a valid, empty playlist. Every failure is a *LoadError.
func (l *Loader) Load(ctx context.Context) (*playlist.Playlist, error) {
	body, base, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, l.loadError("catalog is not a valid JSON array", err)
	}
	// null decodes without error into a nil slice; [] does not
	if raw == nil {
		return nil, l.loadError("catalog is not a valid JSON array", nil)
	}

	tracks := make([]track.Track, 0, len(raw))
	for i, item := range raw {
		t, err := l.decodeEntry(item, base)
		if err != nil {
			return nil, l.loadError(fmt.Sprintf("invalid entry #%d", i+1), err)
		}
		tracks = append(tracks, t)
	}

	zlog.Info().Msgf("catalog: loaded %d tracks from %s", len(tracks), l.source)
	return playlist.New(l.source, tracks), nil
}

// fetch returns the catalog body and the base used to resolve relative track URLs.
func (l *Loader) fetch(ctx context.Context) ([]byte, *url.URL, error) {
	u, err := url.Parse(l.source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		body, err := l.fetchHTTP(ctx, u)
		return body, u, err
	}

	path := l.source
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, l.loadError("invalid catalog path", err)
	}
	body, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, l.loadError("catalog file could not be read", err)
	}
	return body, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

func (l *Loader) fetchHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, l.loadError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, l.loadError("catalog server is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, l.loadError(fmt.Sprintf("catalog request failed: %s", resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, l.loadError("failed to read catalog", err)
	}
	return body, nil
}

func (l *Loader) decodeEntry(item any, base *url.URL) (track.Track, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return track.Track{}, errors.Newf("expected an object, got %T", item)
	}

	var e entry
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: dateHookFunc(),
		Result:     &e,
	})
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(fields); err != nil {
		return track.Track{}, errors.Wrap(err, "failed to decode entry")
	}
	if err := l.validate.Struct(e); err != nil {
		return track.Track{}, errors.Wrap(err, "validation failed")
	}

	if e.Date != nil && e.Date.IsZero() {
		if v, ok := fields["date"].(string); !ok || strings.TrimSpace(v) != "" {
			zlog.Warn().Msgf("catalog: ignoring unparsable date for %q: %v", e.Name, fields["date"])
		}
		e.Date = nil
	}

	return track.Track{
		Name: e.Name,
		URL:  resolveURL(base, e.URL),
		Date: e.Date,
	}, nil
}

// resolveURL resolves a track location against the catalog location.
// Absolute URLs and absolute paths are kept as they are.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || (base.Scheme == "file" && filepath.IsAbs(ref)) {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}

	resolved := base.ResolveReference(r)
	if resolved.Scheme == "file" {
		return filepath.FromSlash(resolved.Path)
	}
	return resolved.String()
}

func (l *Loader) loadError(message string, err error) *LoadError {
	return &LoadError{Source: l.source, Message: message, Err: err}
}
