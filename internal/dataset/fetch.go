package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/retry"

	appLog "tzdiff/internal/log"
)

// FetchResult is the outcome of fetching a remote dataset.
type FetchResult struct {
	Body      []byte
	FromCache bool // the body came from disk, after a 304 or a failed fetch
}

// cacheEntry is the HTTP validator metadata stored beside a cached body.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// errNotModified ends the retry loop on a 304.
var errNotModified = errors.New("not modified")

// Fetcher downloads datasets with conditional requests, keeping the last
// good body on disk. Transient failures (network errors, 5xx) are retried
// with jittered backoff; when every attempt fails a cached body is served
// instead.
type Fetcher struct {
	client   *http.Client
	cacheDir string

	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// NewFetcher returns a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/dataset-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cacheDir: cacheDir,
		Attempts: 5,
		Delay:    time.Second,
		MaxDelay: time.Minute,
	}
}

// Fetch returns the body at rawURL, honoring ETag and Last-Modified.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	if rawURL == "" {
		return FetchResult{}, errors.New("dataset url is empty")
	}

	cachePath := f.cachePathForURL(rawURL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}
	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := loadCacheBody(cachePath)

	appLog.Info("dataset fetch start", "url", redactURL(rawURL))

	var (
		body    []byte
		newMeta cacheEntry
	)
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if len(cachedBody) > 0 {
				if meta.ETag != "" {
					req.Header.Set("If-None-Match", meta.ETag)
				}
				if meta.LastModified != "" {
					req.Header.Set("If-Modified-Since", meta.LastModified)
				}
			}

			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
				b, err := io.ReadAll(resp.Body)
				if err != nil {
					return err
				}
				body = b
				newMeta = cacheEntry{
					URL:          rawURL,
					ETag:         resp.Header.Get("ETag"),
					LastModified: resp.Header.Get("Last-Modified"),
				}
				return nil
			case resp.StatusCode == http.StatusNotModified:
				return retry.Unrecoverable(errNotModified)
			case resp.StatusCode >= 500:
				return fmt.Errorf("server error: %s", resp.Status)
			default:
				return retry.Unrecoverable(errors.New(resp.Status))
			}
		},
		retry.Context(ctx),
		retry.Attempts(f.Attempts),
		retry.Delay(f.Delay),
		retry.MaxDelay(f.MaxDelay),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			appLog.Warn("dataset fetch retrying", "url", redactURL(rawURL), "attempt", n+1, "error", err)
		}),
	)

	switch {
	case err == nil:
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("dataset cache save failed", err, "url", redactURL(rawURL))
		}
		appLog.Info("dataset fetch success", "url", redactURL(rawURL), "bytes", len(body))
		return FetchResult{Body: body}, nil

	case errors.Is(err, errNotModified):
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("dataset not modified; using cache", "url", redactURL(rawURL))
		return FetchResult{Body: cachedBody, FromCache: true}, nil

	case len(cachedBody) > 0 && ctx.Err() == nil:
		appLog.Error("dataset fetch failed, using cached body", err, "url", redactURL(rawURL))
		return FetchResult{Body: cachedBody, FromCache: true}, nil

	default:
		return FetchResult{}, err
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host, dropping paths and query strings
// that may carry tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "dataset://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
