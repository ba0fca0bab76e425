package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"leakduck-backend/internal/chrono"

	"github.com/PuerkitoBio/purell"
)

const cacheNormalization = purell.FlagsSafe | purell.FlagRemoveFragment | purell.FlagSortQuery

// PageCache keeps one file per fetched URL. Entries older than the expiry window are treated as
// missing.
type PageCache struct {
	dir    string
	expiry time.Duration
	time   chrono.TimeAPI
}

func NewPageCache(dir string, expiry time.Duration, timeAPI chrono.TimeAPI) PageCache {
	return PageCache{dir: dir, expiry: expiry, time: timeAPI}
}

// Key is the cache key of a URL, equivalent URLs share the same key.
func Key(rawURL string) string {
	normalized, err := purell.NormalizeURLString(rawURL, cacheNormalization)
	if err != nil {
		normalized = rawURL
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c PageCache) path(rawURL string) string {
	return filepath.Join(c.dir, Key(rawURL)+".html")
}

// Get returns the cached body of a URL if a fresh entry exists.
func (c PageCache) Get(rawURL string) ([]byte, bool) {
	if c.dir == "" {
		return nil, false
	}
	path := c.path(rawURL)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.expiry > 0 && c.time.Now().Sub(info.ModTime()) > c.expiry {
		return nil, false
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c PageCache) Put(rawURL string, body []byte) error {
	if c.dir == "" {
		return nil
	}
	err := os.MkdirAll(c.dir, 0755)
	if err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return os.WriteFile(c.path(rawURL), body, 0644)
}

// Invalidate removes the entry of a URL, a missing entry is not an error.
func (c PageCache) Invalidate(rawURL string) error {
	if c.dir == "" {
		return nil
	}
	err := os.Remove(c.path(rawURL))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes the whole cache directory.
func (c PageCache) Clear() error {
	if c.dir == "" {
		return nil
	}
	return os.RemoveAll(c.dir)
}
