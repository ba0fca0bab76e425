// Package fetch turns URLs into raw markup, either with a plain HTTP client or with a headless
// browser session for pages that only render their content with scripts.
package fetch

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("leakduck/fetch")

var (
	// ErrNotFound is returned when the server answered with 404.
	ErrNotFound = errors.New("fetch: not found")
	// ErrSessionFailed is returned by every fetch after the browser session could not be
	// restarted.
	ErrSessionFailed = errors.New("fetch: browser session failed")
)

// Fetcher fetches the raw body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type exclusive interface {
	Exclusive() bool
}

// IsExclusive reports whether the fetcher owns a single session that serializes fetches, callers
// should not fan out requests to such a fetcher.
func IsExclusive(f Fetcher) bool {
	e, ok := f.(exclusive)
	return ok && e.Exclusive()
}
