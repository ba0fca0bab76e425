// Package store reads and writes named JSON resources. Published collections are read from the
// raw file host of a repository and new ones are written to a local directory.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"leakduck-backend/internal/fetch"
	"leakduck-backend/internal/retry"
	"leakduck-backend/internal/telemetry"

	json "github.com/goccy/go-json"
)

const (
	report_layered_read = "layered.read"
)

var (
	// ErrNotExist is returned when a resource does not exist (yet) or is unreadable.
	ErrNotExist = errors.New("store: resource does not exist")
	ErrReadOnly = errors.New("store: read only")
)

// Store is a flat namespace of resources addressed by slash separated names.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// ArchiveName is the resource holding the archive bucket of a year.
func ArchiveName(year int) string {
	return path.Join("archive", fmt.Sprintf("%d.json", year))
}

// CollectionName is the resource holding the collection with the given output name.
func CollectionName(output string) string {
	return output + ".json"
}

const RawGithubURL = "https://raw.githubusercontent.com"

// Remote reads resources from the raw file host of a repository, it cannot be written to.
type Remote struct {
	fetcher fetch.Fetcher
	baseURL string
	tries   int
	delay   time.Duration
}

// NewRemote reads from https://raw.githubusercontent.com/{owner}/{repo}/{ref}/.
func NewRemote(fetcher fetch.Fetcher, owner, repo, ref string) Remote {
	return NewRemoteURL(fetcher, fmt.Sprintf("%s/%s/%s/%s", RawGithubURL, owner, repo, ref))
}

func NewRemoteURL(fetcher fetch.Fetcher, baseURL string) Remote {
	return Remote{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/"), tries: 1}
}

// WithRetry retries failed reads, a missing resource is never retried.
func (r Remote) WithRetry(tries int, delay time.Duration) Remote {
	r.tries = tries
	r.delay = delay
	return r
}

func (r Remote) Read(ctx context.Context, name string) ([]byte, error) {
	body, err := retry.Attempt(ctx, r.tries, r.delay, func(int) ([]byte, error) {
		body, err := r.fetcher.Fetch(ctx, r.baseURL+"/"+name)
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, retry.Permanent(err)
		}
		return body, err
	})
	if errors.Is(err, fetch.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (r Remote) Write(context.Context, string, []byte) error {
	return ErrReadOnly
}

// Local keeps resources as files under a directory.
type Local struct {
	dir string
}

func NewLocal(dir string) Local {
	return Local{dir: dir}
}

func (l Local) path(name string) string {
	return filepath.Join(l.dir, filepath.FromSlash(name))
}

func (l Local) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(l.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return data, err
}

// Write replaces the resource through a temporary file so readers never see half a file.
func (l Local) Write(_ context.Context, name string, data []byte) error {
	target := l.path(name)
	err := os.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Layered reads from the remote store first and falls back to the local one, writes only go to
// the local store.
type Layered struct {
	remote Store
	local  Store
	tel    telemetry.API
}

func NewLayered(remote, local Store, tel telemetry.API) Layered {
	return Layered{
		remote: remote,
		local:  local,
		tel:    telemetry.NewScopedAPI("store", tel),
	}
}

func (l Layered) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := l.remote.Read(ctx, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotExist) {
		l.tel.ReportWarning(report_layered_read, name, err)
	}
	return l.local.Read(ctx, name)
}

func (l Layered) Write(ctx context.Context, name string, data []byte) error {
	return l.local.Write(ctx, name, data)
}

// Encode renders v as JSON indented by 4 spaces, with non-ASCII characters and <>& written as is.
func Encode(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// ReadJSON reads and decodes a resource. A resource that cannot be decoded is treated like a
// missing one, the returned error wraps ErrNotExist in both cases.
func ReadJSON[T any](ctx context.Context, s Store, name string) (T, error) {
	var out T
	data, err := s.Read(ctx, name)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decode %s: %v", ErrNotExist, name, err)
	}
	return out, nil
}

func WriteJSON(ctx context.Context, s Store, name string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.Write(ctx, name, data)
}
