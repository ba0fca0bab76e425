package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"leakduck-backend/internal/telemetry"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_browser_restart = "browser.restart"
)

// DefaultWaitSelector is present on event pages once their date box has been rendered.
const DefaultWaitSelector = "#event-time-date-box span"

// SessionState is the health of the browser session behind a BrowserFetcher.
type SessionState int

const (
	Healthy SessionState = iota
	Restarting
	Failed
)

func (s SessionState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Restarting:
		return "restarting"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// tab is a single rendering session.
type tab interface {
	Render(ctx context.Context, url, waitSelector string) (string, error)
	// Alive is false once the session can no longer render anything.
	Alive() bool
	Close()
}

type launcher func(ctx context.Context) (tab, error)

type BrowserOptions struct {
	// ExecPath overrides the chrome executable, empty means it is looked up on PATH.
	ExecPath     string
	WaitSelector string
	Timeout      time.Duration
}

// BrowserFetcher renders pages in a headless browser. It owns exactly one session, fetches are
// serialized and a session that dies is restarted once. If the restart fails every later fetch
// returns ErrSessionFailed.
type BrowserFetcher struct {
	mutex   sync.Mutex
	parent  context.Context
	launch  launcher
	session tab
	state   SessionState
	// cause is why the session failed to launch, if it never started.
	cause   error

	waitSelector string
	timeout      time.Duration
	tel          telemetry.API
}

// NewBrowserFetcher starts a chrome session that lives until ctx is done or Close is called.
func NewBrowserFetcher(ctx context.Context, opts BrowserOptions, tel telemetry.API) (*BrowserFetcher, error) {
	return newBrowserFetcher(ctx, opts, launchChromedp(opts.ExecPath), tel)
}

func newBrowserFetcher(ctx context.Context, opts BrowserOptions, launch launcher, tel telemetry.API) (*BrowserFetcher, error) {
	session, err := launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	waitSelector := opts.WaitSelector
	if waitSelector == "" {
		waitSelector = DefaultWaitSelector
	}
	return &BrowserFetcher{
		parent:       ctx,
		launch:       launch,
		session:      session,
		state:        Healthy,
		waitSelector: waitSelector,
		timeout:      opts.Timeout,
		tel:          telemetry.NewScopedAPI("fetch", tel),
	}, nil
}

// FailedBrowserFetcher is a BrowserFetcher whose session never started, every fetch returns
// ErrSessionFailed.
func FailedBrowserFetcher(cause error) *BrowserFetcher {
	return &BrowserFetcher{
		state: Failed,
		cause: cause,
	}
}

func (b *BrowserFetcher) Exclusive() bool {
	return true
}

func (b *BrowserFetcher) State() SessionState {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "BrowserFetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == Failed {
		if b.cause != nil {
			return nil, fmt.Errorf("%w: %w", ErrSessionFailed, b.cause)
		}
		return nil, ErrSessionFailed
	}

	html, err := b.render(ctx, url)
	if err == nil {
		return []byte(html), nil
	}
	if b.session.Alive() && !errors.Is(err, chromedp.ErrInvalidContext) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, err
	}

	if restartErr := b.restart(); restartErr != nil {
		span.RecordError(restartErr)
		span.SetStatus(codes.Error, "session failed")
		return nil, fmt.Errorf("%w: %w", ErrSessionFailed, restartErr)
	}

	html, err = b.render(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed after restart")
		return nil, err
	}
	return []byte(html), nil
}

func (b *BrowserFetcher) render(ctx context.Context, url string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.session.Render(ctx, url, b.waitSelector)
}

// restart must be called with the mutex held.
func (b *BrowserFetcher) restart() error {
	b.state = Restarting
	b.tel.ReportWarning(report_browser_restart, b.state.String())
	b.session.Close()

	session, err := b.launch(b.parent)
	if err != nil {
		b.state = Failed
		b.tel.ReportBroken(report_browser_restart, err)
		return err
	}
	b.session = session
	b.state = Healthy
	return nil
}

func (b *BrowserFetcher) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.session != nil {
		b.session.Close()
	}
	b.state = Failed
}

type chromedpTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func launchChromedp(execPath string) launcher {
	return func(ctx context.Context) (tab, error) {
		opts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.NoSandbox,
		)
		if execPath != "" {
			opts = append(opts, chromedp.ExecPath(execPath))
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		cancel := func() {
			browserCancel()
			allocCancel()
		}
		// starts the browser
		if err := chromedp.Run(browserCtx); err != nil {
			cancel()
			return nil, err
		}
		return chromedpTab{ctx: browserCtx, cancel: cancel}, nil
	}
}

func (t chromedpTab) Render(ctx context.Context, url, waitSelector string) (string, error) {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(
		runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("render %s: %w", url, ctxErr)
		}
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

func (t chromedpTab) Alive() bool {
	return t.ctx.Err() == nil
}

func (t chromedpTab) Close() {
	t.cancel()
}
