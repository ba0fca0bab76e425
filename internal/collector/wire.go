package collector

import (
	"context"
	"os"
	"slices"

	"leakduck-backend/internal/chrono"
	"leakduck-backend/internal/config"
	"leakduck-backend/internal/fetch"
	"leakduck-backend/internal/scrapers/leekduck"
	"leakduck-backend/internal/store"
	"leakduck-backend/internal/telemetry"
)

const (
	report_wire_browser = "wire.browser"
)

// browserStarter starts the headless browser used for detail pages.
type browserStarter func(ctx context.Context, opts fetch.BrowserOptions, tel telemetry.API) (*fetch.BrowserFetcher, error)

// Build wires a Collector from its config. The returned close function releases the browser
// session, if one was started.
func Build(ctx context.Context, cfg config.Config, entities []string, tel telemetry.API) (Collector, func()) {
	settings := cfg.ScraperSettings
	httpOptions := fetch.HTTPOptions{
		Timeout:           settings.Timeout(),
		UserAgent:         settings.UserAgent,
		CloudflareBypass:  settings.CloudflareBypass,
		RequestsPerSecond: settings.RequestsPerSecond,
	}
	listing := fetch.NewHTTPFetcher(httpOptions, tel)
	detail, closer := detailFetcher(ctx, cfg, entities, listing, tel, fetch.NewBrowserFetcher)

	// published collections are read through their own fetcher and breaker
	published := fetch.NewHTTPFetcher(fetch.HTTPOptions{
		Timeout:   settings.Timeout(),
		UserAgent: settings.UserAgent,
	}, tel)
	remote := store.NewRemote(published, cfg.Source.Owner, cfg.Source.Repo, cfg.Source.Ref).
		WithRetry(settings.Retries, settings.RetryDelay())
	local := store.NewLocal(cfg.Output.ResolveDir(os.Getenv))

	timeAPI := chrono.NewStandardTime()
	return New(cfg, Deps{
		Listing: listing,
		Detail:  detail,
		Store:   store.NewLayered(remote, local, tel),
		Cache:   fetch.NewPageCache(cfg.Cache.Dir, settings.CacheExpiration(), timeAPI),
		Raw:     fetch.NewRawOutput(cfg.Output.ResolveHTMLDir(os.Getenv), tel),
		Time:    timeAPI,
	}, tel), closer
}

// detailFetcher picks the fetcher for event detail pages. A browser that cannot be started is
// reported and replaced by a failed session, so event records degrade to their listing data and
// the other entities still run.
func detailFetcher(
	ctx context.Context,
	cfg config.Config,
	entities []string,
	listing fetch.Fetcher,
	tel telemetry.API,
	start browserStarter,
) (fetch.Fetcher, func()) {
	events := cfg.Scrapers.Events
	if events.DetailFetcher != config.DetailFetcherBrowser || !slices.Contains(entities, leekduck.EntityEvents) {
		return listing, func() {}
	}

	browser, err := start(ctx, fetch.BrowserOptions{
		ExecPath:     events.ChromePath,
		WaitSelector: events.WaitSelector,
		Timeout:      cfg.ScraperSettings.Timeout(),
	}, tel)
	if err != nil {
		telemetry.NewScopedAPI("collector", tel).ReportBroken(report_wire_browser, events.ChromePath, err)
		return fetch.FailedBrowserFetcher(err), func() {}
	}
	return browser, browser.Close
}
