package leekduck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leakduck-backend/internal/fetch"
	"leakduck-backend/internal/retry"
	"leakduck-backend/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("leakduck/scrapers/leekduck")

const (
	report_enrich_page    = "enrich.page"
	report_enrich_attempt = "enrich.attempt"
	report_enrich_cache   = "enrich.cache"
	report_enrich_skip    = "enrich.skip"
)

// ErrInvalidTime is returned by a detail page whose start or end time could not be parsed.
var ErrInvalidTime = errors.New("start or end time missing or unparseable")

// PageCache is the subset of fetch.PageCache used during enrichment.
type PageCache interface {
	Get(url string) ([]byte, bool)
	Put(url string, body []byte) error
	Invalidate(url string) error
}

// Enricher fetches the detail page of every event draft and merges it into the draft.
type Enricher struct {
	Fetcher fetch.Fetcher
	// Cache may be nil.
	Cache   PageCache
	Retries int
	Delay   time.Duration
	// Workers bounds concurrent detail fetches, it is ignored for exclusive fetchers.
	Workers int
	Tel     telemetry.API
}

// Enrich returns the drafts in the same order, enriched with their detail pages. Drafts for which
// skip returns true are returned untouched. A draft whose detail page could not be scraped is
// returned with Error set, a failure never aborts the other drafts.
func (e Enricher) Enrich(ctx context.Context, drafts []Event, skip func(articleURL string) bool) []Event {
	ctx, span := tracer.Start(ctx, "Enrich")
	defer span.End()

	workers := e.Workers
	if workers < 1 || fetch.IsExclusive(e.Fetcher) {
		workers = 1
	}

	out := make([]Event, len(drafts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, draft := range drafts {
		if skip != nil && skip(draft.ArticleURL) {
			e.Tel.ReportDebug(report_enrich_skip, draft.ArticleURL)
			out[i] = draft
			continue
		}
		group.Go(func() error {
			out[i] = e.enrichOne(groupCtx, draft)
			return nil
		})
	}
	group.Wait()

	span.SetAttributes(attribute.Int("drafts", len(drafts)))
	return out
}

func (e Enricher) enrichOne(ctx context.Context, draft Event) Event {
	url := draft.ArticleURL
	var last *EventDetail

	detail, err := retry.AttemptNotify(
		ctx, e.Retries, e.Delay,
		func(attempt int) (EventDetail, error) {
			body, cached, err := e.page(ctx, url, attempt == 1)
			if err != nil {
				if errors.Is(err, fetch.ErrNotFound) || errors.Is(err, fetch.ErrSessionFailed) {
					return EventDetail{}, retry.Permanent(err)
				}
				return EventDetail{}, err
			}

			doc, err := ParseDocument(body)
			if err != nil {
				return EventDetail{}, fmt.Errorf("parse %s: %w", url, err)
			}
			detail := ParseEventPage(doc)
			last = &detail
			if !detail.HasValidTimes() {
				if cached {
					e.invalidate(url)
				}
				return EventDetail{}, ErrInvalidTime
			}

			if !cached && e.Cache != nil {
				if err := e.Cache.Put(url, body); err != nil {
					e.Tel.ReportWarning(report_enrich_cache, url, err)
				}
			}
			return detail, nil
		},
		func(attempt int, err error) {
			e.Tel.ReportDebug(report_enrich_attempt, url, attempt, err)
		},
	)
	if err == nil {
		return detail.Apply(draft)
	}

	e.Tel.ReportWarning(report_enrich_page, url, err)
	if errors.Is(err, ErrInvalidTime) && last != nil {
		// keep what the page did have, the listing times are only used if the page had none
		enriched := last.Apply(draft)
		if enriched.StartTime == nil {
			enriched.StartTime = draft.StartTime
		}
		if enriched.EndTime == nil {
			enriched.EndTime = draft.EndTime
		}
		enriched.Error = err.Error()
		return enriched
	}
	draft.Error = err.Error()
	draft.ListingOnly = true
	return draft
}

// page returns the body of a detail page and whether it came from the cache.
func (e Enricher) page(ctx context.Context, url string, allowCache bool) ([]byte, bool, error) {
	if allowCache && e.Cache != nil {
		if body, ok := e.Cache.Get(url); ok {
			return body, true, nil
		}
	}
	body, err := e.Fetcher.Fetch(ctx, url)
	return body, false, err
}

func (e Enricher) invalidate(url string) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Invalidate(url); err != nil {
		e.Tel.ReportWarning(report_enrich_cache, url, err)
	}
}
