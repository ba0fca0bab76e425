package collector

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"leakduck-backend/internal/lifecycle"
	"leakduck-backend/internal/scrapers/leekduck"
	"leakduck-backend/internal/store"
)

const (
	report_events_existing = "events.existing"
	report_events_archive  = "events.archive"
	report_events_skipped  = "events.skipped"
	report_events_time     = "events.time"
)

// runEvents scrapes the event listing, enriches every card with its detail page and merges the
// result into the published collection. Expired events move to their year bucket.
func (c Collector) runEvents(ctx context.Context) Result {
	settings := c.cfg.Scrapers.Events
	doc, err := c.listing(ctx, settings.Scraper)
	if err != nil {
		return Result{Err: err}
	}
	drafts := leekduck.ParseListing(doc, settings.BaseURL)

	now := c.deps.Time.Now()
	existing := c.readActive(ctx)
	buckets := map[int]leekduck.EventCollection{}
	for _, year := range []int{now.Year() - 1, now.Year()} {
		buckets[year] = c.readBucket(ctx, year)
	}

	var skip func(string) bool
	if settings.CheckExisting {
		known := lifecycle.Known(existing, slices.Collect(maps.Values(buckets))...)
		skipped := 0
		for _, d := range drafts {
			if known[d.ArticleURL] {
				skipped++
			}
		}
		c.tel.ReportDebug(report_events_skipped, "skipped", skipped, "total", len(drafts))
		skip = func(url string) bool { return known[url] }
	}

	enricher := leekduck.Enricher{
		Fetcher: c.deps.Detail,
		Cache:   c.deps.Cache,
		Retries: c.cfg.ScraperSettings.Retries,
		Delay:   c.cfg.ScraperSettings.RetryDelay(),
		Workers: settings.DetailWorkers,
		Tel:     c.tel,
	}
	fresh := enricher.Enrich(ctx, drafts, skip)
	if skip != nil {
		fresh = dropArchived(fresh, existing, skip)
	}

	active, archive, archived := lifecycle.Merge(existing, fresh, now, func(year int) leekduck.EventCollection {
		if bucket, ok := buckets[year]; ok {
			return bucket
		}
		return c.readBucket(ctx, year)
	})

	err = c.writeArchive(ctx, archive)
	if err != nil {
		return Result{Archived: archived, Err: err}
	}
	err = store.WriteJSON(ctx, c.deps.Store, store.CollectionName(settings.FileName), active)
	if err != nil {
		return Result{Archived: archived, Err: fmt.Errorf("write: %w", err)}
	}
	return Result{Records: active.Len(), Archived: archived, Written: true}
}

// Archive only moves expired events out of the published collection, nothing is scraped.
func (c Collector) Archive(ctx context.Context) Result {
	ctx, span := tracer.Start(ctx, "Archive")
	defer span.End()

	settings := c.cfg.Scrapers.Events
	now := c.deps.Time.Now()
	existing := c.readActive(ctx)

	active, archive, archived := lifecycle.Merge(existing, nil, now, func(year int) leekduck.EventCollection {
		return c.readBucket(ctx, year)
	})
	result := Result{
		Entity:   leekduck.EntityEvents,
		Records:  active.Len(),
		Archived: archived,
	}
	if archived == 0 {
		return result
	}

	result.Err = c.writeArchive(ctx, archive)
	if result.Err != nil {
		return result
	}
	result.Err = store.WriteJSON(ctx, c.deps.Store, store.CollectionName(settings.FileName), active)
	result.Written = result.Err == nil
	return result
}

func (c Collector) readActive(ctx context.Context) leekduck.EventCollection {
	name := store.CollectionName(c.cfg.Scrapers.Events.FileName)
	existing, err := store.ReadJSON[leekduck.EventCollection](ctx, c.deps.Store, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotExist) {
			c.tel.ReportWarning(report_events_existing, name, err)
		}
		return leekduck.EventCollection{}
	}
	c.reportInvalidTimes(name, existing)
	return existing
}

func (c Collector) readBucket(ctx context.Context, year int) leekduck.EventCollection {
	name := store.ArchiveName(year)
	bucket, err := store.ReadJSON[leekduck.EventCollection](ctx, c.deps.Store, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotExist) {
			c.tel.ReportWarning(report_events_archive, name, err)
		}
		return leekduck.EventCollection{}
	}
	c.reportInvalidTimes(name, bucket)
	return bucket
}

// reportInvalidTimes warns about stored times that were read back as null.
func (c Collector) reportInvalidTimes(name string, collection leekduck.EventCollection) {
	for _, e := range lifecycle.Flatten(collection) {
		if len(e.InvalidTimes) > 0 {
			c.tel.ReportWarning(report_events_time, name, e.ArticleURL, e.InvalidTimes)
		}
	}
}

// writeArchive persists every changed bucket in year order. The active collection must not be
// written when this fails, or the expired events would be lost.
func (c Collector) writeArchive(ctx context.Context, archive lifecycle.Archive) error {
	for _, year := range slices.Sorted(maps.Keys(archive)) {
		err := store.WriteJSON(ctx, c.deps.Store, store.ArchiveName(year), archive[year])
		if err != nil {
			return fmt.Errorf("write archive %d: %w", year, err)
		}
	}
	return nil
}

// dropArchived removes skipped events that are not in the active collection, they are already
// archived and their listing data must not replace the archived record.
func dropArchived(fresh []leekduck.Event, active leekduck.EventCollection, skipped func(string) bool) []leekduck.Event {
	inActive := map[string]bool{}
	for _, e := range lifecycle.Flatten(active) {
		inActive[e.ArticleURL] = true
	}
	return slices.DeleteFunc(fresh, func(e leekduck.Event) bool {
		return skipped(e.ArticleURL) && !inActive[e.ArticleURL]
	})
}
