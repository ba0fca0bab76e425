// Package collector runs every enabled entity through fetch, extract and persist, and for events
// through the lifecycle merge in between.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leakduck-backend/internal/chrono"
	"leakduck-backend/internal/config"
	"leakduck-backend/internal/fetch"
	"leakduck-backend/internal/retry"
	"leakduck-backend/internal/scrapers/leekduck"
	"leakduck-backend/internal/store"
	"leakduck-backend/internal/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("leakduck/collector")

const (
	report_entity_run     = "entity.run"
	report_entity_empty   = "entity.empty"
	report_entity_records = "entity.records"
)

// Result is the outcome of a single entity.
type Result struct {
	Entity string
	// Records is the number of records written.
	Records int
	// Archived is the number of events moved to the archive.
	Archived int
	// Written is false when nothing was persisted.
	Written  bool
	Err      error
	Duration time.Duration
}

// Deps are the collaborators of a Collector.
type Deps struct {
	// Listing fetches the listing page of every entity.
	Listing fetch.Fetcher
	// Detail fetches event detail pages.
	Detail fetch.Fetcher
	Store  store.Store
	// Cache may be nil.
	Cache leekduck.PageCache
	Raw   fetch.RawOutput
	Time  chrono.TimeAPI
}

type Collector struct {
	cfg  config.Config
	deps Deps
	tel  telemetry.API
}

func New(cfg config.Config, deps Deps, tel telemetry.API) Collector {
	if deps.Time == nil {
		deps.Time = chrono.NewStandardTime()
	}
	if deps.Detail == nil {
		deps.Detail = deps.Listing
	}
	return Collector{
		cfg:  cfg,
		deps: deps,
		tel:  telemetry.NewScopedAPI("collector", tel),
	}
}

// Run scrapes the given entities, at most scraper_settings.workers at a time. The results are
// in the order of entities. A failing entity never stops the others.
func (c Collector) Run(ctx context.Context, entities []string) []Result {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	results := make([]Result, len(entities))
	group := errgroup.Group{}
	group.SetLimit(max(c.cfg.ScraperSettings.Workers, 1))
	for i, entity := range entities {
		group.Go(func() error {
			results[i] = c.runEntity(ctx, entity)
			return nil
		})
	}
	group.Wait()

	return results
}

// Err joins the errors of every failed result.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Entity, r.Err))
		}
	}
	return errors.Join(errs...)
}

func (c Collector) runEntity(ctx context.Context, entity string) Result {
	ctx, span := tracer.Start(ctx, "runEntity")
	defer span.End()
	span.SetAttributes(attribute.String("entity", entity))

	start := time.Now()
	var result Result
	switch entity {
	case leekduck.EntityEvents:
		result = c.runEvents(ctx)
	default:
		result = c.runPage(ctx, entity)
	}
	result.Entity = entity
	result.Duration = time.Since(start)

	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "entity failed")
		c.tel.ReportBroken(report_entity_run, entity, result.Err)
		return result
	}
	c.tel.ReportCount(fmt.Sprintf("%s.%s", report_entity_records, entity), int64(result.Records))
	return result
}

// listing fetches and parses the listing page of an entity, the raw page is kept for
// inspection.
func (c Collector) listing(ctx context.Context, scraper config.Scraper) (*goquery.Document, error) {
	settings := c.cfg.ScraperSettings
	body, err := retry.Attempt(ctx, settings.Retries, settings.RetryDelay(), func(int) ([]byte, error) {
		body, err := c.deps.Listing.Fetch(ctx, scraper.URL)
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, retry.Permanent(err)
		}
		return body, err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", scraper.URL, err)
	}
	c.deps.Raw.Write(scraper.FileName, body)

	doc, err := leekduck.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", scraper.URL, err)
	}
	return doc, nil
}

func (c Collector) runPage(ctx context.Context, entity string) Result {
	scraper, ok := c.cfg.Scraper(entity)
	extract, hasExtractor := leekduck.Extractors[entity]
	if !ok || !hasExtractor {
		return Result{Err: fmt.Errorf("unknown entity %q", entity)}
	}

	doc, err := c.listing(ctx, scraper)
	if err != nil {
		return Result{Err: err}
	}

	collection := extract(doc)
	if collection.Len() == 0 {
		c.tel.ReportWarning(report_entity_empty, entity, scraper.URL)
		return Result{}
	}

	err = store.WriteJSON(ctx, c.deps.Store, store.CollectionName(scraper.FileName), collection)
	if err != nil {
		return Result{Err: fmt.Errorf("write: %w", err)}
	}
	return Result{Records: collection.Len(), Written: true}
}
