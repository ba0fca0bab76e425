// Package lifecycle decides which events are still active and moves the rest into yearly
// archive buckets.
package lifecycle

import (
	"maps"
	"slices"
	"time"

	"leakduck-backend/internal/scrapers/leekduck"
)

// Archive maps a calendar year to its bucket.
type Archive map[int]leekduck.EventCollection

// BucketLoader returns the persisted bucket of a year, nil when there is none.
type BucketLoader func(year int) leekduck.EventCollection

// Expired is true when the event has an end time and now is strictly after it. Local end times
// are resolved in the latest zone on Earth, an end time that cannot be resolved never expires.
func Expired(e leekduck.Event, now time.Time) bool {
	if e.EndTime == nil {
		return false
	}
	return e.EndTime.HasPassed(now)
}

// Known returns the identities that do not need their detail page scraped again. Active records
// that failed enrichment are left out so they are retried.
func Known(active leekduck.EventCollection, buckets ...leekduck.EventCollection) map[string]bool {
	known := map[string]bool{}
	for _, events := range active {
		for _, e := range events {
			if e.Error == "" {
				known[e.ArticleURL] = true
			}
		}
	}
	for _, bucket := range buckets {
		for _, events := range bucket {
			for _, e := range events {
				known[e.ArticleURL] = true
			}
		}
	}
	return known
}

// Flatten returns the events of a collection, categories in sorted order.
func Flatten(c leekduck.EventCollection) []leekduck.Event {
	var out []leekduck.Event
	for _, category := range slices.Sorted(maps.Keys(c)) {
		out = append(out, c[category]...)
	}
	return out
}

// Combine merges freshly scraped events into the existing ones. A fresh event replaces the
// existing event of the same identity, unless it only carries listing data (its detail page was
// skipped or failed), in which case the existing event is kept with its listing fields updated.
// Existing events that are no longer listed are kept after the fresh ones.
func Combine(existing leekduck.EventCollection, fresh []leekduck.Event) []leekduck.Event {
	prior := map[string]leekduck.Event{}
	for _, e := range Flatten(existing) {
		prior[e.ArticleURL] = e
	}

	out := make([]leekduck.Event, 0, len(fresh)+len(prior))
	seen := map[string]int{}
	add := func(e leekduck.Event) {
		if i, ok := seen[e.ArticleURL]; ok {
			out[i] = e
			return
		}
		seen[e.ArticleURL] = len(out)
		out = append(out, e)
	}

	for _, e := range fresh {
		old, ok := prior[e.ArticleURL]
		if !ok || (e.Error == "" && !e.ListingOnly) {
			add(e)
			continue
		}
		if e.Title != "" {
			old.Title = e.Title
		}
		if e.Category != "" {
			old.Category = e.Category
		}
		if e.BannerURL != "" {
			old.BannerURL = e.BannerURL
		}
		add(old)
	}
	for _, e := range Flatten(existing) {
		if _, ok := seen[e.ArticleURL]; !ok {
			add(e)
		}
	}
	return out
}

// Partition splits events into the ones still active, grouped by category, and the expired ones
// grouped by the year of their end time.
func Partition(events []leekduck.Event, now time.Time) (leekduck.EventCollection, map[int][]leekduck.Event) {
	active := leekduck.EventCollection{}
	expired := map[int][]leekduck.Event{}
	for _, e := range events {
		if Expired(e, now) {
			year, err := e.EndTime.Year()
			if err == nil {
				expired[year] = append(expired[year], e)
				continue
			}
		}
		category := categoryOf(e)
		active[category] = append(active[category], e)
	}
	return active, expired
}

// MergeBucket adds events to an archive bucket under their own category. Identities are unique
// within the bucket, the last write wins and keeps the position of the first.
func MergeBucket(bucket leekduck.EventCollection, events []leekduck.Event) leekduck.EventCollection {
	all := append(Flatten(bucket), events...)

	var ordered []leekduck.Event
	index := map[string]int{}
	for _, e := range all {
		if i, ok := index[e.ArticleURL]; ok {
			ordered[i] = e
			continue
		}
		index[e.ArticleURL] = len(ordered)
		ordered = append(ordered, e)
	}

	out := leekduck.EventCollection{}
	for _, e := range ordered {
		category := categoryOf(e)
		out[category] = append(out[category], e)
	}
	return out
}

// Merge combines the existing active events with freshly scraped ones and archives whatever has
// expired. load is called at most once for every year that receives archived events. The
// returned archive only holds the buckets that changed, archived is the number of events moved
// out of the active collection.
func Merge(
	existing leekduck.EventCollection,
	fresh []leekduck.Event,
	now time.Time,
	load BucketLoader,
) (active leekduck.EventCollection, updated Archive, archived int) {
	active, expired := Partition(Combine(existing, fresh), now)

	updated = Archive{}
	for year, events := range expired {
		var bucket leekduck.EventCollection
		if load != nil {
			bucket = load(year)
		}
		updated[year] = MergeBucket(bucket, events)
		archived += len(events)
	}
	return active, updated, archived
}

func categoryOf(e leekduck.Event) string {
	if e.Category == "" {
		return leekduck.DefaultCategory
	}
	return e.Category
}
