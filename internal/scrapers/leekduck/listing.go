package leekduck

import (
	"strings"

	"leakduck-backend/internal/eventtime"
	"leakduck-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBaseURL = "https://leekduck.com"

// ParseListing extracts the event cards of the events page as drafts. Cards without a link or a
// title are skipped, a card linking to an already seen detail page is dropped.
func ParseListing(doc *goquery.Document, baseURL string) []Event {
	baseURL = strings.TrimSuffix(baseURL, "/")

	var drafts []Event
	seen := map[string]bool{}
	doc.Find("a.event-item-link").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}
		title := link.Find("div.event-text h2").First()
		if title.Length() == 0 {
			return
		}

		articleURL := href
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			articleURL = baseURL + href
		}
		if seen[articleURL] {
			return
		}
		seen[articleURL] = true

		category := text(link.Find(".event-item-wrapper > p").First())
		if category == "" {
			category = DefaultCategory
		}

		draft := Event{
			ArticleURL:  articleURL,
			Title:       text(title),
			Category:    category,
			ListingOnly: true,
		}
		if src, ok := link.Find(".event-img-wrapper img").First().Attr("src"); ok {
			draft.BannerURL = htmlutil.CleanBannerURL(strings.TrimSpace(src))
		}

		draft.StartTime = eventtime.FromAttribute(dateAttr(link, "data-event-start-date"))
		draft.EndTime = eventtime.FromAttribute(dateAttr(link, "data-event-end-date"))
		draft.IsLocalTime = isLocal(draft.StartTime, draft.EndTime)

		drafts = append(drafts, draft)
	})
	return drafts
}

func dateAttr(link *goquery.Selection, name string) string {
	if value, ok := link.Attr(name); ok {
		return value
	}
	return link.Find("[" + name + "]").First().AttrOr(name, "")
}

func isLocal(values ...*eventtime.Value) bool {
	for _, v := range values {
		if v != nil {
			return v.IsLocal()
		}
	}
	return false
}
