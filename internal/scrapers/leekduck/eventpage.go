package leekduck

import (
	"strings"

	"leakduck-backend/internal/eventtime"

	"github.com/PuerkitoBio/goquery"
)

const bonusesSection = "bonuses"

// EventDetail is what the detail page of an event adds to its listing card.
type EventDetail struct {
	IsLocalTime bool
	StartTime   *eventtime.Value
	EndTime     *eventtime.Value
	Description string
	Details     map[string][]string
}

// HasValidTimes is true when both the start and the end of the event could be parsed.
func (d EventDetail) HasValidTimes() bool {
	return d.StartTime != nil && d.EndTime != nil
}

// Apply copies the detail onto an event.
func (d EventDetail) Apply(e Event) Event {
	e.IsLocalTime = d.IsLocalTime
	e.StartTime = d.StartTime
	e.EndTime = d.EndTime
	e.Description = d.Description
	e.Details = d.Details
	e.ListingOnly = false
	e.Error = ""
	return e
}

// ParseEventPage extracts the times, description and sections of an event detail page. The
// date elements carry a machine readable data-event-page-date attribute when the event happens
// at the same instant everywhere; otherwise only visible local date and time text is present.
func ParseEventPage(doc *goquery.Document) EventDetail {
	var detail EventDetail

	startDate := doc.Find("span#event-date-start").First()
	startTime := doc.Find("span#event-time-start").First()
	endDate := doc.Find("span#event-date-end").First()
	endTime := doc.Find("span#event-time-end").First()

	_, hasAttr := startDate.Attr("data-event-page-date")
	detail.IsLocalTime = !hasAttr
	detail.StartTime = pageTime(startDate, startTime, detail.IsLocalTime)
	detail.EndTime = pageTime(endDate, endTime, detail.IsLocalTime)

	content := doc.Find("div.page-content").First()
	if content.Length() == 0 {
		return detail
	}

	var paragraphs []string
	content.Find("div.event-description").First().ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		if t := text(p); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	detail.Description = strings.Join(paragraphs, "\n")

	details := map[string][]string{}
	content.Find("h2.event-section-header").Each(func(_ int, header *goquery.Selection) {
		id := strings.TrimSpace(header.AttrOr("id", ""))
		if id == "" {
			return
		}
		header.NextUntil("h2.event-section-header").Each(func(_ int, sibling *goquery.Selection) {
			switch {
			case sibling.Is("ul.pkmn-list-flex"):
				sibling.Find("li.pkmn-list-item div.pkmn-name").Each(func(_ int, name *goquery.Selection) {
					if n := text(name); n != "" {
						details[id] = append(details[id], n)
					}
				})
			case sibling.Is("div.bonus-list"):
				sibling.Find("div.bonus-text").Each(func(_ int, bonus *goquery.Selection) {
					if b := text(bonus); b != "" {
						details[bonusesSection] = append(details[bonusesSection], b)
					}
				})
			}
		})
	})
	for id, names := range details {
		details[id] = sortedUnique(names)
	}
	if len(details) > 0 {
		detail.Details = details
	}

	return detail
}

func pageTime(date, clock *goquery.Selection, local bool) *eventtime.Value {
	if date.Length() == 0 {
		return nil
	}
	if !local {
		iso, ok := date.Attr("data-event-page-date")
		if !ok {
			return nil
		}
		return eventtime.ParseAbsolute(iso)
	}
	if clock.Length() == 0 {
		return nil
	}
	return eventtime.ParseLocal(text(date), text(clock))
}
