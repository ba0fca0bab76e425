package leekduck

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

const (
	EntityEvents        = "events"
	EntityEggs          = "eggs"
	EntityRaidBosses    = "raid_bosses"
	EntityResearch      = "research"
	EntityRocketLineups = "rocket_lineups"
)

// Entities lists every entity in the order they are reported.
var Entities = []string{
	EntityEvents,
	EntityEggs,
	EntityRaidBosses,
	EntityResearch,
	EntityRocketLineups,
}

// Collection is the extracted result of a single entity.
type Collection interface {
	// Len is the number of records in the collection.
	Len() int
}

// Extractor is a pure function from a parsed page to its records.
type Extractor func(doc *goquery.Document) Collection

// Extractors holds the single page entities. Events are not in here since they need a second
// pass over every detail page, see Enricher.
var Extractors = map[string]Extractor{
	EntityEggs: func(doc *goquery.Document) Collection {
		return ParseEggs(doc)
	},
	EntityRaidBosses: func(doc *goquery.Document) Collection {
		return ParseRaidBosses(doc)
	},
	EntityResearch: func(doc *goquery.Document) Collection {
		return ParseResearch(doc)
	},
	EntityRocketLineups: func(doc *goquery.Document) Collection {
		return ParseRocketLineups(doc)
	},
}

func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(body))
}
