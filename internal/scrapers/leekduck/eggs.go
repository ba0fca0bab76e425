package leekduck

import "github.com/PuerkitoBio/goquery"

// ParseEggs extracts the egg pool, every h2 of the article followed by an egg grid is a group.
func ParseEggs(doc *goquery.Document) EggPool {
	pool := EggPool{}
	doc.Find("article.article-page h2").Each(func(_ int, title *goquery.Selection) {
		grid := title.NextAllFiltered("ul.egg-grid").First()
		if grid.Length() == 0 {
			return
		}
		// the grid must belong to this title, not to a later one
		if between := title.NextUntilSelection(grid).Filter("h2"); between.Length() > 0 {
			return
		}
		group := text(title)
		if group == "" {
			return
		}

		var pokemon []EggPokemon
		grid.Find("li.pokemon-card").Each(func(_ int, card *goquery.Selection) {
			name := text(card.Find("span.name").First())
			if name == "" {
				return
			}
			pokemon = append(pokemon, EggPokemon{
				Name:           name,
				ShinyAvailable: hasShinyIcon(card),
				RarityTier:     card.Find("div.rarity > svg.mini-egg").Length(),
				AssetURL:       assetURL(card),
			})
		})
		pool[group] = uniqueByName(append(pool[group], pokemon...), func(p EggPokemon) string {
			return p.Name
		})
	})
	return pool
}
