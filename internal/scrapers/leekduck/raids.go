package leekduck

import "github.com/PuerkitoBio/goquery"

// ParseRaidBosses extracts the current raid bosses grouped by their tier header.
func ParseRaidBosses(doc *goquery.Document) RaidBosses {
	raids := RaidBosses{}
	doc.Find(".raid-bosses .tier, .shadow-raid-bosses .tier").Each(func(_ int, section *goquery.Selection) {
		header := section.Find("h2.header").First()
		if header.Length() == 0 {
			return
		}
		tierName := text(header)
		tier := ParseRaidTier(tierName)

		var bosses []RaidBoss
		section.Find("div.card").Each(func(_ int, card *goquery.Selection) {
			name := text(card.Find("p.name").First())
			if name == "" {
				return
			}

			types := []string{}
			card.Find(".boss-type .type img").Each(func(_ int, img *goquery.Selection) {
				if title, ok := img.Attr("title"); ok && title != "" {
					types = append(types, title)
				}
			})

			bosses = append(bosses, RaidBoss{
				Name:           name,
				Tier:           tier,
				ShinyAvailable: hasShinyIcon(card),
				CPRange:        ParseCPRange(text(card.Find("div.cp-range").First())),
				BoostedCPRange: ParseCPRange(text(card.Find("div.boosted-cp-row").First())),
				Types:          types,
				AssetURL:       assetURL(card),
			})
		})
		raids[tierName] = uniqueByName(append(raids[tierName], bosses...), func(b RaidBoss) string {
			return b.Name
		})
	})
	return raids
}
