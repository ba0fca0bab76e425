package leekduck

import "github.com/PuerkitoBio/goquery"

// ParseRocketLineups extracts the lineup of every rocket leader and grunt. Slots are numbered
// from 1 in page order, empty slots are skipped but still take a number.
func ParseRocketLineups(doc *goquery.Document) RocketLineups {
	lineups := RocketLineups{}
	doc.Find("div.rocket-profile").Each(func(_ int, profile *goquery.Selection) {
		leader := text(profile.Find("div.name").First())
		if leader == "" {
			return
		}

		slots := []RocketSlot{}
		profile.Find(".lineup-info .slot").Each(func(i int, slot *goquery.Selection) {
			var pokemon []RocketPokemon
			slot.Find("span.shadow-pokemon").Each(func(_ int, p *goquery.Selection) {
				name, ok := p.Attr("data-pokemon")
				if !ok || name == "" {
					return
				}
				pokemon = append(pokemon, RocketPokemon{
					Name:           name,
					ShinyAvailable: hasShinyIcon(p),
				})
			})
			if len(pokemon) == 0 {
				return
			}
			slots = append(slots, RocketSlot{
				Slot: i + 1,
				Pokemons: uniqueByName(pokemon, func(p RocketPokemon) string {
					return p.Name
				}),
				IsEncounter: slot.HasClass("encounter"),
			})
		})
		lineups[leader] = slots
	})
	return lineups
}
