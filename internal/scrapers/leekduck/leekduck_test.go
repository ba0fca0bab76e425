package leekduck

import (
	"os"
	"path/filepath"
	"testing"

	"leakduck-backend/internal/eventtime"

	"github.com/PuerkitoBio/goquery"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loadFixture(t testing.TB, name string) *goquery.Document {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := ParseDocument(body)
	require.NoError(t, err)
	return doc
}

func timeValue(v eventtime.Value) *eventtime.Value {
	return &v
}

func diff(t testing.TB, expected, got any) {
	t.Helper()
	if d := cmp.Diff(expected, got, cmp.AllowUnexported(eventtime.Value{})); d != "" {
		t.Fatal(d)
	}
}

func TestParseCPRange(t *testing.T) {
	cases := []struct {
		in     string
		expect *CPRange
	}{
		{in: "2190 - 2280", expect: &CPRange{Min: 2190, Max: 2280}},
		{in: "CP 2280 - 2190", expect: &CPRange{Min: 2190, Max: 2280}},
		{in: "Max CP 456", expect: nil},
		{in: "1 - 2 - 3", expect: nil},
		{in: "", expect: nil},
		{in: "unknown", expect: nil},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, ParseCPRange(test.in), test.in)
	}
}

func TestParseCPRangeOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"10", "20"},
		{"2984", "2844"},
		{"7", "7"},
		{"0", "4000"},
	}
	for _, pair := range pairs {
		forward := ParseCPRange(pair[0] + " - " + pair[1])
		backward := ParseCPRange(pair[1] + " - " + pair[0])
		require.NotNil(t, forward)
		require.Equal(t, forward, backward)
		require.LessOrEqual(t, forward.Min, forward.Max)
	}
}

func TestParseQuantity(t *testing.T) {
	require.Equal(t, 10, ParseQuantity("×10"))
	require.Equal(t, 1, ParseQuantity(""))
	require.Equal(t, 1, ParseQuantity("×"))
	require.Equal(t, 1, ParseQuantity("0"))
}

func TestParseListing(t *testing.T) {
	drafts := ParseListing(loadFixture(t, "events.html"), "https://leekduck.com/")

	diff(t, []Event{
		{
			ArticleURL:  "https://leekduck.com/events/community-day-march/",
			Title:       "Community Day: Bellsprout",
			Category:    "Community Day",
			BannerURL:   "https://cdn.leekduck.com/assets/img/events/cd-march.jpg",
			IsLocalTime: true,
			StartTime:   timeValue(eventtime.Local("2024-03-16T14:00:00")),
			EndTime:     timeValue(eventtime.Local("2024-03-16T17:00:00")),
			ListingOnly: true,
		},
		{
			ArticleURL:  "https://leekduck.com/events/go-battle-week/",
			Title:       "GO Battle Week",
			Category:    DefaultCategory,
			StartTime:   timeValue(eventtime.Absolute(1709316000)),
			ListingOnly: true,
		},
	}, drafts)
}

func TestParseEventPageLocal(t *testing.T) {
	detail := ParseEventPage(loadFixture(t, "event_local.html"))

	diff(t, EventDetail{
		IsLocalTime: true,
		StartTime:   timeValue(eventtime.Local("2024-03-16T14:00:00")),
		EndTime:     timeValue(eventtime.Local("2024-03-16T17:00:00")),
		Description: "Bellsprout will be appearing more frequently.\nEvolve Weepinbell to get a Victreebel with Magical Leaf.",
		Details: map[string][]string{
			"spawns":  {"Abra", "Bellsprout", "Zubat"},
			"bonuses": {"2× Catch Candy", "3× Catch Stardust"},
			"raids":   {"Victreebel"},
		},
	}, detail)
	require.True(t, detail.HasValidTimes())
}

func TestParseEventPageAbsolute(t *testing.T) {
	detail := ParseEventPage(loadFixture(t, "event_absolute.html"))

	diff(t, EventDetail{
		StartTime:   timeValue(eventtime.Absolute(1709316000)),
		EndTime:     timeValue(eventtime.Absolute(1709920800)),
		Description: "GO Battle League bonuses.",
	}, detail)
}

func TestParseEventPageMissingTime(t *testing.T) {
	detail := ParseEventPage(loadFixture(t, "event_missing_time.html"))
	require.True(t, detail.IsLocalTime)
	require.NotNil(t, detail.StartTime)
	require.Nil(t, detail.EndTime)
	require.False(t, detail.HasValidTimes())
	require.Equal(t, "Ongoing.", detail.Description)
}

func TestParseEggs(t *testing.T) {
	pool := ParseEggs(loadFixture(t, "eggs.html"))

	diff(t, EggPool{
		"2 km Eggs": {
			{Name: "Abra", RarityTier: 1},
			{
				Name:           "Bulbasaur",
				ShinyAvailable: true,
				RarityTier:     2,
				AssetURL:       "https://cdn.leekduck.com/assets/img/pokemon_icons/pm1.icon.png",
			},
		},
		"10 km Eggs": {
			{Name: "Larvitar", RarityTier: 5},
		},
	}, pool)
	require.Equal(t, 3, pool.Len())
}

func TestParseRaidBosses(t *testing.T) {
	raids := ParseRaidBosses(loadFixture(t, "raids.html"))

	diff(t, RaidBosses{
		"Tier 5": {
			{
				Name:           "Mewtwo",
				Tier:           RaidTier{Label: "Tier 5", Number: 5, Numbered: true},
				ShinyAvailable: true,
				CPRange:        &CPRange{Min: 2275, Max: 2387},
				BoostedCPRange: &CPRange{Min: 2844, Max: 2984},
				Types:          []string{"Psychic"},
				AssetURL:       "https://cdn.leekduck.com/assets/img/pokemon_icons/pm150.icon.png",
			},
		},
		"Mega": {
			{
				Name:  "Mega Gengar",
				Tier:  RaidTier{Label: "Mega"},
				Types: []string{"Ghost", "Poison"},
			},
		},
		"Shadow Tier 3": {
			{
				Name:  "Shadow Alakazam",
				Tier:  RaidTier{Label: "Shadow Tier 3", Number: 3, Numbered: true},
				Types: []string{},
			},
			{
				Name:  "Shadow Machamp",
				Tier:  RaidTier{Label: "Shadow Tier 3", Number: 3, Numbered: true},
				Types: []string{},
			},
		},
	}, raids)
}

func TestParseResearch(t *testing.T) {
	research := ParseResearch(loadFixture(t, "research.html"))

	shiny := true
	diff(t, Research{
		"Catching Tasks": {
			{
				Task: "Catch 5 Pokémon",
				Rewards: []Reward{{
					Type:           RewardEncounter,
					Name:           "Rattata",
					ShinyAvailable: &shiny,
					CPRange:        &CPRange{Min: 420, Max: 456},
					AssetURL:       "https://cdn.leekduck.com/assets/img/pokemon_icons/pm19.icon.png",
				}},
			},
			{
				Task: "Catch 10 Pokémon",
				Rewards: []Reward{
					{Type: "item", Name: "Poké Ball", Quantity: 10, AssetURL: "pokeball.png"},
					{Type: "stardust", Name: "Stardust", Quantity: 1},
				},
			},
		},
		"Event Tasks": {},
	}, research)
}

func TestParseRocketLineups(t *testing.T) {
	lineups := ParseRocketLineups(loadFixture(t, "rockets.html"))

	diff(t, RocketLineups{
		"Giovanni": {
			{
				Slot:        1,
				Pokemons:    []RocketPokemon{{Name: "Shadow Mewtwo", ShinyAvailable: true}},
				IsEncounter: true,
			},
			{
				Slot:     2,
				Pokemons: []RocketPokemon{{Name: "Kingler"}, {Name: "Nidoking"}},
			},
			{
				Slot:     4,
				Pokemons: []RocketPokemon{{Name: "Persian"}},
			},
		},
	}, lineups)
}

func TestExtractorsTable(t *testing.T) {
	fixtures := map[string]string{
		EntityEggs:          "eggs.html",
		EntityRaidBosses:    "raids.html",
		EntityResearch:      "research.html",
		EntityRocketLineups: "rockets.html",
	}
	require.Len(t, Extractors, len(fixtures))
	for entity, fixture := range fixtures {
		extract, ok := Extractors[entity]
		require.True(t, ok, entity)
		require.Positive(t, extract(loadFixture(t, fixture)).Len(), entity)
	}
}

func TestEventJSON(t *testing.T) {
	event := Event{
		ArticleURL:  "https://leekduck.com/events/a/",
		Title:       "A <b>&</b>",
		Category:    "Event",
		IsLocalTime: true,
		StartTime:   timeValue(eventtime.Local("2024-03-16T14:00:00")),
		Details:     map[string][]string{"spawns": {"Abra"}},
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"article_url": "https://leekduck.com/events/a/",
		"title": "A <b>&</b>",
		"category": "Event",
		"is_local_time": true,
		"start_time": "2024-03-16T14:00:00",
		"end_time": null,
		"details": {"spawns": ["Abra"]}
	}`, string(data))

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	diff(t, event, decoded)
}

func TestEventCollectionInvalidTime(t *testing.T) {
	var collection EventCollection
	err := json.Unmarshal([]byte(`{"Event": [
		{
			"article_url": "https://leekduck.com/events/good/",
			"title": "Good",
			"category": "Event",
			"is_local_time": false,
			"start_time": 1709316000,
			"end_time": 1709402400
		},
		{
			"article_url": "https://leekduck.com/events/tbd/",
			"title": "TBD",
			"category": "Event",
			"is_local_time": true,
			"start_time": "2024-03-16T14:00:00",
			"end_time": "TBD",
			"details": {"spawns": ["Abra"]}
		}
	]}`), &collection)
	require.NoError(t, err)
	require.Len(t, collection["Event"], 2)

	good := collection["Event"][0]
	require.Empty(t, good.InvalidTimes)
	diff(t, timeValue(eventtime.Absolute(1709402400)), good.EndTime)

	tbd := collection["Event"][1]
	require.Nil(t, tbd.EndTime)
	require.Equal(t, []string{`end_time="TBD"`}, tbd.InvalidTimes)
	diff(t, timeValue(eventtime.Local("2024-03-16T14:00:00")), tbd.StartTime)
	require.Equal(t, map[string][]string{"spawns": {"Abra"}}, tbd.Details)

	data, err := json.Marshal(tbd)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"article_url": "https://leekduck.com/events/tbd/",
		"title": "TBD",
		"category": "Event",
		"is_local_time": true,
		"start_time": "2024-03-16T14:00:00",
		"end_time": null,
		"details": {"spawns": ["Abra"]}
	}`, string(data))
}

func TestEventLegacyJSON(t *testing.T) {
	var event Event
	err := json.Unmarshal([]byte(`{
		"article_url": "https://leekduck.com/events/a/",
		"title": "A",
		"category": "Event",
		"is_local_time": false,
		"start_time": 1709316000,
		"end_time": null,
		"spawns": ["Zubat", "Abra"],
		"bonuses": ["2× Catch Candy"],
		"details": {"raids": ["Mewtwo"]},
		"not_a_list": 5
	}`), &event)
	require.NoError(t, err)

	diff(t, Event{
		ArticleURL: "https://leekduck.com/events/a/",
		Title:      "A",
		Category:   "Event",
		StartTime:  timeValue(eventtime.Absolute(1709316000)),
		Details: map[string][]string{
			"spawns":  {"Abra", "Zubat"},
			"bonuses": {"2× Catch Candy"},
			"raids":   {"Mewtwo"},
		},
	}, event)
}

func TestRaidTierJSON(t *testing.T) {
	data, err := json.Marshal([]RaidTier{ParseRaidTier("Tier 5"), ParseRaidTier("Mega")})
	require.NoError(t, err)
	require.JSONEq(t, `[5, "Mega"]`, string(data))

	var tiers []RaidTier
	require.NoError(t, json.Unmarshal(data, &tiers))
	require.Equal(t, []RaidTier{{Label: "5", Number: 5, Numbered: true}, {Label: "Mega"}}, tiers)
}
