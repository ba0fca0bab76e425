package leekduck

import (
	"fmt"
	"regexp"
	"strconv"

	"leakduck-backend/internal/eventtime"

	json "github.com/goccy/go-json"
)

const DefaultCategory = "Event"

// Event is a single event, identified by the URL of its detail page.
type Event struct {
	ArticleURL  string           `json:"article_url"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	BannerURL   string           `json:"banner_url,omitempty"`
	IsLocalTime bool             `json:"is_local_time"`
	StartTime   *eventtime.Value `json:"start_time"`
	EndTime     *eventtime.Value `json:"end_time"`
	Description string           `json:"description,omitempty"`
	// Details maps a section id of the detail page to the names listed in that section.
	Details map[string][]string `json:"details,omitempty"`
	Error   string              `json:"error,omitempty"`

	// ListingOnly is set on records whose detail page was not (successfully) scraped during this
	// run, only their listing fields are current.
	ListingOnly bool `json:"-"`
	// InvalidTimes holds the stored start or end values that could not be read back, those
	// times decode as null.
	InvalidTimes []string `json:"-"`
}

var eventFields = map[string]bool{
	"article_url":   true,
	"title":         true,
	"category":      true,
	"banner_url":    true,
	"is_local_time": true,
	"start_time":    true,
	"end_time":      true,
	"description":   true,
	"details":       true,
	"error":         true,
}

// UnmarshalJSON also accepts the older layout where every section list was stored as a top level
// key of the event. A start or end time that cannot be read becomes null and is kept in
// InvalidTimes, the rest of the event is still decoded.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	times := map[string]*eventtime.Value{}
	var invalid []string
	for _, key := range []string{"start_time", "end_time"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		decoded, err := eventtime.Decode(value)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s=%s", key, value))
		}
		times[key] = decoded
	}

	rest, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain Event
	var out plain
	if err := json.Unmarshal(rest, &out); err != nil {
		return err
	}
	out.StartTime = times["start_time"]
	out.EndTime = times["end_time"]
	out.InvalidTimes = invalid

	for key, value := range raw {
		if eventFields[key] {
			continue
		}
		var names []string
		if err := json.Unmarshal(value, &names); err != nil {
			continue
		}
		if out.Details == nil {
			out.Details = map[string][]string{}
		}
		out.Details[key] = sortedUnique(append(out.Details[key], names...))
	}

	*e = Event(out)
	return nil
}

// EventCollection groups events by category.
type EventCollection map[string][]Event

func (c EventCollection) Len() int {
	n := 0
	for _, events := range c {
		n += len(events)
	}
	return n
}

// CPRange is an inclusive combat power range.
type CPRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type EggPokemon struct {
	Name           string `json:"name"`
	ShinyAvailable bool   `json:"shiny_available"`
	RarityTier     int    `json:"rarity_tier"`
	AssetURL       string `json:"asset_url,omitempty"`
}

// EggPool maps an egg group ("2 km Eggs") to the pokemon that can hatch from it.
type EggPool map[string][]EggPokemon

func (p EggPool) Len() int {
	n := 0
	for _, pokemon := range p {
		n += len(pokemon)
	}
	return n
}

var digits = regexp.MustCompile(`\d+`)

// RaidTier is the tier of a raid boss, numbered tiers are encoded as integers and everything
// else ("Mega", "Shadow Legendary") as the label itself.
type RaidTier struct {
	Label  string
	Number int
	// Numbered is true when Label contains a number.
	Numbered bool
}

func ParseRaidTier(label string) RaidTier {
	match := digits.FindString(label)
	if match == "" {
		return RaidTier{Label: label}
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return RaidTier{Label: label}
	}
	return RaidTier{Label: label, Number: n, Numbered: true}
}

func (t RaidTier) MarshalJSON() ([]byte, error) {
	if t.Numbered {
		return []byte(strconv.Itoa(t.Number)), nil
	}
	return json.Marshal(t.Label)
}

func (t *RaidTier) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = RaidTier{Label: strconv.Itoa(n), Number: n, Numbered: true}
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("raid tier is neither a number nor a string: %s", data)
	}
	*t = RaidTier{Label: label}
	return nil
}

type RaidBoss struct {
	Name           string   `json:"name"`
	Tier           RaidTier `json:"tier"`
	ShinyAvailable bool     `json:"shiny_available"`
	CPRange        *CPRange `json:"cp_range"`
	BoostedCPRange *CPRange `json:"boosted_cp_range"`
	Types          []string `json:"types"`
	AssetURL       string   `json:"asset_url,omitempty"`
}

// RaidBosses maps a tier header ("Tier 5", "Mega") to the bosses of that tier.
type RaidBosses map[string][]RaidBoss

func (r RaidBosses) Len() int {
	n := 0
	for _, bosses := range r {
		n += len(bosses)
	}
	return n
}

const RewardEncounter = "encounter"

// Reward is either a pokemon encounter (Type == "encounter") or an item with a quantity.
type Reward struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	ShinyAvailable *bool    `json:"shiny_available,omitempty"`
	CPRange        *CPRange `json:"cp_range,omitempty"`
	Quantity       int      `json:"quantity,omitempty"`
	AssetURL       string   `json:"asset_url,omitempty"`
}

type ResearchTask struct {
	Task    string   `json:"task"`
	Rewards []Reward `json:"rewards"`
}

// Research maps a task category to its tasks in page order.
type Research map[string][]ResearchTask

func (r Research) Len() int {
	n := 0
	for _, tasks := range r {
		n += len(tasks)
	}
	return n
}

type RocketPokemon struct {
	Name           string `json:"name"`
	ShinyAvailable bool   `json:"shiny_available"`
}

type RocketSlot struct {
	Slot        int             `json:"slot"`
	Pokemons    []RocketPokemon `json:"pokemons"`
	IsEncounter bool            `json:"is_encounter"`
}

// RocketLineups maps a leader or grunt name to their lineup.
type RocketLineups map[string][]RocketSlot

func (r RocketLineups) Len() int {
	n := 0
	for _, slots := range r {
		n += len(slots)
	}
	return n
}
