package eventtime

import (
	"regexp"
	"strings"
	"time"

	"leakduck-backend/lib/htmlutil"
)

const phraseLayout = "Monday January 2 2006 3:04 PM"

var (
	localTimeWord = regexp.MustCompile(`(?i)local\s+time`)
	atWord        = regexp.MustCompile(`(?i)\bat\b`)
	meridiem      = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?m\.?`)
)

// Normalize converts the fragments found on an event page into a Value. When isLocal is false,
// timeOrISO must be an ISO-8601 datetime with an explicit offset. When isLocal is true, date and
// timeOrISO are the visible date and time phrases. The result is nil when nothing usable could
// be parsed.
func Normalize(date, timeOrISO string, isLocal bool) *Value {
	if isLocal {
		return ParseLocal(date, timeOrISO)
	}
	return ParseAbsolute(timeOrISO)
}

// ParseAbsolute parses an ISO-8601 datetime that carries an explicit offset (or Z). Strings
// without an offset are rejected since their instant is unknown.
func ParseAbsolute(iso string) *Value {
	iso = strings.TrimSpace(iso)
	if isPlaceholder(iso) {
		return nil
	}
	t, ok := parseWithOffset(iso)
	if !ok {
		return nil
	}
	v := Absolute(t.Unix())
	return &v
}

// ParseLocal parses a date phrase like "Saturday, August 12, 2023" together with a time phrase
// like "at 2:00 pm Local Time" into a wall-clock Value.
func ParseLocal(date, clock string) *Value {
	date = strings.ReplaceAll(htmlutil.CleanText(date), ",", "")
	clock = htmlutil.CleanText(clock)
	clock = localTimeWord.ReplaceAllString(clock, "")
	clock = atWord.ReplaceAllString(clock, "")
	clock = strings.ReplaceAll(clock, ",", "")
	clock = meridiem.ReplaceAllString(clock, "$1 ${2}M")
	clock = strings.ToUpper(htmlutil.CleanText(clock))
	if date == "" || clock == "" {
		return nil
	}

	t, err := time.Parse(phraseLayout, date+" "+clock)
	if err != nil {
		return nil
	}
	v := Local(t.Format(LocalLayout))
	return &v
}

// FromAttribute interprets the raw value of a machine readable date attribute. Values with an
// offset are absolute, values without one are wall-clock times truncated to seconds precision.
// Empty values and the "calculating" placeholder yield nil.
func FromAttribute(raw string) *Value {
	raw = strings.TrimSpace(raw)
	if isPlaceholder(raw) {
		return nil
	}
	if t, ok := parseWithOffset(raw); ok {
		v := Absolute(t.Unix())
		return &v
	}

	wall := raw
	if len(wall) > len(LocalLayout) {
		wall = wall[:len(LocalLayout)]
	}
	t, err := ParseWall(wall)
	if err != nil {
		return nil
	}
	v := Local(t.Format(LocalLayout))
	return &v
}
