// Package eventtime turns the date/time fragments found on event pages into either an absolute
// instant (epoch seconds) or an opaque wall-clock string with no zone attached.
package eventtime

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leakduck-backend/lib/timezone"

	json "github.com/goccy/go-json"
)

// LocalLayout is the canonical form of a wall-clock time.
const LocalLayout = "2006-01-02T15:04:05"

var localLayouts = []string{
	LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Value is either an absolute instant or a local wall-clock time. The zero Value is the absolute
// instant at the unix epoch, absent times are represented with a nil *Value.
type Value struct {
	local string
	epoch int64
}

// Absolute creates a Value holding epoch seconds.
func Absolute(epoch int64) Value {
	return Value{epoch: epoch}
}

// Local creates a Value holding a wall-clock time, it must be in a form accepted by ParseWall.
func Local(wall string) Value {
	return Value{local: wall}
}

func (v Value) IsLocal() bool {
	return v.local != ""
}

// Epoch returns the epoch seconds of an absolute Value, it is 0 for local values.
func (v Value) Epoch() int64 {
	return v.epoch
}

// Wall returns the wall-clock string of a local Value, it is empty for absolute values.
func (v Value) Wall() string {
	return v.local
}

func (v Value) String() string {
	if v.IsLocal() {
		return v.local
	}
	return strconv.FormatInt(v.epoch, 10)
}

// Instant resolves the Value to a UTC instant. Local values are assumed to be in the latest zone
// on Earth (UTC-12) so the resulting instant is the latest moment the wall-clock time could
// refer to anywhere.
func (v Value) Instant() (time.Time, error) {
	if !v.IsLocal() {
		return time.Unix(v.epoch, 0).UTC(), nil
	}
	wall, err := ParseWall(v.local)
	if err != nil {
		return time.Time{}, err
	}
	return timezone.ResolveLatest(wall), nil
}

// Year is the UTC calendar year of the resolved instant. A local value late on December 31st
// therefore lands in the following year.
func (v Value) Year() (int, error) {
	instant, err := v.Instant()
	if err != nil {
		return 0, err
	}
	return instant.Year(), nil
}

// HasPassed reports whether now is strictly after the instant of the Value. Values whose instant
// cannot be resolved never pass.
func (v Value) HasPassed(now time.Time) bool {
	instant, err := v.Instant()
	if err != nil {
		return false
	}
	return now.After(instant)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsLocal() {
		return json.Marshal(v.local)
	}
	return []byte(strconv.FormatInt(v.epoch, 10)), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrUnrecognized)
	}
	if data[0] != '"' {
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return fmt.Errorf("%w: %s", ErrUnrecognized, data)
		}
		epoch, err := number.Int64()
		if err != nil {
			f, ferr := number.Float64()
			if ferr != nil {
				return fmt.Errorf("%w: %s", ErrUnrecognized, data)
			}
			epoch = int64(f)
		}
		*v = Absolute(epoch)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrUnrecognized, data)
	}
	parsed := FromAttribute(raw)
	if parsed == nil {
		return fmt.Errorf("%w: %q", ErrUnrecognized, raw)
	}
	*v = *parsed
	return nil
}

// ErrUnrecognized is returned for a stored time value that is neither epoch seconds nor a form
// accepted by FromAttribute.
var ErrUnrecognized = errors.New("unrecognized time value")

// Decode reads a stored time value. JSON null yields nil. A value that cannot be interpreted
// also yields nil, together with an error wrapping ErrUnrecognized, so callers can keep the rest
// of the record.
func Decode(data []byte) (*Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseWall parses a zone-less wall-clock string, the location of the result is UTC but only
// its wall-clock fields carry meaning.
func ParseWall(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range localLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseWithOffset(s string) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isPlaceholder(s string) bool {
	return s == "" || strings.Contains(strings.ToLower(s), "calculating")
}
