package eventtime

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func ptr(v Value) *Value {
	return &v
}

func TestParseAbsolute(t *testing.T) {
	cases := []struct {
		in     string
		expect *Value
	}{
		{in: "2024-03-01T18:00:00+00:00", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01T18:00:00Z", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01T10:00:00-08:00", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01 18:00:00+00:00", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01T18:00:00.250+00:00", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01T18:00:00", expect: nil},
		{in: "", expect: nil},
		{in: "Calculating...", expect: nil},
		{in: "not a date", expect: nil},
	}

	for _, test := range cases {
		t.Run(test.in, func(t *testing.T) {
			require.Equal(t, test.expect, ParseAbsolute(test.in))
		})
	}
}

func TestParseLocal(t *testing.T) {
	cases := []struct {
		date   string
		clock  string
		expect *Value
	}{
		{
			date:   "Saturday, August 12, 2023",
			clock:  "at 2:00 pm Local Time",
			expect: ptr(Local("2023-08-12T14:00:00")),
		},
		{
			date:   "  Monday,\n January  1, 2024 ",
			clock:  "1:00 AM  Local Time",
			expect: ptr(Local("2024-01-01T01:00:00")),
		},
		{
			date:   "Sunday, March 3, 2024",
			clock:  "at 12:30pm",
			expect: ptr(Local("2024-03-03T12:30:00")),
		},
		{
			date:   "Sunday, March 3, 2024",
			clock:  "at 12:00 a.m. Local Time",
			expect: ptr(Local("2024-03-03T00:00:00")),
		},
		{date: "Sunday, March 3, 2024", clock: "", expect: nil},
		{date: "", clock: "at 2:00 pm", expect: nil},
		{date: "Calculating...", clock: "at 2:00 pm", expect: nil},
		{date: "Sunday, Smarch 3, 2024", clock: "at 2:00 pm", expect: nil},
	}

	for _, test := range cases {
		t.Run(test.date+" "+test.clock, func(t *testing.T) {
			require.Equal(t, test.expect, ParseLocal(test.date, test.clock))
		})
	}
}

func TestFromAttribute(t *testing.T) {
	cases := []struct {
		in     string
		expect *Value
	}{
		{in: "2024-03-01T18:00:00+00:00", expect: ptr(Absolute(1709316000))},
		{in: "2024-03-01T18:00:00", expect: ptr(Local("2024-03-01T18:00:00"))},
		{in: "2024-03-01T18:00:00.000", expect: ptr(Local("2024-03-01T18:00:00"))},
		{in: "2024-03-01T18:00", expect: ptr(Local("2024-03-01T18:00:00"))},
		{in: "calculating", expect: nil},
		{in: "CALCULATING", expect: nil},
		{in: "", expect: nil},
		{in: "garbage", expect: nil},
	}

	for _, test := range cases {
		t.Run(test.in, func(t *testing.T) {
			require.Equal(t, test.expect, FromAttribute(test.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(
		t,
		ptr(Absolute(1709316000)),
		Normalize("Friday, March 1, 2024", "2024-03-01T18:00:00+00:00", false),
	)
	require.Equal(
		t,
		ptr(Local("2024-03-01T18:00:00")),
		Normalize("Friday, March 1, 2024", "at 6:00 PM Local Time", true),
	)
	require.Nil(t, Normalize("Friday, March 1, 2024", "at 6:00 PM Local Time", false))
}

func TestLocalTimeExpiresInLatestZone(t *testing.T) {
	end := Local("2024-01-01T01:00:00")

	instant, err := end.Instant()
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 1, 13, 0, 0, 0, time.UTC), instant)

	cases := []struct {
		now    time.Time
		passed bool
	}{
		{now: time.Date(2024, time.January, 1, 1, 0, 1, 0, time.UTC), passed: false},
		{now: time.Date(2024, time.January, 1, 12, 59, 59, 0, time.UTC), passed: false},
		{now: time.Date(2024, time.January, 1, 13, 0, 0, 0, time.UTC), passed: false},
		{now: time.Date(2024, time.January, 1, 13, 0, 1, 0, time.UTC), passed: true},
	}
	for _, test := range cases {
		require.Equal(t, test.passed, end.HasPassed(test.now), test.now)
	}
}

func TestAbsoluteRoundTrip(t *testing.T) {
	v := ParseAbsolute("2024-03-01T18:00:00+00:00")
	require.NotNil(t, v)
	require.Equal(t, int64(1709316000), v.Epoch())

	instant, err := v.Instant()
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC), instant)
}

func TestYear(t *testing.T) {
	// 2023-12-31T23:30:00-08:00 is already 2024 in UTC
	abs := ParseAbsolute("2023-12-31T23:30:00-08:00")
	require.NotNil(t, abs)
	year, err := abs.Year()
	require.NoError(t, err)
	require.Equal(t, 2024, year)

	// local values resolve at UTC-12, so 20:00 on new year's eve is 08:00 UTC on January 1st
	year, err = Local("2023-12-31T20:00:00").Year()
	require.NoError(t, err)
	require.Equal(t, 2024, year)

	year, err = Local("2023-12-31T11:00:00").Year()
	require.NoError(t, err)
	require.Equal(t, 2023, year)

	_, err = Local("nonsense").Year()
	require.Error(t, err)
}

func TestJSON(t *testing.T) {
	type holder struct {
		Start *Value `json:"start_time"`
		End   *Value `json:"end_time"`
	}

	in := holder{
		Start: ptr(Absolute(1709316000)),
		End:   ptr(Local("2024-03-01T18:00:00")),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"start_time":1709316000,"end_time":"2024-03-01T18:00:00"}`, string(data))

	var out holder
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in, out)

	var empty holder
	require.NoError(t, json.Unmarshal([]byte(`{"start_time":null}`), &empty))
	require.Nil(t, empty.Start)
	require.Nil(t, empty.End)

	data, err = json.Marshal(holder{})
	require.NoError(t, err)
	require.JSONEq(t, `{"start_time":null,"end_time":null}`, string(data))
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(`null`))
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Decode(nil)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Decode([]byte(`1709316000`))
	require.NoError(t, err)
	require.Equal(t, ptr(Absolute(1709316000)), v)

	v, err = Decode([]byte(`"2024-03-01T18:00:00"`))
	require.NoError(t, err)
	require.Equal(t, ptr(Local("2024-03-01T18:00:00")), v)

	v, err = Decode([]byte(`"TBD"`))
	require.ErrorIs(t, err, ErrUnrecognized)
	require.Nil(t, v)

	v, err = Decode([]byte(`{"when":1}`))
	require.ErrorIs(t, err, ErrUnrecognized)
	require.Nil(t, v)
}
