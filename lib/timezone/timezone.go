package timezone

import "time"

// Latest is the last zone on Earth to reach any given wall-clock time (UTC-12). A wall-clock time
// with an unknown zone has certainly passed everywhere once it has passed here.
var Latest = time.FixedZone("UTC-12", -12*60*60)

// Now returns the current time in UTC. The scraped site mixes absolute instants with zone-less
// wall-clock times, so nothing in this module should depend on the host's local zone.
func Now() time.Time {
	return time.Now().UTC()
}

// ResolveLatest interprets a zone-less wall-clock time as if it happened in the Latest zone and
// returns the corresponding UTC instant.
func ResolveLatest(wall time.Time) time.Time {
	return time.Date(
		wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(),
		Latest,
	).UTC()
}
