package window

import (
	"fmt"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

// Profile names a daily working-hours band. Bands are wall-clock hours in the
// user's home timezone.
type Profile string

const (
	Morning   Profile = "morning"
	Afternoon Profile = "afternoon"
	Evening   Profile = "evening"
	FullDay   Profile = "full_day"
)

type hours struct {
	start int
	end   int
}

var profileHours = map[Profile]hours{
	Morning:   {start: 9, end: 12},
	Afternoon: {start: 12, end: 18},
	Evening:   {start: 18, end: 22},
	FullDay:   {start: 9, end: 22},
}

// ParseProfile maps a wire string onto a Profile, defaulting to FullDay for
// the empty string.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case Morning, Afternoon, Evening, FullDay:
		return Profile(s), nil
	case "":
		return FullDay, nil
	}
	return "", fmt.Errorf("unknown working-hours profile %q", s)
}

// Hours returns the profile's wall-clock band.
func (p Profile) Hours() (startHour, endHour int) {
	h, ok := profileHours[p]
	if !ok {
		h = profileHours[FullDay]
	}
	return h.start, h.end
}

// ForDate materializes the working-hours window for one calendar date as UTC
// instants. The wall-clock hours are interpreted in home first and converted
// after, so the window stays correct across DST transitions.
func ForDate(date time.Time, p Profile, home *time.Location) interval.Interval {
	startHour, endHour := p.Hours()
	// Profile hours are always a valid band, so ForClock cannot fail here.
	iv, _ := ForClock(date, startHour, endHour, home)
	return iv
}

// ForClock is like ForDate for an explicit wall-clock hour pair.
func ForClock(date time.Time, startHour, endHour int, home *time.Location) (interval.Interval, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return interval.Interval{}, fmt.Errorf("invalid working hours %d..%d", startHour, endHour)
	}
	year, month, day := date.Date()
	start := time.Date(year, month, day, startHour, 0, 0, 0, home)
	end := time.Date(year, month, day, endHour, 0, 0, 0, home)
	return interval.Interval{Start: start.UTC(), End: end.UTC()}, nil
}
