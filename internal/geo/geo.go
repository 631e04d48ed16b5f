// Package geo locates the vehicle and finds nearby places and driving
// directions.
package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoPlaces = errors.New("no places found")
	ErrNoRoutes = errors.New("no routes found")
)

type LatLng struct {
	Lat float64
	Lng float64
}

func (l LatLng) String() string {
	return fmt.Sprintf("%v,%v", l.Lat, l.Lng)
}

type Place struct {
	Name     string
	PlaceID  string
	Vicinity string
	Location LatLng
}

type Leg struct {
	Duration     time.Duration
	DurationText string
	DistanceText string
}

type Route struct {
	Summary string
	Legs    []Leg
}

// HumanDuration renders a travel time the way the directions service does:
// "1 min", "12 mins", "1 hour 5 mins", "1 day 2 hours". Past a day minutes
// are rounded into hours.
func HumanDuration(d time.Duration) string {
	mins := int(math.Round(d.Minutes()))
	if mins < 1 {
		mins = 1
	}

	if mins >= 24*60 {
		days := mins / (24 * 60)
		hours := int(math.Round(float64(mins%(24*60)) / 60))
		if hours == 24 {
			days, hours = days+1, 0
		}
		out := plural(days, "day")
		if hours > 0 {
			out += " " + plural(hours, "hour")
		}
		return out
	}

	hours, rest := mins/60, mins%60

	var out string
	switch {
	case hours == 1:
		out = "1 hour"
	case hours > 1:
		out = fmt.Sprintf("%d hours", hours)
	}
	if hours > 0 && rest == 0 {
		return out
	}
	if out != "" {
		out += " "
	}
	if rest == 1 {
		return out + "1 min"
	}
	return out + fmt.Sprintf("%d mins", rest)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
