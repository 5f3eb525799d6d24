package domain

import "time"

// Event is one normalized earthquake record.
type Event struct {
	ID        string    `json:"id"`
	Time      int64     `json:"time"` // epoch milliseconds, as in the source
	DateTime  time.Time `json:"datetime"`
	Magnitude float64   `json:"magnitude"`
	Depth     float64   `json:"depth"` // km
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Place     string    `json:"place"`
	MagType   string    `json:"magType"`
	Net       string    `json:"net"`
	Felt      *int      `json:"felt"`
	Alert     string    `json:"alert,omitempty"` // green, yellow, orange, red or empty
	Tsunami   int       `json:"tsunami"`
	Country   string    `json:"country"`

	Month             int               `json:"month"`
	Season            Season            `json:"season"`
	MagnitudeCategory MagnitudeCategory `json:"magnitude_category"`
	DepthCategory     DepthCategory     `json:"depth_category"`

	// Row is the position of the event in the loaded dataset. It breaks ties
	// wherever a stable order is required.
	Row int `json:"-"`
}

// FeltCount returns the felt report count, treating a missing value as zero.
func (e Event) FeltCount() int {
	if e.Felt == nil {
		return 0
	}
	return *e.Felt
}

// HasTsunami reports whether the tsunami flag is set.
func (e Event) HasTsunami() bool {
	return e.Tsunami == 1
}

// Alert levels published by the USGS PAGER system.
const (
	AlertGreen  = "green"
	AlertYellow = "yellow"
	AlertOrange = "orange"
	AlertRed    = "red"
)

// AlertColor maps a PAGER alert level to the hex color used on outlier cards.
// Unknown or missing levels render gray.
func AlertColor(alert string) string {
	switch alert {
	case AlertGreen:
		return "#22c55e"
	case AlertYellow:
		return "#eab308"
	case AlertOrange:
		return "#f97316"
	case AlertRed:
		return "#ef4444"
	default:
		return "#6b7280"
	}
}
