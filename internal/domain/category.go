package domain

import "time"

// Season is a meteorological season label.
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// Seasons lists seasons in display order.
var Seasons = []Season{Winter, Spring, Summer, Fall}

// MagnitudeCategory buckets events by magnitude.
type MagnitudeCategory string

const (
	Small  MagnitudeCategory = "Small"
	Medium MagnitudeCategory = "Medium"
	Large  MagnitudeCategory = "Large"
)

// MagnitudeCategories lists magnitude categories in ascending order.
var MagnitudeCategories = []MagnitudeCategory{Small, Medium, Large}

// DepthCategory buckets events by hypocenter depth.
type DepthCategory string

const (
	Shallow      DepthCategory = "Shallow"
	Intermediate DepthCategory = "Intermediate"
	Deep         DepthCategory = "Deep"
)

// DepthCategories lists depth categories from shallow to deep.
var DepthCategories = []DepthCategory{Shallow, Intermediate, Deep}

// Category thresholds. A value equal to a threshold falls in the upper class.
const (
	MediumMagnitudeThreshold = 4.0
	LargeMagnitudeThreshold  = 6.0

	IntermediateDepthThreshold = 70.0  // km
	DeepDepthThreshold         = 300.0 // km
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ClassifyMagnitude returns the magnitude category for m.
func ClassifyMagnitude(m float64) MagnitudeCategory {
	switch {
	case m < MediumMagnitudeThreshold:
		return Small
	case m < LargeMagnitudeThreshold:
		return Medium
	default:
		return Large
	}
}

// ClassifyDepth returns the depth category for a depth in km.
func ClassifyDepth(d float64) DepthCategory {
	switch {
	case d < IntermediateDepthThreshold:
		return Shallow
	case d < DeepDepthThreshold:
		return Intermediate
	default:
		return Deep
	}
}

// SeasonOf maps a calendar month (1–12) to its season.
func SeasonOf(month time.Month) Season {
	switch int(month) % 12 / 3 {
	case 0:
		return Winter
	case 1:
		return Spring
	case 2:
		return Summer
	default:
		return Fall
	}
}

// MonthName returns the three-letter English abbreviation for month (1–12),
// or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Derive fills the fields computed from time, magnitude and depth.
func (e Event) Derive() Event {
	e.DateTime = time.UnixMilli(e.Time).UTC()
	e.Month = int(e.DateTime.Month())
	e.Season = SeasonOf(e.DateTime.Month())
	e.MagnitudeCategory = ClassifyMagnitude(e.Magnitude)
	e.DepthCategory = ClassifyDepth(e.Depth)
	return e
}
