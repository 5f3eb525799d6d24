// Package aggregate turns a filtered view of the catalog into chart-ready
// summary tables. Every function is pure: it reads only its arguments, never
// modifies them, and returns an empty table rather than an error for an
// empty view.
package aggregate

import (
	"slices"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// MonthCount is the number of events in one calendar month.
type MonthCount struct {
	Month  int           `json:"month"`
	Name   string        `json:"name"`
	Season domain.Season `json:"season"`
	Count  int           `json:"count"`
}

// SeasonCount is the total number of events in one season.
type SeasonCount struct {
	Season domain.Season `json:"season"`
	Count  int           `json:"count"`
}

// MonthlySeasonal holds the monthly bar chart and the seasonal donut.
type MonthlySeasonal struct {
	// Months lists only months with at least one event, in calendar order.
	Months []MonthCount `json:"months"`
	// Seasons always lists all four seasons in Winter, Spring, Summer, Fall order.
	Seasons []SeasonCount `json:"seasons"`
}

// Peak returns the busiest month, or false when there are no events.
// Ties go to the earlier month.
func (m MonthlySeasonal) Peak() (MonthCount, bool) {
	if len(m.Months) == 0 {
		return MonthCount{}, false
	}
	best := m.Months[0]
	for _, mc := range m.Months[1:] {
		if mc.Count > best.Count {
			best = mc
		}
	}
	return best, true
}

// MonthlyCounts groups events by month and sums monthly counts per season.
func MonthlyCounts(events []domain.Event) MonthlySeasonal {
	var counts [13]int
	for _, e := range events {
		if e.Month >= 1 && e.Month <= 12 {
			counts[e.Month]++
		}
	}

	months := make([]MonthCount, 0, 12)
	seasonTotals := make(map[domain.Season]int, len(domain.Seasons))
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		season := domain.SeasonOf(time.Month(m))
		months = append(months, MonthCount{
			Month:  m,
			Name:   domain.MonthName(m),
			Season: season,
			Count:  counts[m],
		})
		seasonTotals[season] += counts[m]
	}

	seasons := make([]SeasonCount, len(domain.Seasons))
	for i, s := range domain.Seasons {
		seasons[i] = SeasonCount{Season: s, Count: seasonTotals[s]}
	}
	return MonthlySeasonal{Months: months, Seasons: seasons}
}

// SeasonShare returns each season's share of all events in [0, 1], in
// display order. All shares are zero for an empty view.
func (m MonthlySeasonal) SeasonShare() []float64 {
	total := 0
	for _, s := range m.Seasons {
		total += s.Count
	}
	out := make([]float64, len(m.Seasons))
	if total == 0 {
		return out
	}
	for i, s := range m.Seasons {
		out[i] = float64(s.Count) / float64(total)
	}
	return out
}

// MonthsInSeason returns the month rows belonging to season, in calendar order.
func (m MonthlySeasonal) MonthsInSeason(season domain.Season) []MonthCount {
	return slices.DeleteFunc(slices.Clone(m.Months), func(mc MonthCount) bool {
		return mc.Season != season
	})
}
