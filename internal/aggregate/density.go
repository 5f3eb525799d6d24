package aggregate

import "github.com/couchcryptid/quake-dashboard/internal/domain"

// DensityTable cross-tabulates magnitude category against depth category.
// Every cell is present; cells without events hold zero.
type DensityTable struct {
	MagnitudeCategories []domain.MagnitudeCategory `json:"magnitude_categories"`
	DepthCategories     []domain.DepthCategory     `json:"depth_categories"`
	// Counts is indexed [magnitude][depth] in the order of the label slices.
	Counts [][]int `json:"counts"`
	Total  int     `json:"total"`
}

// Count returns the cell for one magnitude/depth pair.
func (d DensityTable) Count(m domain.MagnitudeCategory, dc domain.DepthCategory) int {
	i, j := magIndex(m), depthIndex(dc)
	if i < 0 || j < 0 {
		return 0
	}
	return d.Counts[i][j]
}

// MagnitudeDepthDensity counts events per magnitude/depth category cell.
func MagnitudeDepthDensity(events []domain.Event) DensityTable {
	counts := make([][]int, len(domain.MagnitudeCategories))
	for i := range counts {
		counts[i] = make([]int, len(domain.DepthCategories))
	}
	total := 0
	for _, e := range events {
		i, j := magIndex(e.MagnitudeCategory), depthIndex(e.DepthCategory)
		if i < 0 || j < 0 {
			continue
		}
		counts[i][j]++
		total++
	}
	return DensityTable{
		MagnitudeCategories: domain.MagnitudeCategories,
		DepthCategories:     domain.DepthCategories,
		Counts:              counts,
		Total:               total,
	}
}

func magIndex(m domain.MagnitudeCategory) int {
	for i, c := range domain.MagnitudeCategories {
		if c == m {
			return i
		}
	}
	return -1
}

func depthIndex(d domain.DepthCategory) int {
	for i, c := range domain.DepthCategories {
		if c == d {
			return i
		}
	}
	return -1
}
