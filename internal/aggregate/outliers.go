package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// OutlierKey selects the descending sort key for outlier extraction.
type OutlierKey string

const (
	ByMagnitude OutlierKey = "magnitude"
	ByDepth     OutlierKey = "depth"
	ByFelt      OutlierKey = "felt"
)

// ParseOutlierKey validates a key received from a client.
func ParseOutlierKey(s string) (OutlierKey, error) {
	switch k := OutlierKey(s); k {
	case ByMagnitude, ByDepth, ByFelt:
		return k, nil
	default:
		return "", fmt.Errorf("outlier key %q: %w", s, domain.ErrMissingColumn)
	}
}

// TopK returns up to k events with the largest key value, largest first.
// Ties keep the event with the smaller Row first. Events without a felt
// count are skipped for ByFelt. k <= 0 yields an empty result.
func TopK(events []domain.Event, key OutlierKey, k int) ([]domain.Event, error) {
	if _, err := ParseOutlierKey(string(key)); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, max(0, min(k, len(events))))
	if k <= 0 {
		return out, nil
	}
	for _, e := range events {
		if key == ByFelt && e.Felt == nil {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.Event) int {
		if c := cmp.Compare(keyValue(b, key), keyValue(a, key)); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func keyValue(e domain.Event, key OutlierKey) float64 {
	switch key {
	case ByDepth:
		return e.Depth
	case ByFelt:
		return float64(e.FeltCount())
	default:
		return e.Magnitude
	}
}

// Outlier is one infographic card.
type Outlier struct {
	Event      domain.Event `json:"event"`
	AlertColor string       `json:"alert_color"`
}

// OutlierSet is the three-card infographic: the largest, the deepest and
// the most felt event. A card is nil when no event qualifies.
type OutlierSet struct {
	Largest  *Outlier `json:"largest"`
	Deepest  *Outlier `json:"deepest"`
	MostFelt *Outlier `json:"most_felt"`
}

// Outliers builds the infographic. Callers pass the full dataset.
func Outliers(events []domain.Event) OutlierSet {
	return OutlierSet{
		Largest:  top1(events, ByMagnitude),
		Deepest:  top1(events, ByDepth),
		MostFelt: top1(events, ByFelt),
	}
}

func top1(events []domain.Event, key OutlierKey) *Outlier {
	top, _ := TopK(events, key, 1)
	if len(top) == 0 {
		return nil
	}
	return &Outlier{Event: top[0], AlertColor: domain.AlertColor(top[0].Alert)}
}
