// Package domain models the earthquake event catalog served by the dashboard.
//
// # Data Source
//
// Events come from the USGS-derived "recent earthquakes" Kaggle table, one
// CSV row per event. The acquisition step (download, caching) is external;
// the service reads a local copy at startup and treats it as immutable for
// the life of the process. See package dataset for parsing.
//
// # Source Conventions
//
// Time:
//
//	"time" is milliseconds since the Unix epoch, e.g. 1725032345123.
//	It is converted to a UTC instant; month and season derive from it.
//
// Magnitude type ("magType"):
//
//	Source-defined short codes such as "mb", "ml", "mww", "md". The set is
//	open; the dashboard only ever offers the first few distinct values.
//
// Nullable columns:
//
//	"felt" (DYFI report count) and "alert" (PAGER level) are empty for most
//	events. Empty felt is nil, never zero. Empty alert is "".
//
// # Derived Classifications
//
// Category boundaries are lower-inclusive, so a value sitting exactly on a
// threshold belongs to the upper class:
//
//	Magnitude: <4.0 Small  | 4.0–<6.0 Medium      | ≥6.0 Large
//	Depth:     <70 km Shallow | 70–<300 km Intermediate | ≥300 km Deep
//
// Seasons are meteorological (northern hemisphere):
//
//	Dec–Feb Winter | Mar–May Spring | Jun–Aug Summer | Sep–Nov Fall
//
// # Filtering
//
// A [FilterSpec] is the only mutable state in the system. It is replaced
// wholesale on every interaction and every chart recomputes from the
// resulting filtered view. See [FilterSpec.Matches].
package domain
