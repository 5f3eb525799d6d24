package domain

import "errors"

var (
	// ErrInvalidFilter is returned for malformed filter ranges (min > max or NaN bounds).
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInsufficientData signals that a computation needs at least two
	// points. It is distinct from an empty result, which is never an error.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrMissingColumn is returned when a required or requested column is
	// not part of the dataset schema.
	ErrMissingColumn = errors.New("missing column")

	// ErrUnknownGranularity is returned for an unsupported resample bucket size.
	ErrUnknownGranularity = errors.New("unknown granularity")

	// ErrUnknownMetric is returned for an unsupported resample reducer.
	ErrUnknownMetric = errors.New("unknown metric")
)
