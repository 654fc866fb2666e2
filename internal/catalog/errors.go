package catalog

import "errors"

// Domain errors for the catalog package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, catalog.ErrInvalidCatalog) {
//	    // refuse to start
//	}
var (
	// ErrInvalidCatalog is returned when catalog data is malformed.
	// It is a start-up configuration error.
	ErrInvalidCatalog = errors.New("catalog: invalid")

	// ErrButtonNotFound is returned when no button exists at a ButtonRef.
	ErrButtonNotFound = errors.New("catalog: button not found")

	// ErrInvalidPowerState is returned when a power state is not ON or OFF.
	ErrInvalidPowerState = errors.New("catalog: invalid power state")

	// ErrInvalidColumn is returned when a column is not L or R.
	ErrInvalidColumn = errors.New("catalog: invalid column")
)
