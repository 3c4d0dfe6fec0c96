package raster

import "errors"

var (
	// ErrInvalidRaster reports non-positive dimensions or a mask whose
	// dimensions disagree with the declared image size.
	ErrInvalidRaster = errors.New("invalid raster")

	// ErrInvalidParameter reports a configuration value that makes no sense
	// for the pipeline (negative thresholds, too small point budgets, ...).
	ErrInvalidParameter = errors.New("invalid parameter")
)
