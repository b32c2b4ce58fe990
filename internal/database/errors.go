package database

import "github.com/yield-drawing/drawingdb/internal/drawing"

// ErrNotFound and ErrConcurrencyConflict are the drawing store errors, so
// callers matching with errors.Is see the same values from every backend.
var (
	ErrNotFound            = drawing.ErrNotFound
	ErrConcurrencyConflict = drawing.ErrConcurrencyConflict
)
