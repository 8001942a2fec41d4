package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when a detection run receives a table with no
// rows for the requested plate and period.
var ErrEmptyInput = errors.New("no detections found for the specified plate and period")

// MissingColumnsError reports every required column absent from an input
// table, not just the first one found.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// ChunkError records the failure of a single chunk during a chunked scan.
// The run continues; the chunk contributes zero pairs.
type ChunkError struct {
	ChunkID int
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d failed: %v", e.ChunkID, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
