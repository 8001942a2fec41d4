package domain

import (
	"context"
	"time"
)

// DetectionRepository defines the interface for detection data sources.
// This follows the Dependency Inversion Principle - domain defines the
// interface; CSV and warehouse adapters implement it.
type DetectionRepository interface {
	// FindByPlateAndPeriod fetches the raw detection table for one plate
	// within a time window, ordered by arrival.
	FindByPlateAndPeriod(ctx context.Context, plate string, from, to time.Time) (RawTable, error)

	// SaveDetectionRun persists a run summary for history queries.
	SaveDetectionRun(ctx context.Context, run DetectionRun) error

	// GetDetectionRuns retrieves run history within a time range.
	GetDetectionRuns(ctx context.Context, from, to time.Time) ([]DetectionRun, error)

	// Health checks data source connectivity.
	Health(ctx context.Context) error
}
