package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civitas/backend/internal/domain"
)

// detectionColumns is the canonical column order of raw tables fetched
// from the warehouse. Cells are selected as text so the preprocessor keeps
// its best-effort policy on dirty values.
var detectionColumns = []string{
	domain.ColumnTimestamp,
	domain.ColumnLatitude,
	domain.ColumnLongitude,
	domain.ColumnStreet,
	domain.ColumnEquipmentCode,
	domain.ColumnSpeed,
	domain.ColumnNeighborhood,
	domain.ColumnLocality,
}

// PostgresRepository implements domain.DetectionRepository against the
// plate-detection warehouse.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByPlateAndPeriod fetches the raw detection table for one plate
// ordered by arrival time.
func (r *PostgresRepository) FindByPlateAndPeriod(ctx context.Context, plate string, from, to time.Time) (domain.RawTable, error) {
	query := `
		SELECT detected_at::text, latitude::text, longitude::text,
			   street, equipment_code, speed::text, neighborhood, locality
		FROM plate_detections
		WHERE plate = $1 AND detected_at BETWEEN $2 AND $3
		ORDER BY detected_at
	`

	rows, err := r.pool.Query(ctx, query, plate, from, to)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("postgres: failed to query detections: %w", err)
	}
	defer rows.Close()

	table := domain.RawTable{Columns: detectionColumns}
	for rows.Next() {
		cells := make([]*string, len(detectionColumns))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return domain.RawTable{}, fmt.Errorf("postgres: failed to scan detection row: %w", err)
		}

		row := make([]string, len(cells))
		for i, c := range cells {
			if c != nil {
				row[i] = *c
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.RawTable{}, fmt.Errorf("postgres: detection rows failed: %w", err)
	}

	return table, nil
}

// SaveDetectionRun persists a run summary to PostgreSQL
func (r *PostgresRepository) SaveDetectionRun(ctx context.Context, run domain.DetectionRun) error {
	query := `
		INSERT INTO detection_runs (
			id, plate, period_start, period_end, strategy, speed_limit_kmh,
			records_processed, pairs_found, partial, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.Plate, run.PeriodStart, run.PeriodEnd, string(run.Strategy), run.SpeedLimitKMH,
		run.RecordsProcessed, run.PairsFound, run.Partial, run.Duration.Milliseconds(), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save detection run: %w", err)
	}

	return nil
}

// GetDetectionRuns retrieves run history from PostgreSQL
func (r *PostgresRepository) GetDetectionRuns(ctx context.Context, from, to time.Time) ([]domain.DetectionRun, error) {
	query := `
		SELECT id, plate, period_start, period_end, strategy, speed_limit_kmh,
			   records_processed, pairs_found, partial, duration_ms, created_at
		FROM detection_runs
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query detection runs: %w", err)
	}
	defer rows.Close()

	var results []domain.DetectionRun
	for rows.Next() {
		var (
			run        domain.DetectionRun
			strategy   string
			durationMS int64
		)
		err := rows.Scan(
			&run.ID, &run.Plate, &run.PeriodStart, &run.PeriodEnd, &strategy, &run.SpeedLimitKMH,
			&run.RecordsProcessed, &run.PairsFound, &run.Partial, &durationMS, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan detection run: %w", err)
		}
		run.Strategy = domain.Strategy(strategy)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, run)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
