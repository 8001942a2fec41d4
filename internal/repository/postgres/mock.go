package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/civitas/backend/internal/domain"
)

// MockRepository implements domain.DetectionRepository for testing/demo
// mode. It serves a synthetic detection table containing one physically
// implausible jump so the full pipeline is exercisable without a store.
type MockRepository struct{}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// FindByPlateAndPeriod returns a synthetic day of detections around Rio's
// center, including a cross-town jump 90 seconds after the previous read.
func (r *MockRepository) FindByPlateAndPeriod(ctx context.Context, plate string, from, to time.Time) (domain.RawTable, error) {
	base := from
	if base.IsZero() {
		base = time.Now().Add(-24 * time.Hour).Truncate(time.Hour)
	}

	row := func(offset time.Duration, lat, lon, speed float64, street, equip, hood string) []string {
		return []string{
			base.Add(offset).Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.6f", lat),
			fmt.Sprintf("%.6f", lon),
			street,
			equip,
			fmt.Sprintf("%.0f", speed),
			hood,
			"Rio de Janeiro",
		}
	}

	return domain.RawTable{
		Columns: detectionColumns,
		Rows: [][]string{
			row(0, -22.9068, -43.1729, 52, "Av. Presidente Vargas", "RDR-101", "Centro"),
			row(12*time.Minute, -22.9112, -43.1809, 48, "Av. Rio Branco", "RDR-102", "Centro"),
			row(31*time.Minute, -22.9201, -43.1895, 61, "Rua do Catete", "RDR-117", "Catete"),
			// 14 km from the previous reading in 90 seconds.
			row(31*time.Minute+90*time.Second, -22.9716, -43.3053, 55, "Av. das Américas", "RDR-240", "Barra da Tijuca"),
			row(58*time.Minute, -22.9740, -43.3121, 49, "Av. Ayrton Senna", "RDR-241", "Barra da Tijuca"),
		},
	}, nil
}

// SaveDetectionRun is a no-op in mock mode
func (r *MockRepository) SaveDetectionRun(ctx context.Context, run domain.DetectionRun) error {
	return nil
}

// GetDetectionRuns returns mock run history
func (r *MockRepository) GetDetectionRuns(ctx context.Context, from, to time.Time) ([]domain.DetectionRun, error) {
	return []domain.DetectionRun{
		{
			ID:               "00000000-0000-0000-0000-000000000001",
			Plate:            "ABC1D23",
			PeriodStart:      time.Now().Add(-48 * time.Hour),
			PeriodEnd:        time.Now().Add(-24 * time.Hour),
			Strategy:         domain.StrategySequential,
			SpeedLimitKMH:    domain.DefaultSpeedLimitKMH,
			RecordsProcessed: 5,
			PairsFound:       1,
			Duration:         3 * time.Millisecond,
			CreatedAt:        time.Now().Add(-24 * time.Hour),
		},
	}, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
