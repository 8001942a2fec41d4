package service

import (
	"context"
	"sync"
	"time"

	"github.com/civitas/backend/internal/analytics"
	"github.com/civitas/backend/internal/domain"
)

// ReportService composes a full detection report: the scan result plus the
// analytics layers computed over it.
type ReportService struct {
	detectionSvc *DetectionService
}

// NewReportService creates a new report service
func NewReportService(detectionSvc *DetectionService) *ReportService {
	return &ReportService{detectionSvc: detectionSvc}
}

// BuildReport runs detection and computes all analytics concurrently over
// the resulting pair table.
func (s *ReportService) BuildReport(ctx context.Context, plate string, from, to time.Time, strategy domain.Strategy, workers int) (domain.DetectionReport, error) {
	result, err := s.detectionSvc.DetectCloning(ctx, plate, from, to, strategy, workers)
	if err != nil {
		return domain.DetectionReport{}, err
	}

	report := domain.DetectionReport{
		Plate:       plate,
		PeriodStart: from,
		PeriodEnd:   to,
		Strategy:    result.StrategyUsed,
		Scan:        result.Scan,
		MapHTML:     result.MapHTML,
		Trails:      result.Trails,
		GeneratedAt: time.Now(),
	}

	// The analytics layers are independent of each other; fan out.
	pairs := result.Scan.Pairs
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.KPIs = analytics.ComputeKPIs(pairs)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.HourlyProfile = analytics.HourlyProfile(pairs)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.NeighborhoodPairs = analytics.NeighborhoodPairs(pairs)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		report.Daily = analytics.GroupByDay(pairs)
	}()

	wg.Wait()

	return report, nil
}
