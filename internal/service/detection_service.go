package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civitas/backend/internal/detection"
	"github.com/civitas/backend/internal/domain"
)

// DetectionService runs cloning detection against the configured data
// source and persists run summaries in the background.
type DetectionService struct {
	repo     DataRepository
	pipeline *detection.Pipeline

	speedLimitKMH float64

	wgBg sync.WaitGroup // tracks background save goroutines for graceful shutdown
}

// NewDetectionService creates a new detection service. A zero speed limit
// selects the default threshold.
func NewDetectionService(repo DataRepository, pipeline *detection.Pipeline, speedLimitKMH float64) *DetectionService {
	if speedLimitKMH == 0 {
		speedLimitKMH = domain.DefaultSpeedLimitKMH
	}
	return &DetectionService{
		repo:          repo,
		pipeline:      pipeline,
		speedLimitKMH: speedLimitKMH,
	}
}

// SpeedLimit returns the configured cloning threshold in km/h.
func (s *DetectionService) SpeedLimit() float64 {
	return s.speedLimitKMH
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *DetectionService) WaitBackground() {
	s.wgBg.Wait()
}

// DetectCloning fetches the plate's detections for the period and runs the
// pipeline with the requested strategy (adaptive when unset). The run
// summary is saved asynchronously so persistence never delays the caller.
func (s *DetectionService) DetectCloning(ctx context.Context, plate string, from, to time.Time, strategy domain.Strategy, workers int) (detection.Result, error) {
	table, err := s.repo.FindByPlateAndPeriod(ctx, plate, from, to)
	if err != nil {
		return detection.Result{}, err
	}

	started := time.Now()
	result, err := s.pipeline.Run(ctx, table, detection.Options{
		SpeedLimitKMH: s.speedLimitKMH,
		Strategy:      strategy,
		Workers:       workers,
		RenderMap:     true,
	})
	if err != nil {
		return detection.Result{}, err
	}

	run := domain.DetectionRun{
		ID:               uuid.NewString(),
		Plate:            plate,
		PeriodStart:      from,
		PeriodEnd:        to,
		Strategy:         result.StrategyUsed,
		SpeedLimitKMH:    s.speedLimitKMH,
		RecordsProcessed: len(result.Detections),
		PairsFound:       len(result.Scan.Pairs),
		Partial:          result.Scan.Partial,
		Duration:         time.Since(started),
		CreatedAt:        time.Now(),
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveDetectionRun(bgCtx, run); err != nil {
			log.Printf("Failed to save detection run: %v", err)
		}
	}()

	return result, nil
}
