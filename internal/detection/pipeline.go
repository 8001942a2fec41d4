package detection

import (
	"context"
	"log/slog"

	"github.com/civitas/backend/internal/domain"
)

// MapRenderer draws connecting lines between the origin and destination of
// each suspicious pair. External collaborator; failures degrade to an
// empty artifact.
type MapRenderer interface {
	RenderMap(ctx context.Context, pairs []domain.SuspiciousPair, detections []domain.Detection, speedLimitKMH float64) (string, error)
}

// TrailSplitter partitions a day's suspicious pairs into candidate
// per-vehicle tracks. Black box: it accepts the pair table and a speed
// limit and returns sub-tables.
type TrailSplitter interface {
	SplitTrails(ctx context.Context, pairs []domain.SuspiciousPair, speedLimitKMH float64) ([]domain.Trail, error)
}

// Options configures one pipeline run.
type Options struct {
	// SpeedLimitKMH is the cloning threshold; zero selects the default.
	SpeedLimitKMH float64

	// Strategy forces a scanner, or delegates to the adaptive controller
	// when set to StrategyAdaptive (the zero value also delegates).
	Strategy domain.Strategy

	// Workers overrides the chunked worker count for forced-parallel runs.
	Workers int

	// RenderMap enables the map collaborator hand-off.
	RenderMap bool
}

// Result is the pipeline output: the ordered detection sequence, the scan
// result and the collaborator artifacts.
type Result struct {
	Detections   []domain.Detection
	Scan         domain.ScanResult
	StrategyUsed domain.Strategy
	MapHTML      string
	Trails       []domain.Trail
}

// Pipeline orchestrates validate → preprocess → scan → hand-off. Each
// transition is fail-fast except the final hand-off to the map and trail
// collaborators, whose failures are caught and degrade to empty artifacts.
type Pipeline struct {
	adaptive      *AdaptiveController
	mapRenderer   MapRenderer
	trailSplitter TrailSplitter
}

// NewPipeline creates a pipeline. Either collaborator may be nil; the
// corresponding artifact is then always empty.
func NewPipeline(adaptive *AdaptiveController, mapRenderer MapRenderer, trailSplitter TrailSplitter) *Pipeline {
	return &Pipeline{
		adaptive:      adaptive,
		mapRenderer:   mapRenderer,
		trailSplitter: trailSplitter,
	}
}

// Run executes the full detection pipeline over a raw table.
func (p *Pipeline) Run(ctx context.Context, table domain.RawTable, opts Options) (Result, error) {
	if err := ValidateTable(table); err != nil {
		return Result{}, err
	}

	seq, err := Preprocess(table)
	if err != nil {
		return Result{}, err
	}

	speedLimit := opts.SpeedLimitKMH
	if speedLimit == 0 {
		speedLimit = domain.DefaultSpeedLimitKMH
	}

	res := Result{Detections: seq}
	switch opts.Strategy {
	case domain.StrategySequential:
		res.Scan = SequentialScanner{}.Scan(seq, speedLimit)
		res.StrategyUsed = domain.StrategySequential
	case domain.StrategyChunked:
		res.Scan = NewChunkedScanner(opts.Workers).Scan(seq, speedLimit)
		res.StrategyUsed = domain.StrategyChunked
	default:
		res.Scan, res.StrategyUsed = p.adaptive.Scan(seq, speedLimit)
	}

	slog.Info("detection scan complete",
		"strategy", res.StrategyUsed,
		"records", len(seq),
		"pairs", len(res.Scan.Pairs),
		"dropped_chunks", res.Scan.DroppedChunks)

	p.handOff(ctx, &res, speedLimit, opts.RenderMap)
	return res, nil
}

// handOff invokes the external collaborators. Their failures never abort
// the detection result.
func (p *Pipeline) handOff(ctx context.Context, res *Result, speedLimitKMH float64, renderMap bool) {
	if renderMap && p.mapRenderer != nil {
		html, err := p.mapRenderer.RenderMap(ctx, res.Scan.Pairs, res.Detections, speedLimitKMH)
		if err != nil {
			slog.Error("map rendering failed, returning empty artifact", "err", err)
		} else {
			res.MapHTML = html
		}
	}

	if p.trailSplitter != nil && len(res.Scan.Pairs) > 0 {
		trails, err := p.trailSplitter.SplitTrails(ctx, res.Scan.Pairs, speedLimitKMH)
		if err != nil {
			slog.Error("trail splitting failed, returning empty artifact", "err", err)
		} else {
			res.Trails = trails
		}
	}
}
