package detection

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/civitas/backend/internal/domain"
)

// Decision thresholds for strategy selection. Empirical tuning constants;
// the three-tier shape (sequential floor, chunked ceiling, score band in
// between) is the contract, the values are not.
const (
	forceSequentialBelow = 100
	forceChunkedAtLeast  = 5000
	complexityThreshold  = 1_000_000

	// minBenchmarkRecords guards the benchmark from running the chunked
	// scanner on sequences too small to amortize pool overhead.
	minBenchmarkRecords = 200

	benchmarkCacheTTL   = 30 * time.Minute
	benchmarkCacheSweep = time.Hour
)

// Complexity scores the shape of a detection sequence. Ephemeral: used
// once per run to choose a strategy, never persisted.
type Complexity struct {
	Records        int     `json:"records"`
	Pairs          int     `json:"pairs"`
	CoordDiversity float64 `json:"coord_diversity"`
	TimeSpanHours  float64 `json:"time_span_hours"`
	Score          float64 `json:"score"`
}

// AnalyzeComplexity derives the complexity score
// n^1.5 × (1 + coordinate diversity) × (1 + time span / 24h).
func AnalyzeComplexity(seq []domain.Detection) Complexity {
	c := Complexity{Records: len(seq)}
	if len(seq) == 0 {
		return c
	}
	if len(seq) > 1 {
		c.Pairs = len(seq) - 1
	}

	unique := make(map[[2]float64]struct{}, len(seq))
	for _, d := range seq {
		unique[[2]float64{d.Latitude, d.Longitude}] = struct{}{}
	}
	c.CoordDiversity = float64(len(unique)) / float64(len(seq))

	minTS, maxTS := seq[0].Timestamp, seq[0].Timestamp
	for _, d := range seq[1:] {
		if d.Timestamp.Before(minTS) {
			minTS = d.Timestamp
		}
		if d.Timestamp.After(maxTS) {
			maxTS = d.Timestamp
		}
	}
	c.TimeSpanHours = maxTS.Sub(minTS).Hours()

	c.Score = math.Pow(float64(c.Records), 1.5) *
		(1 + c.CoordDiversity) *
		(1 + c.TimeSpanHours/24)
	return c
}

// BenchmarkResult is the cached outcome of racing both scanners over one
// dataset. Best-effort: an approximate optimization, not a correctness
// mechanism.
type BenchmarkResult struct {
	SequentialTime time.Duration   `json:"sequential_time"`
	ChunkedTime    time.Duration   `json:"chunked_time"`
	SpeedupFactor  float64         `json:"speedup_factor"`
	Recommended    domain.Strategy `json:"recommended"`
	DatasetSize    int             `json:"dataset_size"`
	PairsFound     int             `json:"pairs_found"`
}

// AdaptiveController chooses between the sequential and chunked scanners
// based on dataset shape. The benchmark cache is owned by whoever
// constructs the controller; sharing a controller across concurrent runs
// is safe because go-cache synchronizes internally.
type AdaptiveController struct {
	workers   int
	benchmark *cache.Cache
}

// NewAdaptiveController creates a controller. A nil bench cache gets a
// private TTL cache; pass a shared instance to reuse recommendations
// across services.
func NewAdaptiveController(workers int, bench *cache.Cache) *AdaptiveController {
	if bench == nil {
		bench = cache.New(benchmarkCacheTTL, benchmarkCacheSweep)
	}
	return &AdaptiveController{
		workers:   NewChunkedScanner(workers).Workers(),
		benchmark: bench,
	}
}

// Choose picks a strategy as a pure function of the complexity score.
// First match wins: small datasets are always sequential, very large ones
// always chunked, the middle band decides by score.
func (a *AdaptiveController) Choose(seq []domain.Detection) domain.Strategy {
	c := AnalyzeComplexity(seq)

	switch {
	case c.Records < forceSequentialBelow:
		return domain.StrategySequential
	case c.Records >= forceChunkedAtLeast:
		return domain.StrategyChunked
	case c.Score >= complexityThreshold:
		return domain.StrategyChunked
	default:
		return domain.StrategySequential
	}
}

// Scan runs the strategy Choose selects and reports which one was used.
func (a *AdaptiveController) Scan(seq []domain.Detection, speedLimitKMH float64) (domain.ScanResult, domain.Strategy) {
	strategy := a.Choose(seq)
	slog.Debug("adaptive scan", "strategy", strategy, "records", len(seq))

	if strategy == domain.StrategyChunked {
		return NewChunkedScanner(a.workers).Scan(seq, speedLimitKMH), strategy
	}
	return SequentialScanner{}.Scan(seq, speedLimitKMH), strategy
}

// BenchmarkAndCache races both scanners once and stores the empirical
// recommendation keyed by a size bucket (n floored to the nearest 100) for
// reuse on future similarly sized datasets.
func (a *AdaptiveController) BenchmarkAndCache(seq []domain.Detection, speedLimitKMH float64) BenchmarkResult {
	key := benchmarkKey(len(seq))
	if cached, ok := a.benchmark.Get(key); ok {
		return cached.(BenchmarkResult)
	}

	start := time.Now()
	seqResult := SequentialScanner{}.Scan(seq, speedLimitKMH)
	seqTime := time.Since(start)

	var chunkedTime time.Duration
	if len(seq) >= minBenchmarkRecords {
		start = time.Now()
		NewChunkedScanner(a.workers).Scan(seq, speedLimitKMH)
		chunkedTime = time.Since(start)
	} else {
		// Pool overhead dominates on tiny inputs; assume chunked loses
		// without paying to measure it.
		chunkedTime = seqTime * 2
	}

	result := BenchmarkResult{
		SequentialTime: seqTime,
		ChunkedTime:    chunkedTime,
		Recommended:    domain.StrategySequential,
		DatasetSize:    len(seq),
		PairsFound:     len(seqResult.Pairs),
	}
	if chunkedTime > 0 {
		result.SpeedupFactor = float64(seqTime) / float64(chunkedTime)
	}
	if chunkedTime < seqTime {
		result.Recommended = domain.StrategyChunked
	}

	a.benchmark.Set(key, result, cache.DefaultExpiration)
	slog.Debug("benchmark cached", "key", key, "recommended", result.Recommended)
	return result
}

func benchmarkKey(n int) string {
	return fmt.Sprintf("size_%d", (n/100)*100)
}
