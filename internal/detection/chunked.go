package detection

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/civitas/backend/internal/domain"
)

const (
	// minChunkSize is the floor applied to the chunk-size heuristic. A
	// tuning constant, not a contract.
	minChunkSize = 50

	// defaultWorkerCap bounds the default worker pool; hardWorkerCap is
	// the absolute ceiling for caller-provided counts.
	defaultWorkerCap = 8
	hardWorkerCap    = 16
)

// chunk is a contiguous slice [start, end) of the detection sequence with
// a 1-row overlap into the next chunk, so every boundary pair is evaluated
// exactly once, inside the earlier chunk.
type chunk struct {
	id    int
	start int
	end   int
}

type chunkResult struct {
	chunkID     int
	pairs       []domain.SuspiciousPair
	invalidTime int
	computeErr  int
	err         error
}

// ChunkedScanner runs the sequential inner loop per chunk on a bounded
// worker pool. For any input and any worker count it must produce the same
// set of suspicious pairs as SequentialScanner; ordering is restored by
// sorting collected results by chunk id before merging.
type ChunkedScanner struct {
	workers int

	// scanFn is the per-chunk inner loop. Only tests replace it.
	scanFn func(seq []domain.Detection, speedLimitKMH float64) ([]domain.SuspiciousPair, int, int)
}

// NewChunkedScanner creates a scanner with the given worker count. A count
// of zero or less selects min(NumCPU, 8); any count is capped at 16.
func NewChunkedScanner(workers int) *ChunkedScanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > defaultWorkerCap {
			workers = defaultWorkerCap
		}
	}
	if workers > hardWorkerCap {
		workers = hardWorkerCap
	}
	return &ChunkedScanner{workers: workers, scanFn: scanRange}
}

// Workers returns the bounded pool size.
func (s *ChunkedScanner) Workers() int {
	return s.workers
}

// Scan partitions the sequence into overlapping chunks, scans them in
// parallel and merges the results deterministically. A failed chunk
// contributes zero pairs; the run continues with DroppedChunks and the
// Partial flag recording the degradation.
func (s *ChunkedScanner) Scan(seq []domain.Detection, speedLimitKMH float64) domain.ScanResult {
	if len(seq) < 2 {
		return domain.ScanResult{}
	}

	chunks := buildChunks(len(seq), s.workers)
	slog.Debug("chunked scan starting",
		"records", len(seq), "chunks", len(chunks), "workers", s.workers)

	results := make(chan chunkResult, len(chunks))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results <- chunkResult{chunkID: c.id, err: fmt.Errorf("panic: %v", r)}
				}
			}()
			pairs, invalidTime, computeErr := s.scanFn(seq[c.start:c.end], speedLimitKMH)
			results <- chunkResult{
				chunkID:     c.id,
				pairs:       pairs,
				invalidTime: invalidTime,
				computeErr:  computeErr,
			}
			return nil
		})
	}
	_ = g.Wait() // workers report failures through results, never as errors
	close(results)

	collected := make([]chunkResult, 0, len(chunks))
	for r := range results {
		collected = append(collected, r)
	}
	// Workers complete in arbitrary order; restore determinism before the
	// dedup pass.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].chunkID < collected[j].chunkID
	})

	return mergeChunkResults(collected, len(chunks))
}

// buildChunks partitions n rows into chunks of max(50, n/(2*workers))
// rows, each extended one row into its neighbor so boundary pairs are
// never missed.
func buildChunks(n, workers int) []chunk {
	size := n / (2 * workers)
	if size < minChunkSize {
		size = minChunkSize
	}

	var chunks []chunk
	id := 0
	for start := 0; start < n-1; start += size {
		end := start + size + 1
		if end > n {
			end = n
		}
		chunks = append(chunks, chunk{id: id, start: start, end: end})
		id++
		if end >= n {
			break
		}
	}
	return chunks
}

// mergeChunkResults combines sorted chunk outputs, deduplicating on the
// composite pair key. The 1-row overlap guarantees each boundary pair is
// computed by exactly one chunk; the dedup pass remains as a structural
// safety net should the overlap width ever change.
func mergeChunkResults(sorted []chunkResult, totalChunks int) domain.ScanResult {
	out := domain.ScanResult{ChunksTotal: totalChunks}
	seen := make(map[string]struct{})

	for _, r := range sorted {
		if r.err != nil {
			slog.Error("chunk failed, contributing zero pairs", "chunk", r.chunkID, "err", r.err)
			out.DroppedChunks++
			out.ChunkErrors = append(out.ChunkErrors, domain.ChunkError{ChunkID: r.chunkID, Err: r.err})
			out.Partial = true
			continue
		}
		out.SkippedInvalidTime += r.invalidTime
		out.SkippedComputeError += r.computeErr
		for _, p := range r.pairs {
			key := pairKey(p)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out.Pairs = append(out.Pairs, p)
		}
	}
	return out
}
