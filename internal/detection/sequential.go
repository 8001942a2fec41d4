package detection

import (
	"fmt"
	"math"

	"github.com/civitas/backend/internal/domain"
	"github.com/civitas/backend/pkg/utils"
)

// pairTimeFormat is the display format shared by pair records, daily
// grouping and the chunk dedup key.
const pairTimeFormat = "02/01/2006 15:04:05"

// SequentialScanner is the reference consecutive-pair scanner. Its output
// is the correctness baseline the chunked scanner must reproduce exactly.
type SequentialScanner struct{}

// Scan evaluates every adjacent pair of the sequence and returns the pairs
// whose implied straight-line speed strictly exceeds speedLimitKMH.
// Deterministic, O(n), output ordered by the first element of each pair.
func (SequentialScanner) Scan(seq []domain.Detection, speedLimitKMH float64) domain.ScanResult {
	pairs, invalidTime, computeErr := scanRange(seq, speedLimitKMH)
	return domain.ScanResult{
		Pairs:               pairs,
		SkippedInvalidTime:  invalidTime,
		SkippedComputeError: computeErr,
	}
}

// scanRange is the shared inner loop: both the sequential scanner and each
// chunk worker run it over their slice.
func scanRange(seq []domain.Detection, speedLimitKMH float64) (pairs []domain.SuspiciousPair, invalidTime, computeErr int) {
	for i := 0; i+1 < len(seq); i++ {
		pair, outcome := evaluatePair(seq[i], seq[i+1], speedLimitKMH)
		switch outcome {
		case domain.PairSkippedInvalidTime:
			invalidTime++
		case domain.PairSkippedComputeError:
			computeErr++
		case domain.PairEvaluated:
			if pair != nil {
				pairs = append(pairs, *pair)
			}
		}
	}
	return pairs, invalidTime, computeErr
}

// evaluatePair computes distance, elapsed time and implied speed for one
// consecutive pair. A nil pair with PairEvaluated means the pair was
// within the limit. Simultaneous or out-of-order detections are skipped
// silently; malformed values skip only this pair, never the whole scan.
func evaluatePair(a, b domain.Detection, speedLimitKMH float64) (*domain.SuspiciousPair, domain.PairOutcome) {
	distanceKM := utils.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if math.IsNaN(distanceKM) || math.IsInf(distanceKM, 0) {
		return nil, domain.PairSkippedComputeError
	}

	timeSeconds := b.Timestamp.Sub(a.Timestamp).Seconds()
	if timeSeconds <= 0 {
		return nil, domain.PairSkippedInvalidTime
	}

	speedKMH := distanceKM / (timeSeconds / 3600.0)
	if math.IsNaN(speedKMH) || math.IsInf(speedKMH, 0) {
		return nil, domain.PairSkippedComputeError
	}

	if speedKMH <= speedLimitKMH {
		return nil, domain.PairEvaluated
	}

	return &domain.SuspiciousPair{
		Origin:           a,
		Destination:      b,
		DistanceKM:       distanceKM,
		TimeSeconds:      timeSeconds,
		SpeedKMH:         speedKMH,
		FormattedTime:    a.Timestamp.Format(pairTimeFormat),
		OriginLabel:      a.LocationLabel,
		DestinationLabel: b.LocationLabel,
	}, domain.PairEvaluated
}

// pairKey builds the composite dedup key used when merging chunk results:
// formatted origin timestamp plus all four coordinates.
func pairKey(p domain.SuspiciousPair) string {
	return fmt.Sprintf("%s_%v_%v_%v_%v",
		p.FormattedTime,
		p.Origin.Latitude, p.Origin.Longitude,
		p.Destination.Latitude, p.Destination.Longitude,
	)
}
