package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas/backend/internal/domain"
)

func TestBuildChunks(t *testing.T) {
	t.Run("chunk size floors at 50 with one row of overlap", func(t *testing.T) {
		chunks := buildChunks(120, 4) // n/(2w) = 15 -> floor 50
		require.Len(t, chunks, 3)
		assert.Equal(t, chunk{id: 0, start: 0, end: 51}, chunks[0])
		assert.Equal(t, chunk{id: 1, start: 50, end: 101}, chunks[1])
		assert.Equal(t, chunk{id: 2, start: 100, end: 120}, chunks[2])
	})

	t.Run("large input divides by twice the worker count", func(t *testing.T) {
		chunks := buildChunks(10_000, 4) // chunk size 1250
		require.NotEmpty(t, chunks)
		assert.Equal(t, chunk{id: 0, start: 0, end: 1251}, chunks[0])
		assert.Equal(t, 10_000, chunks[len(chunks)-1].end)
	})

	t.Run("every boundary pair is covered by the earlier chunk", func(t *testing.T) {
		for _, n := range []int{2, 51, 100, 101, 499, 1000} {
			chunks := buildChunks(n, 3)
			for i := 1; i < len(chunks); i++ {
				assert.Equal(t, chunks[i].start+1, chunks[i-1].end,
					"n=%d chunk %d must overlap its predecessor by one row", n, i)
			}
			assert.Equal(t, n, chunks[len(chunks)-1].end)
		}
	})
}

func TestChunkedScannerEquivalence(t *testing.T) {
	// The central invariant: for any input and any worker count the
	// chunked scanner produces the same pairs as the reference scanner.
	seeds := []int64{1, 17, 2024}
	sizes := []int{2, 49, 50, 51, 120, 500, 1200}
	workerCounts := []int{1, 2, 3, 4, 8}

	for _, seed := range seeds {
		for _, n := range sizes {
			seq := randomSequence(n, seed)
			want := SequentialScanner{}.Scan(seq, 110)

			for _, workers := range workerCounts {
				got := NewChunkedScanner(workers).Scan(seq, 110)
				assert.Equal(t, want.Pairs, got.Pairs,
					"seed=%d n=%d workers=%d", seed, n, workers)
				assert.Equal(t, want.SkippedInvalidTime, got.SkippedInvalidTime)
				assert.False(t, got.Partial)
			}
		}
	}
}

func TestChunkedScanner(t *testing.T) {
	t.Run("too small for pairs returns empty result", func(t *testing.T) {
		s := NewChunkedScanner(4)
		assert.Empty(t, s.Scan(nil, 110).Pairs)
		assert.Empty(t, s.Scan(randomSequence(1, 3), 110).Pairs)
	})

	t.Run("idempotent across repeated runs", func(t *testing.T) {
		seq := randomSequence(600, 5)
		s := NewChunkedScanner(4)
		first := s.Scan(seq, 110)
		second := s.Scan(seq, 110)
		assert.Equal(t, first, second)
	})

	t.Run("worker count defaults and caps", func(t *testing.T) {
		assert.GreaterOrEqual(t, NewChunkedScanner(0).Workers(), 1)
		assert.LessOrEqual(t, NewChunkedScanner(0).Workers(), 8)
		assert.Equal(t, 16, NewChunkedScanner(64).Workers())
		assert.Equal(t, 3, NewChunkedScanner(3).Workers())
	})

	t.Run("boundary pair between chunks is reported exactly once", func(t *testing.T) {
		// 120 rows with 4 workers chunks at [0,51) and [50,101); make the
		// pair (49,50) straddling the first boundary suspicious.
		seq := make([]domain.Detection, 120)
		for i := range seq {
			seq[i] = det(time.Duration(i)*time.Minute, -22.9, -43.2)
		}
		seq[50] = det(time.Duration(49)*time.Minute+60*time.Second, -22.9+0.09, -43.2)
		// Restore ascending order after the jump.
		for i := 51; i < 120; i++ {
			seq[i] = det(time.Duration(i)*time.Minute, -22.9+0.09, -43.2)
		}

		want := SequentialScanner{}.Scan(seq, 110)
		got := NewChunkedScanner(4).Scan(seq, 110)
		assert.Equal(t, want.Pairs, got.Pairs)

		keys := make(map[string]int)
		for _, p := range got.Pairs {
			keys[pairKey(p)]++
		}
		for key, count := range keys {
			assert.Equal(t, 1, count, "pair %s reported more than once", key)
		}
	})

	t.Run("failed chunk degrades to zero pairs without failing the run", func(t *testing.T) {
		// 200 rows, one minute apart, with 10 km jumps at indices 11, 61
		// and 161. With 4 workers the chunks are [0,51) [50,101) [100,151)
		// [150,200); poisoning chunk 1 loses only the (60,61) pair.
		seq := make([]domain.Detection, 200)
		lat := -22.9
		for i := range seq {
			if i == 11 || i == 61 || i == 161 {
				lat += 0.09
			}
			seq[i] = det(time.Duration(i)*time.Minute, lat, -43.2)
		}
		poison := seq[70].Timestamp

		s := NewChunkedScanner(4)
		s.scanFn = func(part []domain.Detection, limit float64) ([]domain.SuspiciousPair, int, int) {
			for _, d := range part {
				if d.Timestamp.Equal(poison) {
					panic("synthetic chunk failure")
				}
			}
			return scanRange(part, limit)
		}

		var got domain.ScanResult
		require.NotPanics(t, func() {
			got = s.Scan(seq, 110)
		})

		assert.Equal(t, 4, got.ChunksTotal)
		assert.Equal(t, 1, got.DroppedChunks)
		assert.True(t, got.Partial)
		require.Len(t, got.ChunkErrors, 1)
		assert.Equal(t, 1, got.ChunkErrors[0].ChunkID)

		want := SequentialScanner{}.Scan(seq, 110)
		require.Len(t, want.Pairs, 3)

		// The surviving chunks still report their pairs; only the poisoned
		// chunk's pair is missing.
		require.Len(t, got.Pairs, 2)
		assert.Equal(t, seq[10].Timestamp, got.Pairs[0].Origin.Timestamp)
		assert.Equal(t, seq[160].Timestamp, got.Pairs[1].Origin.Timestamp)
	})
}
