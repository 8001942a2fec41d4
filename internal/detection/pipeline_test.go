package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas/backend/internal/domain"
)

type stubMapRenderer struct {
	html string
	err  error
}

func (s *stubMapRenderer) RenderMap(ctx context.Context, pairs []domain.SuspiciousPair, detections []domain.Detection, speedLimitKMH float64) (string, error) {
	return s.html, s.err
}

type stubTrailSplitter struct {
	trails []domain.Trail
	err    error
}

func (s *stubTrailSplitter) SplitTrails(ctx context.Context, pairs []domain.SuspiciousPair, speedLimitKMH float64) ([]domain.Trail, error) {
	return s.trails, s.err
}

func suspiciousTable() domain.RawTable {
	return domain.RawTable{
		Columns: testColumns,
		Rows: [][]string{
			rawRow("2024-05-10 08:00:00", "0", "0", "Av. A", "R1", "50", "Centro", "Rio"),
			rawRow("2024-05-10 08:01:00", "0.09", "0", "Av. B", "R2", "55", "Barra", "Rio"),
		},
	}
}

func TestPipelineRun(t *testing.T) {
	ctrl := NewAdaptiveController(2, nil)

	t.Run("validates before anything else", func(t *testing.T) {
		p := NewPipeline(ctrl, nil, nil)
		_, err := p.Run(context.Background(), domain.RawTable{Columns: []string{"timestamp"}}, Options{})

		var missing *domain.MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Columns, 4)
	})

	t.Run("empty table is a structural failure", func(t *testing.T) {
		p := NewPipeline(ctrl, nil, nil)
		_, err := p.Run(context.Background(), domain.RawTable{Columns: testColumns}, Options{})
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("adaptive run detects the implausible jump", func(t *testing.T) {
		p := NewPipeline(ctrl, nil, nil)
		res, err := p.Run(context.Background(), suspiciousTable(), Options{})
		require.NoError(t, err)

		assert.Equal(t, domain.StrategySequential, res.StrategyUsed)
		require.Len(t, res.Scan.Pairs, 1)
		assert.Greater(t, res.Scan.Pairs[0].SpeedKMH, domain.DefaultSpeedLimitKMH)
	})

	t.Run("forced strategies use the requested scanner", func(t *testing.T) {
		p := NewPipeline(ctrl, nil, nil)

		seqRes, err := p.Run(context.Background(), suspiciousTable(), Options{Strategy: domain.StrategySequential})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategySequential, seqRes.StrategyUsed)

		parRes, err := p.Run(context.Background(), suspiciousTable(), Options{Strategy: domain.StrategyChunked, Workers: 2})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyChunked, parRes.StrategyUsed)
		assert.Equal(t, seqRes.Scan.Pairs, parRes.Scan.Pairs)
	})

	t.Run("collaborator output lands on the result", func(t *testing.T) {
		p := NewPipeline(ctrl,
			&stubMapRenderer{html: "<html>map</html>"},
			&stubTrailSplitter{trails: []domain.Trail{{Vehicle: "A"}, {Vehicle: "B"}}},
		)

		res, err := p.Run(context.Background(), suspiciousTable(), Options{RenderMap: true})
		require.NoError(t, err)
		assert.Equal(t, "<html>map</html>", res.MapHTML)
		assert.Len(t, res.Trails, 2)
	})

	t.Run("collaborator failures degrade to empty artifacts", func(t *testing.T) {
		p := NewPipeline(ctrl,
			&stubMapRenderer{err: errors.New("renderer down")},
			&stubTrailSplitter{err: errors.New("splitter down")},
		)

		res, err := p.Run(context.Background(), suspiciousTable(), Options{RenderMap: true})
		require.NoError(t, err)
		assert.Empty(t, res.MapHTML)
		assert.Empty(t, res.Trails)
		// The detection result itself is intact.
		assert.Len(t, res.Scan.Pairs, 1)
	})

	t.Run("map rendering is skipped unless requested", func(t *testing.T) {
		renderer := &stubMapRenderer{html: "<html>map</html>"}
		p := NewPipeline(ctrl, renderer, nil)

		res, err := p.Run(context.Background(), suspiciousTable(), Options{RenderMap: false})
		require.NoError(t, err)
		assert.Empty(t, res.MapHTML)
	})
}
