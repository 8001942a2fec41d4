package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas/backend/internal/detection"
	"github.com/civitas/backend/internal/domain"
	"github.com/civitas/backend/internal/repository/postgres"
	"github.com/civitas/backend/internal/service"
)

func newTestApp() *fiber.App {
	repo := postgres.NewMockRepository()
	adaptive := detection.NewAdaptiveController(2, nil)
	pipeline := detection.NewPipeline(adaptive, nil, nil)
	detectionSvc := service.NewDetectionService(repo, pipeline, 0)
	reportSvc := service.NewReportService(detectionSvc)

	app := fiber.New()
	SetupRoutes(app, reportSvc, repo)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, payload
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp()

	resp, payload := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "civitas-backend", body["service"])
}

func TestDetectCloning(t *testing.T) {
	app := newTestApp()

	t.Run("returns a full report for a valid request", func(t *testing.T) {
		resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/detect",
			`{"plate":"ABC1D23","from":"2024-05-10T08:00:00Z","to":"2024-05-11T08:00:00Z"}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body domain.DetectionReportResponse
		require.NoError(t, json.Unmarshal(payload, &body))
		assert.True(t, body.Success)
		assert.Equal(t, "ABC1D23", body.Data.Plate)
		assert.Equal(t, 1, body.Data.KPIs.SuspiciousCount)
		require.Len(t, body.Data.Scan.Pairs, 1)
		assert.Greater(t, body.Data.Scan.Pairs[0].SpeedKMH, domain.DefaultSpeedLimitKMH)
	})

	t.Run("rejects a missing plate", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/detect",
			`{"from":"2024-05-10T08:00:00Z","to":"2024-05-11T08:00:00Z"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects an inverted period", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/detect",
			`{"plate":"ABC1D23","from":"2024-05-11T08:00:00Z","to":"2024-05-10T08:00:00Z"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects an unknown strategy", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/detect",
			`{"plate":"ABC1D23","from":"2024-05-10T08:00:00Z","to":"2024-05-11T08:00:00Z","strategy":"quantum"}`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/detect", `{not json`)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetDetectionRuns(t *testing.T) {
	app := newTestApp()

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v1/detections?hours=48", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                  `json:"success"`
		Data    []domain.DetectionRun `json:"data"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ABC1D23", body.Data[0].Plate)
}
