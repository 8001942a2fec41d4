package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civitas/backend/internal/domain"
	"github.com/civitas/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	reportSvc *service.ReportService
	repo      service.DataRepository
}

// NewHandler creates a new handler
func NewHandler(reportSvc *service.ReportService, repo service.DataRepository) *Handler {
	return &Handler{
		reportSvc: reportSvc,
		repo:      repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "civitas-backend",
		"version": "1.0.0",
	})
}

// DetectRequest is the POST /detect payload.
type DetectRequest struct {
	Plate    string    `json:"plate"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Strategy string    `json:"strategy,omitempty"` // sequential | chunked | adaptive
	Workers  int       `json:"workers,omitempty"`
}

// DetectCloning runs the cloning-detection pipeline for one plate and time
// window and returns the full report.
func (h *Handler) DetectCloning(c *fiber.Ctx) error {
	ctx := c.Context()

	var req DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Plate == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing plate")
	}
	if !req.To.After(req.From) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid period")
	}

	strategy := domain.Strategy(req.Strategy)
	switch strategy {
	case domain.StrategySequential, domain.StrategyChunked, domain.StrategyAdaptive, "":
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Unknown strategy")
	}

	report, err := h.reportSvc.BuildReport(ctx, req.Plate, req.From, req.To, strategy, req.Workers)
	if err != nil {
		var missing *domain.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":           true,
				"message":         missing.Error(),
				"missing_columns": missing.Columns,
			})
		case errors.Is(err, domain.ErrEmptyInput):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to run cloning detection")
		}
	}

	return c.JSON(domain.DetectionReportResponse{
		Data:    report,
		Success: true,
	})
}

// GetDetectionRuns returns detection-run history within a time range
func (h *Handler) GetDetectionRuns(c *fiber.Ctx) error {
	ctx := c.Context()

	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	data, err := h.repo.GetDetectionRuns(ctx, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch detection runs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}
