package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/civitas/backend/internal/domain"
)

// MapBridge handles communication with the external map-rendering service
// that draws connecting lines between origin/destination points.
type MapBridge struct {
	serviceURL string
	httpClient *http.Client
}

// NewMapBridge creates a new map bridge
func NewMapBridge(serviceURL string) *MapBridge {
	return &MapBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type mapRenderRequest struct {
	Pairs         []domain.SuspiciousPair `json:"pairs"`
	Detections    []domain.Detection      `json:"detections"`
	SpeedLimitKMH float64                 `json:"speed_limit_kmh"`
}

type mapRenderResponse struct {
	HTML string `json:"html"`
}

// RenderMap calls the map service for a rendered HTML artifact. Transport
// failures degrade to an empty artifact so detection results are never
// blocked by the renderer.
func (b *MapBridge) RenderMap(ctx context.Context, pairs []domain.SuspiciousPair, detections []domain.Detection, speedLimitKMH float64) (string, error) {
	if b.serviceURL == "" {
		return "", nil
	}

	body, err := json.Marshal(mapRenderRequest{
		Pairs:         pairs,
		Detections:    detections,
		SpeedLimitKMH: speedLimitKMH,
	})
	if err != nil {
		return "", fmt.Errorf("map_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/render", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("map_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("Map service unreachable, returning empty artifact: %v", err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Map service returned status %d, returning empty artifact", resp.StatusCode)
		return "", nil
	}

	var rendered mapRenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return "", fmt.Errorf("map_bridge: failed to decode response: %w", err)
	}

	return rendered.HTML, nil
}

// Health checks map service connectivity
func (b *MapBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("map_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("map_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("map_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}
