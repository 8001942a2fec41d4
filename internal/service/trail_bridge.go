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

// TrailBridge handles communication with the external trail-splitting
// service that partitions a day's suspicious pairs into two candidate
// vehicle tracks. Its clustering algorithm is a black box behind this
// client.
type TrailBridge struct {
	serviceURL string
	httpClient *http.Client
}

// NewTrailBridge creates a new trail bridge
func NewTrailBridge(serviceURL string) *TrailBridge {
	return &TrailBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type trailSplitRequest struct {
	Pairs         []domain.SuspiciousPair `json:"pairs"`
	SpeedLimitKMH float64                 `json:"speed_limit_kmh"`
}

type trailSplitResponse struct {
	Trails []domain.Trail `json:"trails"`
}

// SplitTrails submits the pair table for clustering. Transport failures
// degrade to no trails; the detection result itself is never aborted.
func (b *TrailBridge) SplitTrails(ctx context.Context, pairs []domain.SuspiciousPair, speedLimitKMH float64) ([]domain.Trail, error) {
	if b.serviceURL == "" {
		return nil, nil
	}

	body, err := json.Marshal(trailSplitRequest{Pairs: pairs, SpeedLimitKMH: speedLimitKMH})
	if err != nil {
		return nil, fmt.Errorf("trail_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/split", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("trail_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("Trail service unreachable, returning no trails: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Trail service returned status %d, returning no trails", resp.StatusCode)
		return nil, nil
	}

	var split trailSplitResponse
	if err := json.NewDecoder(resp.Body).Decode(&split); err != nil {
		return nil, fmt.Errorf("trail_bridge: failed to decode response: %w", err)
	}

	return split.Trails, nil
}

// Health checks trail service connectivity
func (b *TrailBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("trail_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trail_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trail_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}
