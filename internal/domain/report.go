package domain

import "time"

// KPISummary aggregates headline metrics over a suspicious-pair table.
type KPISummary struct {
	SuspiciousCount int     `json:"suspicious_count"`
	MaxSpeedKMH     float64 `json:"max_speed_kmh"`

	TopDay      string `json:"top_day"`
	TopDayCount int    `json:"top_day_count"`

	TopShift      string `json:"top_shift"`
	TopShiftCount int    `json:"top_shift_count"`

	LeadingRadar      string `json:"leading_radar"`
	LeadingRadarCount int    `json:"leading_radar_count"`

	TopRoute      string `json:"top_route"`
	TopRouteCount int    `json:"top_route_count"`
}

// HourCount is one bucket of the hourly activity profile.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// NeighborhoodPairCount counts suspicious pairs between an origin and a
// destination neighborhood.
type NeighborhoodPairCount struct {
	OriginNeighborhood      string `json:"origin_neighborhood"`
	DestinationNeighborhood string `json:"destination_neighborhood"`
	Count                   int    `json:"count"`
}

// DailyPairs groups a day's suspicious pairs for per-day reporting.
// Day uses the dd/mm/yyyy display format shared with pair timestamps.
type DailyPairs struct {
	Day   string           `json:"day"`
	Pairs []SuspiciousPair `json:"pairs"`
}

// Trail is one candidate vehicle track produced by the external
// trail-splitting collaborator. Its clustering algorithm is a black box;
// this type only carries its output.
type Trail struct {
	Vehicle string           `json:"vehicle"`
	Pairs   []SuspiciousPair `json:"pairs"`
}

// DetectionReport is the full artifact returned to callers: the scan
// result plus analytics and collaborator outputs.
type DetectionReport struct {
	Plate       string    `json:"plate"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Strategy    Strategy  `json:"strategy"`

	Scan ScanResult `json:"scan"`

	KPIs              KPISummary              `json:"kpis"`
	HourlyProfile     []HourCount             `json:"hourly_profile"`
	NeighborhoodPairs []NeighborhoodPairCount `json:"neighborhood_pairs"`
	Daily             []DailyPairs            `json:"daily"`

	// MapHTML and Trails degrade to empty values when the external
	// collaborators fail; the detection result itself is never aborted.
	MapHTML string  `json:"map_html,omitempty"`
	Trails  []Trail `json:"trails,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// DetectionReportResponse wraps a report with transport metadata.
type DetectionReportResponse struct {
	Data    DetectionReport `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
}
