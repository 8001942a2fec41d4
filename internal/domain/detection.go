package domain

import "time"

// Mandatory and optional column names expected in raw detection tables.
const (
	ColumnTimestamp     = "timestamp"
	ColumnLatitude      = "latitude"
	ColumnLongitude     = "longitude"
	ColumnStreet        = "street"
	ColumnEquipmentCode = "equipment_code"
	ColumnSpeed         = "speed"
	ColumnNeighborhood  = "neighborhood"
	ColumnLocality      = "locality"
)

// RequiredColumns lists the columns a raw table must expose before it can
// enter the detection pipeline.
var RequiredColumns = []string{
	ColumnTimestamp,
	ColumnLatitude,
	ColumnLongitude,
	ColumnStreet,
	ColumnEquipmentCode,
}

// DefaultSpeedLimitKMH is the cloning-detection speed threshold used when
// no explicit limit is configured.
const DefaultSpeedLimitKMH = 110.0

// RawTable is an untyped detection table as fetched from a repository
// (CSV file or warehouse query). Rows hold string cells positionally
// aligned with Columns; parsing and cleanup happen in the preprocessor,
// which keeps the best-effort policy on dirty data in one place.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (t RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table exposes the named column.
func (t RawTable) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Detection is one radar reading for a plate. Immutable once produced by
// the preprocessor.
type Detection struct {
	Timestamp     time.Time `json:"timestamp"`
	EquipmentCode string    `json:"equipment_code"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	Speed         *float64  `json:"speed,omitempty"`
	Street        string    `json:"street,omitempty"`
	Neighborhood  string    `json:"neighborhood,omitempty"`
	Locality      string    `json:"locality,omitempty"`

	// Display labels synthesized by the preprocessor. Reporting reads
	// them; the speed computation never does.
	StreetLabel   string `json:"street_label,omitempty"`
	LocationLabel string `json:"location_label,omitempty"`
}

// SuspiciousPair is two consecutive detections whose implied straight-line
// speed exceeds the configured threshold. Created only by a scanner and
// never mutated afterwards.
type SuspiciousPair struct {
	Origin      Detection `json:"origin"`
	Destination Detection `json:"destination"`

	DistanceKM  float64 `json:"distance_km"`
	TimeSeconds float64 `json:"time_seconds"`
	SpeedKMH    float64 `json:"speed_kmh"`

	// Formatted fields consumed by map and report collaborators.
	FormattedTime    string `json:"formatted_time"`
	OriginLabel      string `json:"origin_label"`
	DestinationLabel string `json:"destination_label"`
}

// PairOutcome classifies the evaluation of one consecutive pair.
type PairOutcome int

const (
	PairEvaluated PairOutcome = iota
	PairSkippedInvalidTime
	PairSkippedComputeError
)

// ScanResult is the output of one scanner run over a detection sequence.
// Skip counters and the partial flag replace the silent-discard behavior
// of earlier revisions so downstream consumers can detect reduced output.
type ScanResult struct {
	Pairs []SuspiciousPair `json:"pairs"`

	SkippedInvalidTime  int `json:"skipped_invalid_time"`
	SkippedComputeError int `json:"skipped_compute_error"`

	// Chunked-run accounting. Zero-valued for sequential runs.
	ChunksTotal   int          `json:"chunks_total,omitempty"`
	DroppedChunks int          `json:"dropped_chunks,omitempty"`
	ChunkErrors   []ChunkError `json:"-"`

	// Partial is set when at least one chunk contributed no pairs due to
	// a failure, meaning the suspicious set may be under-reported.
	Partial bool `json:"partial"`
}

// Strategy selects how a detection run scans the sequence.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyChunked    Strategy = "chunked"
	StrategyAdaptive   Strategy = "adaptive"
)

// DetectionRun summarizes one completed detection invocation for history
// queries.
type DetectionRun struct {
	ID               string        `json:"id"`
	Plate            string        `json:"plate"`
	PeriodStart      time.Time     `json:"period_start"`
	PeriodEnd        time.Time     `json:"period_end"`
	Strategy         Strategy      `json:"strategy"`
	SpeedLimitKMH    float64       `json:"speed_limit_kmh"`
	RecordsProcessed int           `json:"records_processed"`
	PairsFound       int           `json:"pairs_found"`
	Partial          bool          `json:"partial"`
	Duration         time.Duration `json:"duration_ms"`
	CreatedAt        time.Time     `json:"created_at"`
}
