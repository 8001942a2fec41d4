package detection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/civitas/backend/internal/domain"
)

// timestampLayouts lists the formats accepted for the timestamp column,
// tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"02/01/2006 15:04:05",
}

// Preprocess turns a validated raw table into an ordered detection
// sequence. Rows with unparseable timestamps or coordinates are silently
// dropped (best-effort on dirty data), text fields are trimmed, the
// optional speed field is coerced with unparseable values left absent, and
// duplicates sharing identical (timestamp, latitude, longitude) are
// removed keeping the first occurrence. The returned sequence is sorted
// ascending by timestamp; both scanners rely on that invariant.
func Preprocess(t domain.RawTable) ([]domain.Detection, error) {
	if len(t.Rows) == 0 {
		return nil, domain.ErrEmptyInput
	}

	var (
		tsIdx     = t.ColumnIndex(domain.ColumnTimestamp)
		latIdx    = t.ColumnIndex(domain.ColumnLatitude)
		lonIdx    = t.ColumnIndex(domain.ColumnLongitude)
		streetIdx = t.ColumnIndex(domain.ColumnStreet)
		equipIdx  = t.ColumnIndex(domain.ColumnEquipmentCode)
		speedIdx  = t.ColumnIndex(domain.ColumnSpeed)
		hoodIdx   = t.ColumnIndex(domain.ColumnNeighborhood)
		localIdx  = t.ColumnIndex(domain.ColumnLocality)
	)

	detections := make([]domain.Detection, 0, len(t.Rows))
	for _, row := range t.Rows {
		ts, ok := parseTimestamp(cell(row, tsIdx))
		if !ok {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(cell(row, latIdx)), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(cell(row, lonIdx)), 64)
		if err != nil {
			continue
		}

		d := domain.Detection{
			Timestamp:     ts,
			EquipmentCode: strings.TrimSpace(cell(row, equipIdx)),
			Latitude:      lat,
			Longitude:     lon,
			Street:        strings.TrimSpace(cell(row, streetIdx)),
			Neighborhood:  strings.TrimSpace(cell(row, hoodIdx)),
			Locality:      strings.TrimSpace(cell(row, localIdx)),
		}
		if raw := strings.TrimSpace(cell(row, speedIdx)); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				d.Speed = &v
			}
		}
		d.StreetLabel = fmt.Sprintf("%s (%s)", d.Street, d.EquipmentCode)
		d.LocationLabel = fmt.Sprintf("%s (%s)", d.Locality, d.EquipmentCode)

		detections = append(detections, d)
	}

	if len(detections) == 0 {
		return nil, domain.ErrEmptyInput
	}

	// Stable sort before dedup so "keep first occurrence" is well defined
	// for rows sharing a timestamp.
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Timestamp.Before(detections[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(detections))
	deduped := detections[:0]
	for _, d := range detections {
		key := dedupKey(d.Timestamp, d.Latitude, d.Longitude)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, d)
	}

	return deduped, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func dedupKey(ts time.Time, lat, lon float64) string {
	return fmt.Sprintf("%d_%s_%s",
		ts.UnixNano(),
		strconv.FormatFloat(lat, 'g', -1, 64),
		strconv.FormatFloat(lon, 'g', -1, 64),
	)
}
