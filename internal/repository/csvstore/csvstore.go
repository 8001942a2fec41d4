package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/civitas/backend/internal/domain"
)

// columnAliases normalizes source header names to the canonical detection
// columns. CSV exports arrive from several radar vendors with divergent
// headers.
var columnAliases = map[string]string{
	"data_hora":          domain.ColumnTimestamp,
	"datahora":           domain.ColumnTimestamp,
	"datetime":           domain.ColumnTimestamp,
	"lat":                domain.ColumnLatitude,
	"lon":                domain.ColumnLongitude,
	"lng":                domain.ColumnLongitude,
	"velocidade":         domain.ColumnSpeed,
	"logradouro":         domain.ColumnStreet,
	"bairro":             domain.ColumnNeighborhood,
	"localidade":         domain.ColumnLocality,
	"codcet":             domain.ColumnEquipmentCode,
	"codigo_equipamento": domain.ColumnEquipmentCode,
}

// CSVRepository implements domain.DetectionRepository over a directory of
// per-plate CSV exports ({dir}/{plate}.csv).
type CSVRepository struct {
	dataDir string
}

// NewCSVRepository creates a repository rooted at dataDir.
func NewCSVRepository(dataDir string) *CSVRepository {
	return &CSVRepository{dataDir: dataDir}
}

// FindByPlateAndPeriod loads the plate's CSV file, normalizes its headers
// and filters rows to the requested window. Rows whose timestamp does not
// parse are excluded by the filter, matching the warehouse query behavior.
func (r *CSVRepository) FindByPlateAndPeriod(ctx context.Context, plate string, from, to time.Time) (domain.RawTable, error) {
	path := filepath.Join(r.dataDir, plate+".csv")

	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("csvstore: failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // vendor exports are ragged

	records, err := reader.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("csvstore: failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return domain.RawTable{}, nil
	}

	table := domain.RawTable{Columns: normalizeColumns(records[0])}
	tsIdx := table.ColumnIndex(domain.ColumnTimestamp)

	for _, row := range records[1:] {
		if tsIdx >= 0 && tsIdx < len(row) {
			ts, ok := parseCSVTimestamp(row[tsIdx])
			if !ok || ts.Before(from) || ts.After(to) {
				continue
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// SaveDetectionRun is not supported by the CSV source; runs are only
// persisted when a warehouse is configured.
func (r *CSVRepository) SaveDetectionRun(ctx context.Context, run domain.DetectionRun) error {
	log.Printf("csvstore: skipping run persistence for plate %s (read-only source)", run.Plate)
	return nil
}

// GetDetectionRuns returns no history; the CSV source is read-only.
func (r *CSVRepository) GetDetectionRuns(ctx context.Context, from, to time.Time) ([]domain.DetectionRun, error) {
	return nil, nil
}

// Health checks that the data directory exists.
func (r *CSVRepository) Health(ctx context.Context) error {
	info, err := os.Stat(r.dataDir)
	if err != nil {
		return fmt.Errorf("csvstore: health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("csvstore: %s is not a directory", r.dataDir)
	}
	return nil
}

func normalizeColumns(header []string) []string {
	columns := make([]string, len(header))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		columns[i] = name
	}
	return columns
}

var csvTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

func parseCSVTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvTimestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
