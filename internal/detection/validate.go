package detection

import (
	"github.com/civitas/backend/internal/domain"
)

// ValidateTable verifies that a raw table exposes every mandatory column.
// It returns a MissingColumnsError listing all absent columns, not just
// the first, so callers can surface the complete list at once.
func ValidateTable(t domain.RawTable) error {
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingColumnsError{Columns: missing}
	}
	return nil
}
