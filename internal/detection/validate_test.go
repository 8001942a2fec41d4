package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitas/backend/internal/domain"
)

func TestValidateTable(t *testing.T) {
	t.Run("accepts table with all required columns", func(t *testing.T) {
		table := domain.RawTable{Columns: []string{
			"timestamp", "latitude", "longitude", "street", "equipment_code", "speed",
		}}
		assert.NoError(t, ValidateTable(table))
	})

	t.Run("lists every missing column, not just the first", func(t *testing.T) {
		table := domain.RawTable{Columns: []string{"timestamp", "street"}}

		err := ValidateTable(table)
		require.Error(t, err)

		var missing *domain.MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"latitude", "longitude", "equipment_code"}, missing.Columns)
		assert.Contains(t, err.Error(), "latitude, longitude, equipment_code")
	})

	t.Run("rejects empty column set", func(t *testing.T) {
		err := ValidateTable(domain.RawTable{})
		var missing *domain.MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Columns, len(domain.RequiredColumns))
	})
}
