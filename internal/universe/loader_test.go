package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCSV(t, `Symbol,Name,High,Low,Last
AAPL,Apple Inc,185.10,180.20,184.00
MSFT,Microsoft,410.00,402.50,409.10
`)

	rows, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.InDelta(t, 185.10, rows[0].High, 1e-9)
	assert.InDelta(t, 4.90, rows[0].WeeklyRange(), 1e-9)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `Symbol,High,Low,Last
AAPL,185.10,180.20,184.00
,190.00,185.00,188.00
NVDA,not-a-number,700.00,720.00
AMD,"1,820.00","1,790.50","1,815.00"
`)

	rows, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, "AMD", rows[1].Symbol)
	assert.InDelta(t, 1820.00, rows[1].High, 1e-9)
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeCSV(t, `Symbol,High,Low
AAPL,185.10,180.20
`)

	_, err := Load(path, zerolog.Nop())
	assert.ErrorContains(t, err, `missing column "last"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), zerolog.Nop())
	assert.Error(t, err)
}
