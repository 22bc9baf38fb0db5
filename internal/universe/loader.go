// Package universe loads the ticker universe used by batch screens from
// a CSV export (Symbol, High, Low, Last columns; extra columns ignored).
package universe

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"pricemovers/internal/domain"
)

// Load reads universe rows from the CSV at path. Column order is taken
// from the header. Rows with a missing symbol or unparseable numbers are
// skipped with a warning rather than failing the whole load.
func Load(path string, log zerolog.Logger) ([]domain.UniverseRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open universe file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // exports pad trailing columns inconsistently

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("universe file %s has no data rows", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "high", "low", "last"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("universe file %s missing column %q", path, required)
		}
	}

	log = log.With().Str("component", "universe").Logger()

	rows := make([]domain.UniverseRow, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		row, err := parseRow(record, cols)
		if err != nil {
			log.Warn().Err(err).Int("line", lineNo+2).Msg("Skipping universe row")
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("universe file %s produced no usable rows", path)
	}

	return rows, nil
}

func parseRow(record []string, cols map[string]int) (domain.UniverseRow, error) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	symbol := strings.ToUpper(field("symbol"))
	if symbol == "" {
		return domain.UniverseRow{}, fmt.Errorf("empty symbol")
	}

	num := func(name string) (float64, error) {
		raw := field(name)
		// Exports quote prices with thousands separators
		raw = strings.ReplaceAll(raw, ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s value %q: %w", name, raw, err)
		}
		return v, nil
	}

	high, err := num("high")
	if err != nil {
		return domain.UniverseRow{}, err
	}
	low, err := num("low")
	if err != nil {
		return domain.UniverseRow{}, err
	}
	last, err := num("last")
	if err != nil {
		return domain.UniverseRow{}, err
	}

	return domain.UniverseRow{Symbol: symbol, High: high, Low: low, Last: last}, nil
}
