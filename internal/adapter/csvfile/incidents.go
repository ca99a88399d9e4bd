// Package csvfile loads roadkill removal logs from CSV exports.
//
// The expedition logs ship with a couple of title rows above the real
// header, so the loader skips a configurable number of leading rows and
// then maps columns by header name rather than position.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/wildpath/roadkill-map/internal/domain"
)

// Column headers expected in the incident CSV.
const (
	colRouteName    = "道路名"
	colOfficialName = "正式名称"
	colSection      = "区間"
	colDirection    = "上下"
	colMonth        = "月"
	colHour         = "時"
	colWeekday      = "曜"
	colWeather      = "排除時天候"
	colSpecies      = "小分類"
	colLengthKm     = "区間長_km"
)

// Loader reads incident records from a CSV file.
type Loader struct {
	path     string
	skipRows int
	logger   *slog.Logger
}

// NewLoader creates a loader for the incident CSV at path, skipping
// skipRows leading rows before the header row.
func NewLoader(path string, skipRows int, logger *slog.Logger) *Loader {
	return &Loader{
		path:     path,
		skipRows: skipRows,
		logger:   logger,
	}
}

// Load parses the CSV and returns the usable incident records. Rows
// missing a route name or section, or with unparsable month/hour values,
// are dropped and counted in the log rather than failing the whole file.
func (l *Loader) Load() ([]domain.IncidentRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open incident csv: %w", err)
	}
	defer f.Close()

	records, dropped, err := parse(f, l.skipRows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}
	if dropped > 0 {
		l.logger.Warn("dropped unusable incident rows", "path", l.path, "dropped", dropped)
	}
	l.logger.Info("loaded incident records", "path", l.path, "count", len(records))
	return records, nil
}

func parse(r io.Reader, skipRows int) ([]domain.IncidentRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // title rows are ragged

	for i := 0; i < skipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, 0, fmt.Errorf("skip row %d: %w", i+1, err)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		records []domain.IncidentRecord
		dropped int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		rec, ok := parseRow(row, cols)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	return records, dropped, nil
}

// columnIndex maps required header names to their position. A value of -1
// marks an optional column that is absent from the file.
type columnIndex map[string]int

var requiredColumns = []string{colRouteName, colSection, colMonth, colHour, colWeekday, colWeather, colSpecies}

var optionalColumns = []string{colOfficialName, colDirection, colLengthKm}

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex)
	for _, name := range optionalColumns {
		cols[name] = -1
	}
	for i, name := range header {
		cols[stripBOM(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if idx, ok := cols[name]; !ok || idx < 0 {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex) (domain.IncidentRecord, bool) {
	field := func(name string) string {
		idx := cols[name]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := domain.IncidentRecord{
		RouteName:    field(colRouteName),
		OfficialName: field(colOfficialName),
		Section:      field(colSection),
		Direction:    field(colDirection),
		Weekday:      field(colWeekday),
		Weather:      field(colWeather),
		Species:      field(colSpecies),
	}
	if rec.RouteName == "" || rec.Section == "" {
		return domain.IncidentRecord{}, false
	}

	month, err := strconv.Atoi(field(colMonth))
	if err != nil || month < 1 || month > 12 {
		return domain.IncidentRecord{}, false
	}
	rec.Month = month

	hour, err := strconv.Atoi(field(colHour))
	if err != nil || hour < 0 || hour > 23 {
		return domain.IncidentRecord{}, false
	}
	rec.Hour = hour

	// Section length is informational; an unparsable value degrades to 0
	// rather than dropping the row.
	if s := field(colLengthKm); s != "" {
		if length, err := strconv.ParseFloat(s, 64); err == nil && length > 0 {
			rec.LengthKm = length
		}
	}

	return rec, true
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
