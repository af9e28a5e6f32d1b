package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/orelens/internal/analytics"
)

// DefaultDateColumn is the header of the date column in the production sheet
const DefaultDateColumn = "Date"

// dateLayouts are tried in order; month-first wins for ambiguous slashes
var dateLayouts = []string{
	analytics.DateLayout,
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 15:04:05",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseReport counts what the parser had to repair or drop
type ParseReport struct {
	Rows         int // Rows kept
	DroppedRows  int // Rows whose date did not parse
	MissingCells int // Empty cells read as 0
	InvalidCells int // Non-numeric cells read as 0
}

// Repaired reports whether any cell or row was dropped or replaced
func (r ParseReport) Repaired() bool {
	return r.DroppedRows+r.MissingCells+r.InvalidCells > 0
}

// ParseDate parses a date label in any supported layout
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseCSV reads a sheet whose header names one date column and any number of
// entity columns. Rows with an unparseable date are dropped; dates are
// normalized to YYYY-MM-DD. Empty or non-numeric cells become 0.
func ParseCSV(r io.Reader, dateColumn string) (*analytics.Frame, ParseReport, error) {
	var report ParseReport
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, fmt.Errorf("%w: empty sheet", ErrMalformed)
	}
	if err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	dateIdx := -1
	var columns []int
	var names []string
	used := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		}
		if name == strings.TrimSpace(dateColumn) && dateIdx < 0 {
			dateIdx = i
			continue
		}
		if name == "" {
			continue
		}
		// Repeated headers get a numeric suffix: Mine, Mine.1, ...
		if n, seen := used[name]; seen {
			used[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			used[name] = 0
		}
		columns = append(columns, i)
		names = append(names, name)
	}
	if dateIdx < 0 {
		return nil, report, fmt.Errorf("%w: %s column missing in sheet", ErrMalformed, dateColumn)
	}

	frame := &analytics.Frame{
		Dates: []string{},
		Mines: make(analytics.Dataset, len(columns)),
	}
	for j, name := range names {
		frame.Mines[j] = analytics.NamedSeries{Name: name, Values: analytics.Series{}}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		if dateIdx >= len(record) {
			report.DroppedRows++
			continue
		}
		date, err := ParseDate(record[dateIdx])
		if err != nil {
			report.DroppedRows++
			continue
		}

		frame.Dates = append(frame.Dates, date.Format(analytics.DateLayout))
		for j, col := range columns {
			var cell string
			if col < len(record) {
				cell = record[col]
			}
			frame.Mines[j].Values = append(frame.Mines[j].Values, parseCell(cell, &report))
		}
		report.Rows++
	}

	return frame, report, nil
}

func parseCell(cell string, report *ParseReport) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		report.MissingCells++
		return 0
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		report.InvalidCells++
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		report.MissingCells++
		return 0
	}
	return v
}
