package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const utf8BOM = "\uFEFF"

// FormatDisplayText renders the hover text shown by the chart for one sample.
// The caller renders it as HTML.
func FormatDisplayText(s ParsedSample) string {
	return fmt.Sprintf("FiO₂: %.2f<br>MAP: %.1f cmH₂O<br>PaO₂: %.1f mmHg<br>OI: %.1f",
		s.FiO2, s.MAP, s.PaO2, s.OI)
}

// ProcessCSV parses CSV text with the default column layout.
// Rows that cannot be tokenized, have too few fields or hold a non-numeric
// value are dropped; ProcessCSV never fails.
func ProcessCSV(text string) *ProcessedData {
	return ProcessCSVWithColumns(text, DefaultColumnMap())
}

// ProcessCSVWithColumns is ProcessCSV with an explicit column layout.
func ProcessCSVWithColumns(text string, cols ColumnMap) *ProcessedData {
	return ProcessReader(strings.NewReader(strings.TrimPrefix(text, utf8BOM)), cols)
}

// ProcessReader reads CSV records from r until EOF. A read error from r
// itself stops consumption; the rows accepted so far are returned.
func ProcessReader(r io.Reader, cols ColumnMap) *ProcessedData {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may be short or carry extra columns
	reader.ReuseRecord = true

	data := newProcessedData()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue // malformed row, the reader has already moved past it
			}
			break
		}
		if sample, ok := parseSample(row, cols); ok {
			data.add(sample)
		}
	}
	return data
}

// ParseFile opens a CSV file and processes it. Only failing to open the
// file is reported; row problems are dropped as in ProcessCSV.
func ParseFile(path string, cols ColumnMap) (*ProcessedData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	return ProcessReader(br, cols), nil
}

// parseSample extracts the four mapped columns of row. All four must be
// present and numeric, otherwise ok is false.
func parseSample(row []string, cols ColumnMap) (ParsedSample, bool) {
	var vals [NumColumns]float32
	for i, idx := range cols.indices() {
		if idx < 0 || idx >= len(row) {
			return ParsedSample{}, false
		}
		v, ok := parseFloat32(row[idx])
		if !ok {
			return ParsedSample{}, false
		}
		vals[i] = v
	}
	return ParsedSample{FiO2: vals[0], MAP: vals[1], PaO2: vals[2], OI: vals[3]}, true
}

// parseFloat32 accepts plain decimal notation only: optional sign, digits,
// decimal point and exponent. Hex floats and digit separators are refused
// even though strconv understands them.
func parseFloat32(s string) (float32, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 32)
	// out of range values saturate to ±Inf instead of dropping the row
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return float32(v), true
}
