package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/parser"
)

// Sheet names of the exported workbook.
const (
	SamplesSheet = "Samples"
	SummarySheet = "Summary"
)

// WriteWorkbook exports the accepted samples and, when summary is not nil,
// the summary statistics as an .xlsx workbook.
func WriteWorkbook(w io.Writer, data *parser.ProcessedData, summary *analysis.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SamplesSheet); err != nil {
		return fmt.Errorf("failed to name samples sheet: %w", err)
	}

	header := []interface{}{"Sample", "FiO2", "MAP (cmH2O)", "PaO2 (mmHg)", "OI", "Severity"}
	if err := f.SetSheetRow(SamplesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < data.Len(); i++ {
		s := data.Sample(i)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1,
			finiteOrBlank(float64(s.FiO2)), finiteOrBlank(float64(s.MAP)),
			finiteOrBlank(float64(s.PaO2)), finiteOrBlank(float64(s.OI)),
			analysis.ClassifyOI(float64(s.OI)).String(),
		}
		if err := f.SetSheetRow(SamplesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i+1, err)
		}
	}

	if summary != nil {
		if _, err := f.NewSheet(SummarySheet); err != nil {
			return fmt.Errorf("failed to add summary sheet: %w", err)
		}
		rows := [][]interface{}{
			{"Series", "Count", "Min", "Max", "Mean", "Std Dev", "Median"},
		}
		for _, name := range analysis.SeriesNames {
			st := summary.Series[name]
			rows = append(rows, []interface{}{
				seriesLabels[name], st.Count,
				finiteOrBlank(st.Min), finiteOrBlank(st.Max), finiteOrBlank(st.Mean),
				finiteOrBlank(st.StdDev), finiteOrBlank(st.Median),
			})
		}
		rows = append(rows, []interface{}{}, []interface{}{"Band", "Samples"})
		for _, sev := range analysis.Severities {
			rows = append(rows, []interface{}{sev.String(), summary.SeverityCounts[sev.String()]})
		}
		rows = append(rows, []interface{}{}, []interface{}{"OI discrepancies", len(summary.Discrepancies)})

		for i := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
				return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// finiteOrBlank keeps NaN and Inf out of spreadsheet cells.
func finiteOrBlank(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}
