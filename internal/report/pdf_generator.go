package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/parser"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Plot keys understood by BuildPDFReport.
const (
	PlotOISeries  = "line_oi"
	PlotPaO2      = "line_pao2"
	PlotOIScatter = "scatter_oi_pao2"
	PlotDome      = "heatmap_dome"
)

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // manually tracked Y position for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(max(len(lines), 1)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// writeTable draws a bordered table. Columns listed in redCols use the
// highlight style.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]string, redCols map[int]bool) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	drawHeader := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, header := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, header, "1", 0, "C", true, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(s.lineHeight * 2)
	drawHeader()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			drawHeader()
		}
		sX := pdfMargin
		for i, cell := range row {
			if redCols[i] {
				s.applyStyle("tableCellRed")
			} else {
				s.applyStyle("tableCell")
			}
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width, height float64, caption string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

func formatStat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// BuildPDFReport writes the oxygenation report to w. images maps the Plot*
// keys to PNG bytes; missing plots are noted in the report.
func BuildPDFReport(w io.Writer, data *parser.ProcessedData, summary *analysis.Summary, images map[string][]byte) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph(fmt.Sprintf("Oxygenation Index Report (%d Samples)", data.Len()), "h1", "C")
	styler.addSpacer(5)

	if summary == nil || data.Len() == 0 {
		styler.writeParagraph("No valid samples to display.", "normal", "L")
		return output(pdf, w)
	}

	styler.writeParagraph("Summary Statistics", "h2", "L")
	statRows := make([][]string, 0, len(analysis.SeriesNames))
	for _, name := range analysis.SeriesNames {
		st := summary.Series[name]
		statRows = append(statRows, []string{
			seriesLabels[name],
			strconv.Itoa(st.Count),
			formatStat(st.Min, 2),
			formatStat(st.Max, 2),
			formatStat(st.Mean, 2),
			formatStat(st.StdDev, 2),
			formatStat(st.Median, 2),
		})
	}
	styler.writeTable(
		[]string{"Series", "Count", "Min", "Max", "Mean", "Std Dev", "Median"},
		[]float64{0.25, 0.1, 0.13, 0.13, 0.13, 0.13, 0.13},
		statRows, nil)
	styler.addSpacer(5)

	styler.writeParagraph("Severity Distribution", "h2", "L")
	sevRows := make([][]string, 0, len(analysis.Severities))
	for _, sev := range analysis.Severities {
		n := summary.SeverityCounts[sev.String()]
		sevRows = append(sevRows, []string{
			sev.String(),
			strconv.Itoa(n),
			fmt.Sprintf("%.1f%%", 100*float64(n)/float64(summary.NumSamples)),
		})
	}
	styler.writeTable([]string{"Band", "Samples", "Share"}, []float64{0.4, 0.3, 0.3}, sevRows, nil)
	styler.addSpacer(5)

	styler.writeParagraph(fmt.Sprintf("OI Discrepancies (reported vs FiO2*MAP*100/PaO2, tolerance %.1f)", summary.Tolerance), "h2", "L")
	if len(summary.Discrepancies) > 0 {
		rows := make([][]string, 0, len(summary.Discrepancies))
		for _, d := range summary.Discrepancies {
			rows = append(rows, []string{
				strconv.Itoa(d.Row + 1),
				formatStat(d.ReportedOI, 2),
				formatStat(d.ComputedOI, 2),
				formatStat(d.Difference, 2),
			})
		}
		styler.writeTable(
			[]string{"Sample", "Reported OI", "Computed OI", "Difference"},
			[]float64{0.16, 0.28, 0.28, 0.28},
			rows, map[int]bool{3: true})
	} else {
		styler.writeParagraph("Every reported OI matches its inputs within tolerance.", "normal", "L")
	}

	styler.newPage()
	styler.writeParagraph(fmt.Sprintf("Top %d Samples by Oxygenation Index", len(summary.RankedByOI)), "h2", "L")
	if len(summary.RankedByOI) > 0 {
		rows := make([][]string, 0, len(summary.RankedByOI))
		for i, r := range summary.RankedByOI {
			s := data.Sample(r.Row)
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(r.Row + 1),
				formatStat(float64(s.FiO2), 2),
				formatStat(float64(s.MAP), 1),
				formatStat(float64(s.PaO2), 1),
				formatStat(r.OI, 1),
				r.Severity.String(),
			})
		}
		styler.writeTable(
			[]string{"Rank", "Sample", "FiO2", "MAP (cmH2O)", "PaO2 (mmHg)", "OI", "Severity"},
			[]float64{0.08, 0.1, 0.14, 0.17, 0.17, 0.14, 0.2},
			rows, map[int]bool{5: true})
	} else {
		styler.writeParagraph("No finite OI values to rank.", "normal", "L")
	}

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
		Aspect  float64
	}{
		{PlotOISeries, "Oxygenation Index by Sample", "OI per accepted sample with severity thresholds", 0.5},
		{PlotPaO2, "PaO2 by Sample", "PaO2 (mmHg) per accepted sample", 0.5},
		{PlotOIScatter, "OI vs PaO2", "Samples coloured by severity band", 0.625},
		{PlotDome, "Oxygenation Index Dome", "Mean OI over the polar FiO2 / PaO2 projection", 1},
	}

	for _, pDef := range plotDefs {
		styler.newPage()
		styler.writeParagraph(pDef.Title, "h2", "L")
		imgBytes, ok := images[pDef.Key]
		if !ok || len(imgBytes) == 0 {
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", pDef.Title), "normal", "L")
			continue
		}
		height := math.Min(pdfContentWidth*0.8*pDef.Aspect, styler.pageHeight-styler.currentY-2*styler.lineHeight)
		width := height / pDef.Aspect
		styler.addImage(imgBytes, pDef.Key, width, height, pDef.Caption)
	}

	return output(pdf, w)
}

// BuildPDFReportFile writes the report to a file at path.
func BuildPDFReportFile(path string, data *parser.ProcessedData, summary *analysis.Summary, images map[string][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF file: %w", err)
	}
	if err := BuildPDFReport(f, data, summary, images); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func output(pdf *gofpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

// RenderPlots generates every plot used by the PDF report. Plots that fail
// are left out and their errors returned alongside.
func RenderPlots(data *parser.ProcessedData, domeBins int) (map[string][]byte, []error) {
	images := make(map[string][]byte)
	var errs []error

	add := func(key string, img []byte, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("plot %s: %w", key, err))
			return
		}
		images[key] = img
	}

	img, err := CreateSeriesPlot(data, analysis.SeriesOI)
	add(PlotOISeries, img, err)
	img, err = CreateSeriesPlot(data, analysis.SeriesPaO2)
	add(PlotPaO2, img, err)
	img, err = CreateOIScatterPlot(data)
	add(PlotOIScatter, img, err)
	img, err = CreateDomeHeatmap(analysis.DomeProjection(data), domeBins)
	add(PlotDome, img, err)

	return images, errs
}
