package report

import (
	"bytes"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/user/oi_visualizer_go/internal/analysis"
	"github.com/user/oi_visualizer_go/internal/parser"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

const sampleCSV = `0.21,8,95,1.8
0.40,12,70,6.9
0.60,18,65,16.6
0.80,22,55,32.0
1.00,25,48,52.1
0.55,15,80,10.3
`

func sampleData(t *testing.T) *parser.ProcessedData {
	t.Helper()
	d := parser.ProcessCSV(sampleCSV)
	require.Equal(t, 6, d.Len())
	return d
}

func TestSeverityColormap(t *testing.T) {
	cm := NewSeverityColormap()
	tests := []struct {
		oi   float64
		want color.Color
	}{
		{-1, cm.UnderColor},
		{0, cm.Colors[0]},
		{4, cm.Colors[1]},
		{8, cm.Colors[2]},
		{15.99, cm.Colors[2]},
		{16, cm.OverColor},
		{math.NaN(), cm.NaNColor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cm.Color(tt.oi), "oi=%v", tt.oi)
	}
}

func TestCreateSeriesPlot(t *testing.T) {
	d := sampleData(t)
	for _, series := range analysis.SeriesNames {
		img, err := CreateSeriesPlot(d, series)
		require.NoError(t, err, series)
		assert.True(t, bytes.HasPrefix(img, pngMagic), series)
	}

	_, err := CreateSeriesPlot(d, "ph")
	assert.Error(t, err)
	_, err = CreateSeriesPlot(parser.ProcessCSV(""), analysis.SeriesOI)
	assert.Error(t, err)
}

func TestCreateOIScatterPlot(t *testing.T) {
	img, err := CreateOIScatterPlot(sampleData(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	// a single PaO2 value still gets a usable x range
	img, err = CreateOIScatterPlot(parser.ProcessCSV("0.5,10,60,8.3\n"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestDomeGrid(t *testing.T) {
	points := []analysis.DomePoint{
		{X: -1.9, Y: -1.9, Z: 2},
		{X: -1.8, Y: -1.7, Z: 4},
		{X: 1.9, Y: 1.9, Z: 20},
		{X: 2, Y: 2, Z: 10}, // on the outer edge, clamped into the last cell
		{X: 0, Y: 0, Z: math.NaN()},
		{X: math.NaN(), Y: math.NaN(), Z: 50}, // unplaceable sample
	}
	g := newDomeGrid(points, 4)

	c, r := g.Dims()
	assert.Equal(t, 4, c)
	assert.Equal(t, 4, r)
	assert.InDelta(t, 3, g.Z(0, 0), 1e-12)
	assert.InDelta(t, 15, g.Z(3, 3), 1e-12)
	assert.True(t, math.IsNaN(g.Z(2, 2)))
	assert.InDelta(t, -1.5, g.X(0), 1e-12)
	assert.InDelta(t, 1.5, g.Y(3), 1e-12)
}

func TestCreateDomeHeatmap(t *testing.T) {
	points := analysis.DomeProjection(sampleData(t))
	img, err := CreateDomeHeatmap(points, 12)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	_, err = CreateDomeHeatmap(nil, 12)
	assert.Error(t, err)
	_, err = CreateDomeHeatmap(points, 1)
	assert.Error(t, err)
}

func TestBuildPDFReport(t *testing.T) {
	d := sampleData(t)
	summary, err := analysis.Summarize(d, 0.5, 5)
	require.NoError(t, err)

	images, errs := RenderPlots(d, 10)
	require.Empty(t, errs)
	assert.Len(t, images, 4)

	var buf bytes.Buffer
	require.NoError(t, BuildPDFReport(&buf, d, summary, images))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	// missing plots are reported in the document instead of failing
	buf.Reset()
	require.NoError(t, BuildPDFReport(&buf, d, summary, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestBuildPDFReport_NoSamples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BuildPDFReport(&buf, parser.ProcessCSV(""), nil, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestBuildPDFReportFile(t *testing.T) {
	d := sampleData(t)
	summary, err := analysis.Summarize(d, 0.5, 5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, BuildPDFReportFile(path, d, summary, nil))
	assert.FileExists(t, path)

	assert.Error(t, BuildPDFReportFile(filepath.Join(t.TempDir(), "missing", "report.pdf"), d, summary, nil))
}

func TestWriteWorkbook(t *testing.T) {
	d := sampleData(t)
	summary, err := analysis.Summarize(d, 0.5, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, d, summary))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SamplesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Sample", "FiO2", "MAP (cmH2O)", "PaO2 (mmHg)", "OI", "Severity"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "None", rows[1][5])
	assert.Equal(t, "Severe", rows[5][5])

	summaryRows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, "Series", summaryRows[0][0])
	assert.Equal(t, "FiO2", summaryRows[1][0])
}

func TestWriteWorkbook_NonFiniteSamples(t *testing.T) {
	d := parser.ProcessCSV("0.5,20,50,1e50\n0.5,20,nan,20\n")
	require.Equal(t, 2, d.Len())
	summary, err := analysis.Summarize(d, 1, 10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, d, summary))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	cells := map[string]string{
		"B2": "0.5", "C2": "20", "D2": "50", "E2": "",
		"B3": "0.5", "C3": "20", "D3": "", "E3": "20",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(SamplesSheet, cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestWriteWorkbook_WithoutSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, parser.ProcessCSV(""), nil))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SamplesSheet}, f.GetSheetList())
}
