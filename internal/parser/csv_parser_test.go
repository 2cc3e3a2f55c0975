package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertEqualLengths(t *testing.T, d *ProcessedData, want int) {
	t.Helper()
	assert.Len(t, d.FiO2(), want)
	assert.Len(t, d.MAP(), want)
	assert.Len(t, d.PaO2(), want)
	assert.Len(t, d.OI(), want)
	assert.Len(t, d.Texts(), want)
	assert.Equal(t, want, d.Len())
}

func TestProcessCSV_RowAcceptance(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty input", input: "", want: 0},
		{name: "blank lines only", input: "\n\n\n", want: 0},
		{name: "single row", input: "0.6,25.3,88.7,4.2", want: 1},
		{name: "trailing newline", input: "0.6,25.3,88.7,4.2\n0.5,20,90,3\n", want: 2},
		{name: "crlf line endings", input: "0.6,25.3,88.7,4.2\r\n0.5,20,90,3\r\n", want: 2},
		{name: "textual header is dropped", input: "fio2,map,pao2,oi\n0.6,25.3,88.7,4.2\n", want: 1},
		{name: "short row dropped", input: "0.6,25.3,88.7\n0.5,20,90,3\n", want: 1},
		{name: "extra columns ignored", input: "0.6,25.3,88.7,4.2,extra,7\n", want: 1},
		{name: "non numeric third field", input: "0.6,25.3,abc,4.2\n0.5,20,90,3\n", want: 1},
		{name: "empty field", input: "0.6,,88.7,4.2\n", want: 0},
		{name: "quoted numeric fields", input: `"0.6","25.3","88.7","4.2"` + "\n", want: 1},
		{name: "quoted field with comma", input: "0.5,\"25,3\",90.0,3.0\n0.5,25.3,90.0,3.0\n", want: 1},
		{name: "bare quote row dropped", input: "0.5,2\"5,90,3\n0.5,25,90,3\n", want: 1},
		{name: "leading whitespace rejected", input: "0.6, 25.3,88.7,4.2\n", want: 0},
		{name: "thousands separator rejected", input: "0.6,25.3,\"1,088.7\",4.2\n", want: 0},
		{name: "hex float rejected", input: "0x1p-1,25.3,88.7,4.2\n", want: 0},
		{name: "underscore rejected", input: "0.6,2_5,88.7,4.2\n", want: 0},
		{name: "sign and exponent accepted", input: "+6e-1,-25.3,8.87E1,.5\n", want: 1},
		{name: "utf8 bom ignored", input: "\uFEFF0.6,25.3,88.7,4.2\n", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ProcessCSV(tt.input)
			require.NotNil(t, d)
			assertEqualLengths(t, d, tt.want)
		})
	}
}

func TestProcessCSV_RoundTripAndText(t *testing.T) {
	d := ProcessCSV("0.6,25.3,88.7,4.2\n")
	require.Equal(t, 1, d.Len())

	assert.InDelta(t, 0.6, d.FiO2()[0], 1e-6)
	assert.InDelta(t, 25.3, d.MAP()[0], 1e-5)
	assert.InDelta(t, 88.7, d.PaO2()[0], 1e-5)
	assert.InDelta(t, 4.2, d.OI()[0], 1e-6)
	assert.Equal(t, "FiO₂: 0.60<br>MAP: 25.3 cmH₂O<br>PaO₂: 88.7 mmHg<br>OI: 4.2", d.Texts()[0])
}

func TestProcessCSV_DroppedRowLeavesNoTrace(t *testing.T) {
	d := ProcessCSV("0.4,10,70,5.7\n0.9,99,abc,77\n0.8,30,60,40\n")
	require.Equal(t, 2, d.Len())

	assert.Equal(t, []float32{0.4, 0.8}, d.FiO2())
	assert.Equal(t, []float32{10, 30}, d.MAP())
	assert.Equal(t, []float32{70, 60}, d.PaO2())
	assert.Equal(t, []float32{5.7, 40}, d.OI())
	assert.NotContains(t, d.Texts()[0]+d.Texts()[1], "99")
}

func TestProcessCSV_EmbeddedNewlineInQuotes(t *testing.T) {
	d := ProcessCSV("0.6,\"25.3\n\",88.7,4.2\n0.5,20,90,3\n")
	assertEqualLengths(t, d, 1)
	assert.Equal(t, []float32{0.5}, d.FiO2())
}

func TestProcessCSV_Deterministic(t *testing.T) {
	input := "0.4,10,70,5.7\nbad\n0.8,30,60,40\n0.21,5,100,1.05\n"
	a := ProcessCSV(input)
	b := ProcessCSV(input)

	assert.Equal(t, a.FiO2(), b.FiO2())
	assert.Equal(t, a.MAP(), b.MAP())
	assert.Equal(t, a.PaO2(), b.PaO2())
	assert.Equal(t, a.OI(), b.OI())
	assert.Equal(t, a.Texts(), b.Texts())
}

func TestProcessedData_AccessorsReturnCopies(t *testing.T) {
	d := ProcessCSV("0.6,25.3,88.7,4.2\n")

	fio2 := d.FiO2()
	fio2[0] = 42
	texts := d.Texts()
	texts[0] = "changed"
	oi := d.OI()
	oi[0] = -1

	assert.InDelta(t, 0.6, d.FiO2()[0], 1e-6)
	assert.InDelta(t, 4.2, d.OI()[0], 1e-6)
	assert.Equal(t, "FiO₂: 0.60<br>MAP: 25.3 cmH₂O<br>PaO₂: 88.7 mmHg<br>OI: 4.2", d.Texts()[0])
}

func TestProcessedData_NilIsEmpty(t *testing.T) {
	var d *ProcessedData
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.FiO2())
	assert.Empty(t, d.MAP())
	assert.Empty(t, d.PaO2())
	assert.Empty(t, d.OI())
	assert.Empty(t, d.Texts())
}

func TestProcessCSV_NonFiniteDisplayText(t *testing.T) {
	d := ProcessCSV("0.5,20,50,1e50\n0.5,20,nan,-1e50\n")
	require.Equal(t, 2, d.Len())
	assert.Equal(t, []string{
		"FiO₂: 0.50<br>MAP: 20.0 cmH₂O<br>PaO₂: 50.0 mmHg<br>OI: +Inf",
		"FiO₂: 0.50<br>MAP: 20.0 cmH₂O<br>PaO₂: NaN mmHg<br>OI: -Inf",
	}, d.Texts())
}

func TestDefaultColumnMap_ReturnsFreshValue(t *testing.T) {
	cols := DefaultColumnMap()
	cols.FiO2, cols.OI = 3, 0

	assert.Equal(t, ColumnMap{FiO2: 0, MAP: 1, PaO2: 2, OI: 3}, DefaultColumnMap())
	d := ProcessCSV("0.6,25.3,88.7,4.2\n")
	require.Equal(t, 1, d.Len())
	assert.Equal(t, ParsedSample{FiO2: 0.6, MAP: 25.3, PaO2: 88.7, OI: 4.2}, d.Sample(0))
}

func TestProcessedData_Sample(t *testing.T) {
	d := ProcessCSV("0.4,10,70,5.7\n0.8,30,60,40\n")
	assert.Equal(t, ParsedSample{FiO2: 0.8, MAP: 30, PaO2: 60, OI: 40}, d.Sample(1))
	assert.Panics(t, func() { d.Sample(2) })
}

func TestProcessCSVWithColumns(t *testing.T) {
	input := "id,oi,pao2,map,fio2\n7,4.2,88.7,25.3,0.6\n8,3.0,90\n"
	cols := ColumnMap{FiO2: 4, MAP: 3, PaO2: 2, OI: 1}

	d := ProcessCSVWithColumns(input, cols)
	require.Equal(t, 1, d.Len())
	assert.Equal(t, ParsedSample{FiO2: 0.6, MAP: 25.3, PaO2: 88.7, OI: 4.2}, d.Sample(0))

	assert.Equal(t, 0, ProcessCSVWithColumns("1,2,3,4\n", ColumnMap{FiO2: -1, MAP: 1, PaO2: 2, OI: 3}).Len())
}

func TestParseFloat32(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want float32
	}{
		{"1.5", true, 1.5},
		{"-2", true, -2},
		{"1e3", true, 1000},
		{"5.", true, 5},
		{"", false, 0},
		{"1.2.3", false, 0},
		{"12abc", false, 0},
		{" 1", false, 0},
		{"1,5", false, 0},
		{"0x10", false, 0},
	}
	for _, tt := range tests {
		got, ok := parseFloat32(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oi.csv")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFF0.6,25.3,88.7,4.2\n0.5,x,90,3\n0.5,20,90,3\n"), 0o644))

	d, err := ParseFile(path, DefaultColumnMap())
	require.NoError(t, err)
	assertEqualLengths(t, d, 2)

	_, err = ParseFile(filepath.Join(dir, "missing.csv"), DefaultColumnMap())
	assert.Error(t, err)
}
