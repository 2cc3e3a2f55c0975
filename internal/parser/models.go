package parser

// NumColumns is the number of positional columns read from every CSV row.
const NumColumns = 4

// ColumnMap holds the zero-based CSV column index of each measurement.
type ColumnMap struct {
	FiO2 int
	MAP  int
	PaO2 int
	OI   int
}

// DefaultColumnMap reads FiO2, MAP, PaO2 and OI from columns 0..3.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{FiO2: 0, MAP: 1, PaO2: 2, OI: 3}
}

// indices returns the column indices in FiO2, MAP, PaO2, OI order.
func (c ColumnMap) indices() [NumColumns]int {
	return [NumColumns]int{c.FiO2, c.MAP, c.PaO2, c.OI}
}

// ParsedSample is one accepted CSV row.
type ParsedSample struct {
	FiO2 float32 // fraction (0.21-1.0) or percentage, not enforced
	MAP  float32 // cmH2O
	PaO2 float32 // mmHg
	OI   float32
}

// ProcessedData holds the accepted rows as parallel sequences.
// Index i of every sequence refers to the same input row.
type ProcessedData struct {
	fio2  []float32
	mapp  []float32
	pao2  []float32
	oi    []float32
	texts []string
}

func newProcessedData() *ProcessedData {
	return &ProcessedData{
		fio2:  make([]float32, 0),
		mapp:  make([]float32, 0),
		pao2:  make([]float32, 0),
		oi:    make([]float32, 0),
		texts: make([]string, 0),
	}
}

// add appends one sample to all five sequences.
func (d *ProcessedData) add(s ParsedSample) {
	d.fio2 = append(d.fio2, s.FiO2)
	d.mapp = append(d.mapp, s.MAP)
	d.pao2 = append(d.pao2, s.PaO2)
	d.oi = append(d.oi, s.OI)
	d.texts = append(d.texts, FormatDisplayText(s))
}

// Len returns the number of accepted rows. Len and the sequence accessors
// treat a nil *ProcessedData as empty.
func (d *ProcessedData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.texts)
}

// FiO2 returns a copy of the FiO2 sequence.
func (d *ProcessedData) FiO2() []float32 {
	if d == nil {
		return []float32{}
	}
	return cloneFloats(d.fio2)
}

// MAP returns a copy of the mean airway pressure sequence.
func (d *ProcessedData) MAP() []float32 {
	if d == nil {
		return []float32{}
	}
	return cloneFloats(d.mapp)
}

// PaO2 returns a copy of the PaO2 sequence.
func (d *ProcessedData) PaO2() []float32 {
	if d == nil {
		return []float32{}
	}
	return cloneFloats(d.pao2)
}

// OI returns a copy of the oxygenation index sequence.
func (d *ProcessedData) OI() []float32 {
	if d == nil {
		return []float32{}
	}
	return cloneFloats(d.oi)
}

// Texts returns a copy of the display strings.
func (d *ProcessedData) Texts() []string {
	if d == nil {
		return []string{}
	}
	out := make([]string, len(d.texts))
	copy(out, d.texts)
	return out
}

// Sample returns the i-th accepted row. It panics if i is out of range.
func (d *ProcessedData) Sample(i int) ParsedSample {
	return ParsedSample{FiO2: d.fio2[i], MAP: d.mapp[i], PaO2: d.pao2[i], OI: d.oi[i]}
}

func cloneFloats(in []float32) []float32 {
	out := make([]float32, len(in))
	copy(out, in)
	return out
}
