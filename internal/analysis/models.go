package analysis

// Severity is the oxygenation index band of a sample.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityNone
	SeverityMild
	SeverityModerate
	SeveritySevere
)

// Severity band lower bounds on the OI scale.
const (
	MildOIThreshold     = 4.0
	ModerateOIThreshold = 8.0
	SevereOIThreshold   = 16.0
)

// Severities lists the bands in ascending order, Unknown last.
var Severities = []Severity{SeverityNone, SeverityMild, SeverityModerate, SeveritySevere, SeverityUnknown}

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityMild:
		return "Mild"
	case SeverityModerate:
		return "Moderate"
	case SeveritySevere:
		return "Severe"
	default:
		return "Unknown"
	}
}

// MarshalText renders the band name in JSON payloads.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Series names used across analysis and report.
const (
	SeriesFiO2 = "fio2"
	SeriesMAP  = "map"
	SeriesPaO2 = "pao2"
	SeriesOI   = "oi"
)

// SeriesNames lists the numeric series in column order.
var SeriesNames = []string{SeriesFiO2, SeriesMAP, SeriesPaO2, SeriesOI}

// SeriesSummary holds descriptive statistics for one numeric series.
// NaN values are excluded; Count is the number of values used.
type SeriesSummary struct {
	Name   string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64 // population
	Median float64
}

// Discrepancy is a row whose reported OI disagrees with the OI recomputed
// from FiO2, MAP and PaO2.
type Discrepancy struct {
	Row        int
	ReportedOI float64
	ComputedOI float64
	Difference float64
}

// RankedSample is used for ranking rows by OI.
type RankedSample struct {
	Row      int
	OI       float64
	Severity Severity
	Text     string
}

// Summary holds all results from the analysis.
type Summary struct {
	NumSamples     int                      `json:"numSamples"`
	Series         map[string]SeriesSummary `json:"series"`
	SeverityCounts map[string]int           `json:"severityCounts"`
	Tolerance      float64                  `json:"tolerance"`
	Discrepancies  []Discrepancy            `json:"discrepancies"`
	RankedByOI     []RankedSample           `json:"rankedByOI"` // descending
}

func newSummary() *Summary {
	return &Summary{
		Series:         make(map[string]SeriesSummary),
		SeverityCounts: make(map[string]int),
		Discrepancies:  make([]Discrepancy, 0),
		RankedByOI:     make([]RankedSample, 0),
	}
}

// DomePoint is one sample projected onto the polar "dome" used by the 3D
// visualizer: FiO2 sets the angle, normalized PaO2 the radius, OI the height.
type DomePoint struct {
	X    float64
	Y    float64
	Z    float64
	Norm float64
}
