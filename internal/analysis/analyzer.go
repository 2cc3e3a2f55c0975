package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/user/oi_visualizer_go/internal/parser"
)

// ComputeOI returns FiO2 * MAP * 100 / PaO2. FiO2 above 1 is taken as a
// percentage. A non-positive PaO2 gives NaN.
func ComputeOI(fio2, mapCmH2O, pao2 float64) float64 {
	if pao2 <= 0 || math.IsNaN(pao2) {
		return math.NaN()
	}
	if fio2 > 1 {
		fio2 /= 100
	}
	return fio2 * mapCmH2O * 100 / pao2
}

// ClassifyOI maps an oxygenation index to its severity band.
func ClassifyOI(oi float64) Severity {
	switch {
	case math.IsNaN(oi):
		return SeverityUnknown
	case oi >= SevereOIThreshold:
		return SeveritySevere
	case oi >= ModerateOIThreshold:
		return SeverityModerate
	case oi >= MildOIThreshold:
		return SeverityMild
	default:
		return SeverityNone
	}
}

// summarizeSeries computes descriptive statistics, ignoring NaN values.
func summarizeSeries(name string, values []float32) SeriesSummary {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(float64(v)) {
			valid = append(valid, float64(v))
		}
	}

	s := SeriesSummary{
		Name:   name,
		Count:  len(valid),
		Min:    math.NaN(),
		Max:    math.NaN(),
		Mean:   math.NaN(),
		StdDev: math.NaN(),
		Median: math.NaN(),
	}
	if len(valid) == 0 {
		return s
	}

	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	mean, variance := stat.PopMeanVariance(valid, nil)
	s.Mean = mean
	s.StdDev = math.Sqrt(variance)
	if len(valid) == 1 {
		s.StdDev = 0
	}

	sort.Float64s(valid)
	s.Median = stat.Quantile(0.5, stat.Empirical, valid, nil)
	return s
}

// Summarize performs statistical analysis on processed data. Rows whose
// reported OI differs from the recomputed OI by more than tolerance are
// listed as discrepancies; the topN highest OI rows are ranked.
func Summarize(data *parser.ProcessedData, tolerance float64, topN int) (*Summary, error) {
	if data == nil || data.Len() == 0 {
		return nil, fmt.Errorf("processed data is nil or empty, cannot analyze")
	}

	summary := newSummary()
	summary.NumSamples = data.Len()
	summary.Tolerance = tolerance

	fio2, mapv, pao2, oi := data.FiO2(), data.MAP(), data.PaO2(), data.OI()
	texts := data.Texts()

	summary.Series[SeriesFiO2] = summarizeSeries(SeriesFiO2, fio2)
	summary.Series[SeriesMAP] = summarizeSeries(SeriesMAP, mapv)
	summary.Series[SeriesPaO2] = summarizeSeries(SeriesPaO2, pao2)
	summary.Series[SeriesOI] = summarizeSeries(SeriesOI, oi)

	for _, sev := range Severities {
		summary.SeverityCounts[sev.String()] = 0
	}

	ranked := make([]RankedSample, 0, len(oi))
	for i := range oi {
		reported := float64(oi[i])
		sev := ClassifyOI(reported)
		summary.SeverityCounts[sev.String()]++

		computed := ComputeOI(float64(fio2[i]), float64(mapv[i]), float64(pao2[i]))
		if !math.IsNaN(computed) && !math.IsNaN(reported) {
			diff := reported - computed
			if math.Abs(diff) > tolerance {
				summary.Discrepancies = append(summary.Discrepancies, Discrepancy{
					Row:        i,
					ReportedOI: reported,
					ComputedOI: computed,
					Difference: diff,
				})
			}
		}

		if !math.IsNaN(reported) {
			ranked = append(ranked, RankedSample{Row: i, OI: reported, Severity: sev, Text: texts[i]})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OI > ranked[j].OI // Descending
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	summary.RankedByOI = ranked

	return summary, nil
}

// DomeProjection projects every sample onto the OI dome. PaO2 is min-max
// normalized over the finite PaO2 values; a constant PaO2 column normalizes
// to 0 and a non-finite PaO2 gets a NaN position.
func DomeProjection(data *parser.ProcessedData) []DomePoint {
	if data == nil || data.Len() == 0 {
		return []DomePoint{}
	}

	fio2, pao2, oi := data.FiO2(), data.PaO2(), data.OI()
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, p := range pao2 {
		v := float64(p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minP = math.Min(minP, v)
		maxP = math.Max(maxP, v)
	}
	span := maxP - minP

	points := make([]DomePoint, len(pao2))
	for i := range pao2 {
		p := float64(pao2[i])
		norm := 0.0
		switch {
		case math.IsNaN(p) || math.IsInf(p, 0):
			norm = math.NaN()
		case span > 0:
			norm = (p - minP) / span
		}
		angle := float64(fio2[i]) * 2 * math.Pi
		points[i] = DomePoint{
			X:    norm * 2 * math.Cos(angle),
			Y:    norm * 2 * math.Sin(angle),
			Z:    float64(oi[i]),
			Norm: norm,
		}
	}
	return points
}
