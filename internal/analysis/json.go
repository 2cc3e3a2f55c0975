package analysis

import (
	"encoding/json"
	"math"
)

// JSON cannot carry NaN or ±Inf; such values are written as null.

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s SeriesSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string   `json:"name"`
		Count  int      `json:"count"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
		Mean   *float64 `json:"mean"`
		StdDev *float64 `json:"stdDev"`
		Median *float64 `json:"median"`
	}{s.Name, s.Count, finitePtr(s.Min), finitePtr(s.Max), finitePtr(s.Mean), finitePtr(s.StdDev), finitePtr(s.Median)})
}

func (d Discrepancy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row        int      `json:"row"`
		ReportedOI *float64 `json:"reportedOI"`
		ComputedOI *float64 `json:"computedOI"`
		Difference *float64 `json:"difference"`
	}{d.Row, finitePtr(d.ReportedOI), finitePtr(d.ComputedOI), finitePtr(d.Difference)})
}

func (r RankedSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row      int      `json:"row"`
		OI       *float64 `json:"oi"`
		Severity Severity `json:"severity"`
		Text     string   `json:"text"`
	}{r.Row, finitePtr(r.OI), r.Severity, r.Text})
}

func (p DomePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X    *float64 `json:"x"`
		Y    *float64 `json:"y"`
		Z    *float64 `json:"z"`
		Norm *float64 `json:"norm"`
	}{finitePtr(p.X), finitePtr(p.Y), finitePtr(p.Z), finitePtr(p.Norm)})
}
