package parser

import (
	"math"
	"strconv"
)

// Floats is a float32 sequence whose JSON form writes NaN and ±Inf as null.
type Floats []float32

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, 2+len(f)*8)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	}
	return append(buf, ']'), nil
}

// ChartPayload is the JSON view of ProcessedData handed to the browser.
type ChartPayload struct {
	FiO2  Floats   `json:"fio2"`
	MAP   Floats   `json:"map"`
	PaO2  Floats   `json:"pao2"`
	OI    Floats   `json:"oi"`
	Texts []string `json:"texts"`
	Count int      `json:"count"`
}

// NewChartPayload copies d into a payload.
func NewChartPayload(d *ProcessedData) ChartPayload {
	return ChartPayload{
		FiO2:  d.FiO2(),
		MAP:   d.MAP(),
		PaO2:  d.PaO2(),
		OI:    d.OI(),
		Texts: d.Texts(),
		Count: d.Len(),
	}
}
