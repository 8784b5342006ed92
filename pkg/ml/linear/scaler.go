package linear

import "fmt"

// StandardScaler standardises each column to zero mean and unit variance
// using statistics fitted at training time.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s StandardScaler) Len() int {
	return len(s.Mean)
}

// Transform returns a scaled copy of sample. A zero scale is treated as one,
// matching how constant columns are fitted.
func (s StandardScaler) Transform(sample []float64) ([]float64, error) {
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
	}
	if len(sample) != len(s.Mean) {
		return nil, fmt.Errorf("sample has %d values, scaler expects %d", len(sample), len(s.Mean))
	}
	out := make([]float64, len(sample))
	for i, x := range sample {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
