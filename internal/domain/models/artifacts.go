package models

// LinearModel is the serialized multi-output linear regressor:
// outputs[t] = sum_f Coefficients[t][f]*x[f] + Intercepts[t].
type LinearModel struct {
	Version      string      `json:"version"`
	Features     []string    `json:"features"`
	Targets      []string    `json:"targets"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}
