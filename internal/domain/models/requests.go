package models

// PredictRequest is the JSON body accepted by the prediction API. Values may
// be JSON numbers or numeric strings.
type PredictRequest struct {
	Features  map[string]interface{} `json:"features" validate:"required,max=512"`
	RequestID string                 `json:"request_id" validate:"omitempty,max=64"`
}

// PredictResponse is the API view of a PredictionResult.
type PredictResponse struct {
	RequestID      string               `json:"request_id"`
	Category       Category             `json:"category"`
	Scores         map[Category]float64 `json:"scores"`
	Outputs        map[string]float64   `json:"outputs"`
	IgnoredColumns []string             `json:"ignored_columns,omitempty"`
	ModelVersion   string               `json:"model_version,omitempty"`
	CacheHit       bool                 `json:"cache_hit"`
}

// SchemaResponse describes the model inputs and outputs.
type SchemaResponse struct {
	Columns []string `json:"columns"`
	Targets []string `json:"targets"`
}

// PredictInput is one prediction request as submitted: field name to raw
// string value.
type PredictInput struct {
	RequestID string
	Values    map[string]string
}
