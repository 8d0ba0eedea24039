package model

// Prediction is one stored window verdict of an analysis.
type Prediction struct {
	ID          int64   `json:"id"`
	AnalysisID  string  `json:"analysis_id"`
	FrameIndex  int     `json:"frame_index"`
	Probability float64 `json:"probability"`
	Violent     bool    `json:"violent"`
}
