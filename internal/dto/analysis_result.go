package dto

import "violencedetector/internal/model"

// AnalysisResult is returned after an upload was analyzed.
type AnalysisResult struct {
	ID               string `json:"id"`
	ViolentFrames    int    `json:"violentFrames"`
	NonViolentFrames int    `json:"nonViolentFrames"`
	TotalPredictions int    `json:"totalPredictions"`
	InputURL         string `json:"inputUrl"`
	OutputURL        string `json:"outputUrl"`
}

// AnalysisDetails is a stored analysis together with its predictions.
type AnalysisDetails struct {
	model.Analysis
	Predictions []model.Prediction `json:"predictions"`
}

// ErrorResponse carries a user-facing message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
