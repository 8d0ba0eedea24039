package model

import "time"

// AnalysisStatus is the outcome of one video analysis.
type AnalysisStatus string

const (
	StatusProcessing         AnalysisStatus = "processing"
	StatusCompleted          AnalysisStatus = "completed"
	StatusInsufficientFrames AnalysisStatus = "insufficient_frames"
	StatusFailed             AnalysisStatus = "failed"
)

// Analysis represents one processed upload.
type Analysis struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	InputPath        string         `json:"inputPath"`
	OutputPath       string         `json:"outputPath"`
	Status           AnalysisStatus `json:"status"`
	TotalFrames      int            `json:"totalFrames"`
	ViolentFrames    int            `json:"violentFrames"`
	NonViolentFrames int            `json:"nonViolentFrames"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	CompletedAt      time.Time      `json:"completedAt"`
}

// AnalysisStats contains statistics about stored analyses.
type AnalysisStats struct {
	TotalAnalyses    int            `json:"total_analyses"`
	PerStatus        map[string]int `json:"per_status"`
	ViolentFrames    int            `json:"violent_frames"`
	NonViolentFrames int            `json:"non_violent_frames"`
}
