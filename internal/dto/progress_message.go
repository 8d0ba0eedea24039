package dto

// ProgressMessage is pushed to websocket viewers while an analysis runs.
type ProgressMessage struct {
	ID       string  `json:"id"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
}
