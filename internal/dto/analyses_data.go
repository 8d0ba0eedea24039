// AnalysesData is a paginated response payload for the analysis history.
package dto

import "violencedetector/internal/model"

type AnalysesData struct {
	Analyses    []model.Analysis `json:"analyses"`
	Length      int              `json:"length"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Limit       int              `json:"pageSize"`
}
