package repository

import (
	"violencedetector/internal/dto"
	"violencedetector/internal/model"
)

// AnalysisRepository defines the interface for analysis data operations.
type AnalysisRepository interface {
	// Create operations
	Insert(a *model.Analysis) error

	// Update operations
	Update(a *model.Analysis) error

	// Read operations
	GetByID(id string) (*model.Analysis, error)
	GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error)
	GetTotalCount(filter *dto.AnalysisFilters) (int, error)
	GetStats() (*model.AnalysisStats, error)

	// Delete operations
	Delete(id string) error
}

// PredictionRepository defines the interface for prediction data operations.
type PredictionRepository interface {
	// Create operations
	InsertBatch(predictions []model.Prediction) error

	// Read operations
	GetByAnalysisID(analysisID string) ([]model.Prediction, error)

	// Delete operations
	DeleteByAnalysisID(analysisID string) error
}
