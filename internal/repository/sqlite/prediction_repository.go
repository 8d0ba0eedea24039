package sqlite

import (
	"fmt"

	"violencedetector/internal/model"
)

// PredictionRepository implements repository.PredictionRepository for SQLite.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new SQLite prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// InsertBatch adds multiple predictions in a single transaction.
func (r *PredictionRepository) InsertBatch(predictions []model.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO predictions (analysis_id, frame_index, probability, violent)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range predictions {
		if _, err := stmt.Exec(p.AnalysisID, p.FrameIndex, p.Probability, p.Violent); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}

	return tx.Commit()
}

// GetByAnalysisID retrieves all predictions of an analysis in frame order.
func (r *PredictionRepository) GetByAnalysisID(analysisID string) ([]model.Prediction, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, analysis_id, frame_index, probability, violent
		FROM predictions WHERE analysis_id = ? ORDER BY frame_index
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		if err := rows.Scan(&p.ID, &p.AnalysisID, &p.FrameIndex, &p.Probability, &p.Violent); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}

	return predictions, rows.Err()
}

// DeleteByAnalysisID removes all predictions for a specific analysis.
func (r *PredictionRepository) DeleteByAnalysisID(analysisID string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM predictions WHERE analysis_id = ?`, analysisID); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}
