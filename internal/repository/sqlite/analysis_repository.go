package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"violencedetector/internal/dto"
	"violencedetector/internal/model"
)

const analysisColumns = `id, filename, input_path, output_path, status, total_frames,
	violent_frames, non_violent_frames, error, created_at, completed_at`

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert adds a new analysis record to the database.
func (r *AnalysisRepository) Insert(a *model.Analysis) error {
	r.db.Lock()
	defer r.db.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.Conn().Exec(`
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Filename, a.InputPath, a.OutputPath, a.Status, a.TotalFrames,
		a.ViolentFrames, a.NonViolentFrames, a.Error, a.CreatedAt, nullTime(a.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// Update stores the mutable fields of an existing analysis.
func (r *AnalysisRepository) Update(a *model.Analysis) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE analyses
		SET output_path = ?, status = ?, total_frames = ?, violent_frames = ?,
			non_violent_frames = ?, error = ?, completed_at = ?
		WHERE id = ?
	`, a.OutputPath, a.Status, a.TotalFrames, a.ViolentFrames, a.NonViolentFrames,
		a.Error, nullTime(a.CompletedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis %s not found", a.ID)
	}
	return nil
}

// GetByID retrieves an analysis by its ID. It returns nil, nil when absent.
func (r *AnalysisRepository) GetByID(id string) (*model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// GetAll retrieves analyses, newest first, based on filter criteria.
func (r *AnalysisRepository) GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}

	return analyses, rows.Err()
}

// GetTotalCount returns the total count of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *dto.AnalysisFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM analyses WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// GetStats returns statistics about stored analyses.
func (r *AnalysisRepository) GetStats() (*model.AnalysisStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AnalysisStats{
		PerStatus: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(violent_frames), 0), COALESCE(SUM(non_violent_frames), 0)
		FROM analyses
	`).Scan(&stats.TotalAnalyses, &stats.ViolentFrames, &stats.NonViolentFrames); err != nil {
		return nil, err
	}

	rows, err := r.db.Conn().Query(`SELECT status, COUNT(*) FROM analyses GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.PerStatus[status] = count
	}

	return stats, rows.Err()
}

// Delete removes an analysis and its predictions.
func (r *AnalysisRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM predictions WHERE analysis_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var a model.Analysis
	var status string
	var completedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.Filename, &a.InputPath, &a.OutputPath, &status, &a.TotalFrames,
		&a.ViolentFrames, &a.NonViolentFrames, &a.Error, &a.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	a.Status = model.AnalysisStatus(status)
	if completedAt.Valid {
		a.CompletedAt = completedAt.Time
	}
	return &a, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
