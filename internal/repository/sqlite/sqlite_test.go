package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"violencedetector/internal/dto"
	"violencedetector/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "analyses_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func newAnalysis(id string, status model.AnalysisStatus, createdAt time.Time) *model.Analysis {
	return &model.Analysis{
		ID:        id,
		Filename:  id + ".mp4",
		InputPath: "/uploads/" + id + ".mp4",
		Status:    status,
		CreatedAt: createdAt,
	}
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrateTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	db.Close()

	db, err = New(dbPath)
	if err != nil {
		t.Fatalf("Reopening database should not fail: %v", err)
	}
	db.Close()
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := newAnalysis(fmt.Sprintf("concurrent-%d", i), model.StatusProcessing, time.Now())
			if err := repo.Insert(a); err != nil {
				errs <- err
				return
			}
			if _, err := repo.GetByID(a.ID); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent operation failed: %v", err)
	}

	count, err := repo.GetTotalCount(&dto.AnalysisFilters{})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 20 {
		t.Errorf("Expected 20 analyses, got %d", count)
	}
}

// ========================================
// Analysis Repository Tests
// ========================================

func TestAnalysisRepository_InsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	created := time.Now().Add(-time.Minute).Truncate(time.Second)
	a := newAnalysis("a1", model.StatusProcessing, created)

	if err := repo.Insert(a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("a1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected analysis, got nil")
	}
	if got.Filename != "a1.mp4" || got.Status != model.StatusProcessing {
		t.Errorf("Unexpected analysis: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, got.CreatedAt)
	}
	if !got.CompletedAt.IsZero() {
		t.Errorf("Expected zero completed_at, got %v", got.CompletedAt)
	}
}

func TestAnalysisRepository_Insert_DuplicateID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	a := newAnalysis("dup", model.StatusProcessing, time.Now())

	if err := repo.Insert(a); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := repo.Insert(a); err == nil {
		t.Error("Expected error for duplicate id, got nil")
	}
}

func TestAnalysisRepository_GetByID_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := NewAnalysisRepository(db).GetByID("missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing analysis, got %+v", got)
	}
}

func TestAnalysisRepository_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	a := newAnalysis("upd", model.StatusProcessing, time.Now())
	if err := repo.Insert(a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	a.Status = model.StatusCompleted
	a.OutputPath = "/outputs/upd_annotated.mp4"
	a.TotalFrames = 15
	a.ViolentFrames = 4
	a.NonViolentFrames = 2
	a.CompletedAt = time.Now()
	if err := repo.Update(a); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.GetByID("upd")
	if got.Status != model.StatusCompleted || got.ViolentFrames != 4 || got.NonViolentFrames != 2 {
		t.Errorf("Update not persisted: %+v", got)
	}
	if got.OutputPath != a.OutputPath {
		t.Errorf("Expected output path %s, got %s", a.OutputPath, got.OutputPath)
	}
	if got.CompletedAt.IsZero() {
		t.Error("Expected completed_at to be set")
	}
}

func TestAnalysisRepository_Update_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewAnalysisRepository(db).Update(newAnalysis("ghost", model.StatusFailed, time.Now()))
	if err == nil {
		t.Error("Expected error when updating a missing analysis")
	}
}

func TestAnalysisRepository_GetAll_OrderAndFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	base := time.Now().Add(-time.Hour)
	statuses := []model.AnalysisStatus{
		model.StatusCompleted,
		model.StatusInsufficientFrames,
		model.StatusCompleted,
		model.StatusFailed,
	}
	for i, s := range statuses {
		if err := repo.Insert(newAnalysis(fmt.Sprintf("g%d", i), s, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	all, err := repo.GetAll(&dto.AnalysisFilters{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Expected 4 analyses, got %d", len(all))
	}
	if all[0].ID != "g3" || all[3].ID != "g0" {
		t.Errorf("Expected newest first, got %s..%s", all[0].ID, all[3].ID)
	}

	completed, err := repo.GetAll(&dto.AnalysisFilters{Status: string(model.StatusCompleted)})
	if err != nil {
		t.Fatalf("GetAll with filter failed: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("Expected 2 completed analyses, got %d", len(completed))
	}

	count, _ := repo.GetTotalCount(&dto.AnalysisFilters{Status: string(model.StatusCompleted)})
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestAnalysisRepository_GetAll_Pagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		repo.Insert(newAnalysis(fmt.Sprintf("p%d", i), model.StatusCompleted, base.Add(time.Duration(i)*time.Minute)))
	}

	page, err := repo.GetAll(&dto.AnalysisFilters{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 analyses, got %d", len(page))
	}
	if page[0].ID != "p2" || page[1].ID != "p1" {
		t.Errorf("Unexpected page: %s, %s", page[0].ID, page[1].ID)
	}
}

func TestAnalysisRepository_GetStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	a := newAnalysis("s1", model.StatusCompleted, time.Now())
	a.ViolentFrames, a.NonViolentFrames = 3, 5
	b := newAnalysis("s2", model.StatusCompleted, time.Now())
	b.ViolentFrames, b.NonViolentFrames = 1, 1
	c := newAnalysis("s3", model.StatusInsufficientFrames, time.Now())
	for _, x := range []*model.Analysis{a, b, c} {
		if err := repo.Insert(x); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalAnalyses != 3 {
		t.Errorf("Expected 3 analyses, got %d", stats.TotalAnalyses)
	}
	if stats.ViolentFrames != 4 || stats.NonViolentFrames != 6 {
		t.Errorf("Unexpected frame totals: %+v", stats)
	}
	if stats.PerStatus["completed"] != 2 || stats.PerStatus["insufficient_frames"] != 1 {
		t.Errorf("Unexpected per-status counts: %v", stats.PerStatus)
	}
}

// ========================================
// Prediction Repository Tests
// ========================================

func TestPredictionRepository_InsertBatchAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	analyses := NewAnalysisRepository(db)
	predictions := NewPredictionRepository(db)
	analyses.Insert(newAnalysis("pr", model.StatusCompleted, time.Now()))

	batch := []model.Prediction{
		{AnalysisID: "pr", FrameIndex: 10, Probability: 0.2},
		{AnalysisID: "pr", FrameIndex: 9, Probability: 0.9, Violent: true},
		{AnalysisID: "pr", FrameIndex: 11, Probability: 0.5},
	}
	if err := predictions.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := predictions.GetByAnalysisID("pr")
	if err != nil {
		t.Fatalf("GetByAnalysisID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 predictions, got %d", len(got))
	}
	for i, want := range []int{9, 10, 11} {
		if got[i].FrameIndex != want {
			t.Errorf("Prediction %d: expected frame %d, got %d", i, want, got[i].FrameIndex)
		}
	}
	if !got[0].Violent || got[2].Violent {
		t.Errorf("Violent flags not persisted: %+v", got)
	}
}

func TestPredictionRepository_InsertBatch_Empty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := NewPredictionRepository(db).InsertBatch(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}

func TestPredictionRepository_ForeignKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewPredictionRepository(db).InsertBatch([]model.Prediction{
		{AnalysisID: "no-such-analysis", FrameIndex: 9, Probability: 0.1},
	})
	if err == nil {
		t.Error("Expected foreign key violation for unknown analysis")
	}
}

func TestAnalysisRepository_DeleteRemovesPredictions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	analyses := NewAnalysisRepository(db)
	predictions := NewPredictionRepository(db)
	analyses.Insert(newAnalysis("del", model.StatusCompleted, time.Now()))
	predictions.InsertBatch([]model.Prediction{
		{AnalysisID: "del", FrameIndex: 9, Probability: 0.7, Violent: true},
		{AnalysisID: "del", FrameIndex: 10, Probability: 0.3},
	})

	if err := analyses.Delete("del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got, _ := analyses.GetByID("del"); got != nil {
		t.Error("Analysis should be deleted")
	}
	if got, _ := predictions.GetByAnalysisID("del"); len(got) != 0 {
		t.Errorf("Expected 0 predictions after delete, got %d", len(got))
	}
}

func TestPredictionRepository_DeleteByAnalysisID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	analyses := NewAnalysisRepository(db)
	predictions := NewPredictionRepository(db)
	analyses.Insert(newAnalysis("keep", model.StatusCompleted, time.Now()))
	predictions.InsertBatch([]model.Prediction{{AnalysisID: "keep", FrameIndex: 9, Probability: 0.4}})

	if err := predictions.DeleteByAnalysisID("keep"); err != nil {
		t.Fatalf("DeleteByAnalysisID failed: %v", err)
	}

	if got, _ := predictions.GetByAnalysisID("keep"); len(got) != 0 {
		t.Errorf("Expected no predictions, got %d", len(got))
	}
	if got, _ := analyses.GetByID("keep"); got == nil {
		t.Error("Analysis itself should remain")
	}
}
