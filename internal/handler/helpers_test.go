package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/model"
	"violencedetector/internal/pipeline"
	"violencedetector/internal/repository/sqlite"
	"violencedetector/internal/service/analysis"
)

// ========================================
// Test Setup Helpers
// ========================================

type testEnv struct {
	cfg         *config.Config
	logger      *logger.Logger
	analyses    *sqlite.AnalysisRepository
	predictions *sqlite.PredictionRepository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := logger.New(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(l.Close)

	return &testEnv{
		cfg: &config.Config{
			Password:        "secret",
			UploadDirectory: filepath.Join(dir, "uploads"),
			OutputDirectory: filepath.Join(dir, "outputs"),
			MaxUploadSizeMB: 10,
		},
		logger:      l,
		analyses:    sqlite.NewAnalysisRepository(db),
		predictions: sqlite.NewPredictionRepository(db),
	}
}

// seedAnalysis stores a completed analysis whose input and output files exist on disk.
func (e *testEnv) seedAnalysis(t *testing.T, id string, createdAt time.Time) *model.Analysis {
	t.Helper()
	if err := os.MkdirAll(e.cfg.UploadDirectory, 0755); err != nil {
		t.Fatalf("Failed to create upload dir: %v", err)
	}
	if err := os.MkdirAll(e.cfg.OutputDirectory, 0755); err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}

	a := &model.Analysis{
		ID:               id,
		Filename:         id + ".mp4",
		InputPath:        filepath.Join(e.cfg.UploadDirectory, id+".mp4"),
		OutputPath:       filepath.Join(e.cfg.OutputDirectory, id+"_annotated.mp4"),
		Status:           model.StatusCompleted,
		TotalFrames:      15,
		ViolentFrames:    4,
		NonViolentFrames: 2,
		CreatedAt:        createdAt,
		CompletedAt:      createdAt.Add(time.Second),
	}
	for _, path := range []string{a.InputPath, a.OutputPath} {
		if err := os.WriteFile(path, []byte("video:"+filepath.Base(path)), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	if err := e.analyses.Insert(a); err != nil {
		t.Fatalf("Failed to insert analysis: %v", err)
	}

	var preds []model.Prediction
	for i := 0; i < 6; i++ {
		preds = append(preds, model.Prediction{AnalysisID: id, FrameIndex: 9 + i, Probability: 0.9, Violent: i < 4})
	}
	if err := e.predictions.InsertBatch(preds); err != nil {
		t.Fatalf("Failed to insert predictions: %v", err)
	}
	return a
}

// fakeAnalyzer returns a canned result or error and remembers the path it was given.
type fakeAnalyzer struct {
	result *analysis.Result
	err    error
	path   string
}

func (f *fakeAnalyzer) Process(_ context.Context, videoPath string) (*analysis.Result, error) {
	f.path = videoPath
	return f.result, f.err
}

// uploadRequest builds a multipart POST with content stored in the "video" field.
func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func completedResult() *analysis.Result {
	return &analysis.Result{
		ID:          "abc",
		Predictions: make([]pipeline.Prediction, 6),
		Summary:     pipeline.Summary{ViolentFrames: 4, NonViolentFrames: 2},
		TotalFrames: 15,
	}
}
