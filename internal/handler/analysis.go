package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"violencedetector/internal/config"
	"violencedetector/internal/dto"
	"violencedetector/internal/logger"
	"violencedetector/internal/pipeline"
	"violencedetector/internal/repository"
	"violencedetector/internal/service/analysis"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 32 << 20

// Analyzer runs one analysis over a video file on disk.
type Analyzer interface {
	Process(ctx context.Context, videoPath string) (*analysis.Result, error)
}

// AnalyzeHandler handles POST /api/analyze. The multipart field "video" is
// stored in the upload directory and analyzed synchronously.
func AnalyzeHandler(analyzer Analyzer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSizeMB<<20)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "too_large",
					fmt.Sprintf("The video exceeds the %d MB upload limit.", cfg.MaxUploadSizeMB))
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_upload", "Could not read the upload.")
			return
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing_video", "No video file provided.")
			return
		}
		defer file.Close()

		if strings.ToLower(filepath.Ext(header.Filename)) != ".mp4" {
			writeError(w, http.StatusBadRequest, "unsupported_format", "Only .mp4 videos are supported.")
			return
		}

		path, err := saveUpload(cfg.UploadDirectory, header.Filename, file)
		if err != nil {
			logger.Error("Error saving upload %s: %v", header.Filename, err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Could not store the video.")
			return
		}

		result, err := analyzer.Process(r.Context(), path)
		var openErr *pipeline.SourceOpenError
		switch {
		case errors.Is(err, pipeline.ErrInsufficientFrames):
			writeError(w, http.StatusUnprocessableEntity, "insufficient_frames", analysis.InsufficientFramesMessage)
			return
		case errors.As(err, &openErr):
			writeError(w, http.StatusBadRequest, "invalid_video", "The file could not be decoded as a video.")
			return
		case err != nil:
			logger.Error("Analysis of %s failed: %v", path, err)
			writeError(w, http.StatusInternalServerError, "analysis_failed", "The video could not be analyzed.")
			return
		}

		writeJSON(w, http.StatusOK, dto.AnalysisResult{
			ID:               result.ID,
			ViolentFrames:    result.Summary.ViolentFrames,
			NonViolentFrames: result.Summary.NonViolentFrames,
			TotalPredictions: result.Summary.Total(),
			InputURL:         videoURL(result.ID, "input"),
			OutputURL:        videoURL(result.ID, "output"),
		}, logger)
	}
}

// GetAnalysesHandler returns the paginated analysis history.
func GetAnalysesHandler(analyses repository.AnalysisRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 20)

		filter := &dto.AnalysisFilters{
			Status: q.Get("status"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		list, err := analyses.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := analyses.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(list)
		}

		writeJSON(w, http.StatusOK, dto.AnalysesData{
			Analyses:    list,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// GetAnalysisHandler returns one analysis with its predictions.
func GetAnalysisHandler(analyses repository.AnalysisRepository, predictions repository.PredictionRepository,
	logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "ID required", http.StatusBadRequest)
			return
		}

		a, err := analyses.GetByID(id)
		if err != nil {
			logger.Error("Error getting analysis %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.NotFound(w, r)
			return
		}

		details := dto.AnalysisDetails{Analysis: *a}
		details.Predictions, err = predictions.GetByAnalysisID(id)
		if err != nil {
			logger.Error("Error getting predictions for analysis %s: %v", id, err)
		}

		writeJSON(w, http.StatusOK, details, logger)
	}
}

// GetStatsHandler returns aggregate statistics of stored analyses.
func GetStatsHandler(analyses repository.AnalysisRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := analyses.GetStats()
		if err != nil {
			logger.Error("Error getting analysis stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats, logger)
	}
}

// AnalysisVideoHandler serves the input or annotated output video of an analysis.
func AnalysisVideoHandler(analyses repository.AnalysisRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := q.Get("id")
		if id == "" {
			http.Error(w, "ID required", http.StatusBadRequest)
			return
		}

		a, err := analyses.GetByID(id)
		if err != nil {
			logger.Error("Error getting analysis %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.NotFound(w, r)
			return
		}

		var path string
		switch q.Get("kind") {
		case "", "output":
			path = a.OutputPath
		case "input":
			path = a.InputPath
		default:
			http.Error(w, "kind must be input or output", http.StatusBadRequest)
			return
		}

		if path == "" {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// DeleteAnalysisHandler removes an analysis, its videos and its predictions.
func DeleteAnalysisHandler(analyses repository.AnalysisRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "ID required", http.StatusBadRequest)
			return
		}

		a, err := analyses.GetByID(id)
		if err != nil {
			logger.Error("Error getting analysis %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.NotFound(w, r)
			return
		}

		for _, path := range []string{a.InputPath, a.OutputPath} {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete file %s: %v", path, err)
			}
		}

		if err := analyses.Delete(id); err != nil {
			logger.Error("Failed to delete analysis %s from database: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted analysis: %s", id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id}, logger)
	}
}

// saveUpload copies an upload into dir under a timestamped name and returns its path.
func saveUpload(dir, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := time.Now().Format("20060102_150405.000") + "_" + filepath.Base(filename)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func videoURL(id, kind string) string {
	return "/api/analyses/video?id=" + url.QueryEscape(id) + "&kind=" + kind
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{Error: code, Message: message})
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
