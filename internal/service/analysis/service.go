package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/metrics"
	"violencedetector/internal/model"
	"violencedetector/internal/pipeline"
	"violencedetector/internal/repository"
	"violencedetector/internal/video"

	"github.com/google/uuid"
)

// InsufficientFramesMessage is shown to users when a video is shorter than one window.
const InsufficientFramesMessage = "Could not process the video. Please upload a longer video or ensure it contains at least 10 frames."

// progressStep is the smallest progress change forwarded to the observer.
const progressStep = 0.01

// Observer receives analysis events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	OnProgress(id string, fraction float64)
	OnFinished(id string, status model.AnalysisStatus)
}

type noopObserver struct{}

func (noopObserver) OnProgress(string, float64)              {}
func (noopObserver) OnFinished(string, model.AnalysisStatus) {}

// Result describes one finished analysis.
type Result struct {
	ID          string                `json:"id"`
	InputPath   string                `json:"inputPath"`
	OutputPath  string                `json:"outputPath"`
	Predictions []pipeline.Prediction `json:"predictions"`
	Summary     pipeline.Summary      `json:"summary"`
	TotalFrames int                   `json:"totalFrames"`
}

// Service runs the detection pipeline over video files and records the outcome.
type Service struct {
	config      *config.Config
	classifier  pipeline.Classifier
	analyses    repository.AnalysisRepository
	predictions repository.PredictionRepository
	observer    Observer
	logger      *logger.Logger
}

// NewService creates an analysis service. The repositories and the observer
// may be nil, in which case nothing is persisted or broadcast.
func NewService(cfg *config.Config, classifier pipeline.Classifier, analyses repository.AnalysisRepository,
	predictions repository.PredictionRepository, observer Observer, logger *logger.Logger) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		config:      cfg,
		classifier:  classifier,
		analyses:    analyses,
		predictions: predictions,
		observer:    observer,
		logger:      logger,
	}
}

// Process analyzes the video at videoPath and writes the annotated copy to
// the output directory. When the video is shorter than one window it returns
// the (empty) result together with pipeline.ErrInsufficientFrames.
func (s *Service) Process(ctx context.Context, videoPath string) (*Result, error) {
	id := uuid.NewString()
	result := &Result{
		ID:         id,
		InputPath:  videoPath,
		OutputPath: filepath.Join(s.config.OutputDirectory, id+"_annotated"+s.config.OutputExtension),
	}

	record := &model.Analysis{
		ID:         id,
		Filename:   filepath.Base(videoPath),
		InputPath:  videoPath,
		OutputPath: result.OutputPath,
		Status:     model.StatusProcessing,
		CreatedAt:  time.Now(),
	}
	if s.analyses != nil {
		if err := s.analyses.Insert(record); err != nil {
			s.logger.Error("Failed to record analysis %s: %v", id, err)
		}
	}

	metrics.ActiveAnalyses.Inc()
	defer metrics.ActiveAnalyses.Dec()
	start := time.Now()

	s.logger.Info("Analysis %s started for %s", id, videoPath)

	predictions, frames, err := s.run(ctx, id, videoPath, result.OutputPath)
	result.TotalFrames = frames
	result.Predictions = predictions
	metrics.FramesConsumedTotal.Add(float64(frames))
	record.TotalFrames = frames

	if err != nil {
		s.discard(result.OutputPath)
		record.OutputPath = ""
		record.Error = err.Error()
		s.finish(record, model.StatusFailed, start)
		s.logger.Error("Analysis %s failed: %v", id, err)
		return nil, err
	}

	summary, err := pipeline.Summarize(predictions, s.config.Threshold)
	if errors.Is(err, pipeline.ErrInsufficientFrames) {
		s.discard(result.OutputPath)
		result.OutputPath = ""
		record.OutputPath = ""
		s.finish(record, model.StatusInsufficientFrames, start)
		s.logger.Warning("Analysis %s: %d frames are not enough for a %d frame window",
			id, frames, s.config.SequenceLength)
		return result, err
	}
	result.Summary = summary

	record.ViolentFrames = summary.ViolentFrames
	record.NonViolentFrames = summary.NonViolentFrames
	s.savePredictions(id, predictions)
	s.finish(record, model.StatusCompleted, start)

	metrics.PredictionsTotal.WithLabelValues("violent").Add(float64(summary.ViolentFrames))
	metrics.PredictionsTotal.WithLabelValues("non_violent").Add(float64(summary.NonViolentFrames))

	s.logger.Info("Analysis %s completed: %d violent, %d non-violent windows in %s",
		id, summary.ViolentFrames, summary.NonViolentFrames, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// run opens the source and sink and drives the pipeline. It returns the
// predictions and how many frames were decoded.
func (s *Service) run(ctx context.Context, id, videoPath, outputPath string) ([]pipeline.Prediction, int, error) {
	if err := os.MkdirAll(s.config.OutputDirectory, 0755); err != nil {
		return nil, 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := video.OpenSource(videoPath)
	if err != nil {
		return nil, 0, err
	}
	defer src.Close()

	sink, err := video.CreateSink(outputPath, s.config.OutputCodec, s.config.OutputFPS, src.Width(), src.Height())
	if err != nil {
		return nil, 0, err
	}
	defer sink.Close()

	opts := pipeline.Options{
		Height:         s.config.ImgHeight,
		Width:          s.config.ImgWidth,
		SequenceLength: s.config.SequenceLength,
		Threshold:      s.config.Threshold,
		Progress:       s.progressFunc(id),
	}

	predictions, err := pipeline.Process(ctx, src, sink, timed(s.classifier), opts)
	return predictions, src.Position() + 1, err
}

// progressFunc forwards progress to the observer in steps of at least 1%.
func (s *Service) progressFunc(id string) pipeline.ProgressFunc {
	last := -1.0
	return func(fraction float64) {
		if fraction < 1 && fraction-last < progressStep {
			return
		}
		last = fraction
		s.observer.OnProgress(id, fraction)
	}
}

func (s *Service) savePredictions(id string, predictions []pipeline.Prediction) {
	if s.predictions == nil {
		return
	}

	rows := make([]model.Prediction, 0, len(predictions))
	for _, p := range predictions {
		rows = append(rows, model.Prediction{
			AnalysisID:  id,
			FrameIndex:  p.FrameIndex,
			Probability: p.Probability,
			Violent:     p.Probability > s.config.Threshold,
		})
	}
	if err := s.predictions.InsertBatch(rows); err != nil {
		s.logger.Error("Failed to save predictions for analysis %s: %v", id, err)
	}
}

// finish stores the final state of an analysis and notifies the observer.
func (s *Service) finish(record *model.Analysis, status model.AnalysisStatus, start time.Time) {
	record.Status = status
	record.CompletedAt = time.Now()

	metrics.AnalysesTotal.WithLabelValues(string(status)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())

	if s.analyses != nil {
		if err := s.analyses.Update(record); err != nil {
			s.logger.Error("Failed to update analysis %s: %v", record.ID, err)
		}
	}
	s.observer.OnFinished(record.ID, status)
}

func (s *Service) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warning("Failed to remove output %s: %v", path, err)
	}
}

// timed records how long every classification takes.
func timed(c pipeline.Classifier) pipeline.Classifier {
	return pipeline.ClassifierFunc(func(ctx context.Context, batch pipeline.Batch) (float64, error) {
		start := time.Now()
		p, err := c.Classify(ctx, batch)
		metrics.InferenceDuration.Observe(time.Since(start).Seconds())
		return p, err
	})
}
