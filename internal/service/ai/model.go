package ai

import (
	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/pipeline"
)

// Model is a classifier holding resources that Close releases.
type Model interface {
	pipeline.Classifier
	Close() error
}

// Load returns a RemoteClassifier when MODEL_SERVER_URL is set and a local
// DNNClassifier otherwise.
func Load(cfg *config.Config, logger *logger.Logger) (Model, error) {
	if cfg.ModelServerURL != "" {
		logger.Info("Using model server at %s", cfg.ModelServerURL)
		return NewRemoteClassifier(cfg.ModelServerURL), nil
	}

	c, err := NewDNNClassifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded model from %s", cfg.ModelPath)
	return c, nil
}
