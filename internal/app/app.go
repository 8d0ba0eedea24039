package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/repository/sqlite"
	"violencedetector/internal/route"
	"violencedetector/internal/service/ai"
	"violencedetector/internal/service/analysis"
	"violencedetector/internal/service/storage"
	"violencedetector/internal/service/websocket"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	db        *sqlite.DB
	model     ai.Model
	hub       *websocket.HubService
	analyzer  *analysis.Service
	retention *storage.RetentionService
	server    *http.Server
	cancel    context.CancelFunc
}

// NewApp loads configuration, opens the database and the model, and wires
// the services together.
func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.UploadDirectory, cfg.OutputDirectory, filepath.Dir(cfg.DatabasePath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}
	analyses := sqlite.NewAnalysisRepository(db)
	predictions := sqlite.NewPredictionRepository(db)

	model, err := ai.Load(cfg, log)
	if err != nil {
		db.Close()
		log.Close()
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	hub := websocket.NewHubService(log)
	analyzer := analysis.NewService(cfg, model, analyses, predictions, hub, log)
	retention := storage.NewRetentionService(cfg.OutputDirectory, cfg.MaxOutputDirectorySize*storage.GB, analyses, log)

	router := route.SetupRoutes(cfg, log, analyzer, analyses, predictions, hub)

	return &App{
		config:    cfg,
		logger:    log,
		db:        db,
		model:     model,
		hub:       hub,
		analyzer:  analyzer,
		retention: retention,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run starts the background services and serves HTTP until Shutdown.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.hub.Run()
	go a.retention.Run(ctx, time.Duration(a.config.RetentionInterval)*time.Second)

	fmt.Printf("🚀 Violence Detection Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Uploads: %s\n", a.config.UploadDirectory)
	fmt.Printf("🎞️  Outputs: %s\n", a.config.OutputDirectory)
	fmt.Printf("🤖 AI Model: %s\n", a.modelName())

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for running ones and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	if a.cancel != nil {
		a.cancel()
		a.hub.Stop()
	}
	if cerr := a.model.Close(); cerr != nil {
		a.logger.Error("Error closing model: %v", cerr)
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("Error closing database: %v", cerr)
	}
	a.logger.Info("Server stopped")
	a.logger.Close()
	return err
}

func (a *App) modelName() string {
	if a.config.ModelServerURL != "" {
		return a.config.ModelServerURL
	}
	return a.config.ModelPath
}
