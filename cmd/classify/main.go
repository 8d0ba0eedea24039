package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/model"
	"violencedetector/internal/pipeline"
	"violencedetector/internal/service/ai"
	"violencedetector/internal/service/analysis"
)

// exitInsufficientFrames is returned when the video is shorter than one window.
const exitInsufficientFrames = 2

// consoleObserver prints progress on a single terminal line.
type consoleObserver struct{}

func (consoleObserver) OnProgress(_ string, fraction float64) {
	fmt.Fprintf(os.Stderr, "\rProcessing video... %3.0f%%", fraction*100)
}

func (consoleObserver) OnFinished(string, model.AnalysisStatus) {
	fmt.Fprintln(os.Stderr)
}

func main() {
	videoPath := flag.String("video", "", "Video file to analyze")
	outDir := flag.String("out", "", "Directory for the annotated video (default OUTPUT_DIR)")
	flag.Parse()

	if *videoPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	if *outDir != "" {
		cfg.OutputDirectory = *outDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l, err := logger.New(cfg.LogDirectory)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	m, err := ai.Load(cfg, l)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := analysis.NewService(cfg, m, nil, nil, consoleObserver{}, l)
	result, err := service.Process(ctx, *videoPath)
	if errors.Is(err, pipeline.ErrInsufficientFrames) {
		fmt.Println(analysis.InsufficientFramesMessage)
		m.Close()
		l.Close()
		os.Exit(exitInsufficientFrames)
	}
	if err != nil {
		m.Close()
		l.Close()
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Violent frames: %d, Non-violent frames: %d\n", result.Summary.ViolentFrames, result.Summary.NonViolentFrames)
	fmt.Printf("Annotated video: %s\n", result.OutputPath)
}
