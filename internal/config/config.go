package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	Password     string
	LogDirectory string

	// Classifier
	ModelPath       string
	ModelConfigPath string
	ModelServerURL  string // Gdy ustawiony, klasyfikacja idzie do zdalnego serwera modelu

	// Pipeline
	ImgHeight      int
	ImgWidth       int
	SequenceLength int
	Threshold      float64

	// Output video
	OutputFPS       float64
	OutputCodec     string // FourCC, zależny od platformy
	OutputExtension string

	UploadDirectory        string
	OutputDirectory        string
	DatabasePath           string
	MaxUploadSizeMB        int64
	MaxOutputDirectorySize int64 // Maksymalny rozmiar katalogu z wynikami w GB
	RetentionInterval      int   // Co ile sekund sprawdzać rozmiar katalogu
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                   getEnvAsInt("PORT", 8080),
		Password:               getEnv("PASSWORD", "changeme"),
		LogDirectory:           getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ModelPath:              getEnv("MODEL_PATH", filepath.Join(".", "models", "violence_detection_mobilenet_lstm.onnx")),
		ModelConfigPath:        getEnv("MODEL_CONFIG_PATH", ""),
		ModelServerURL:         getEnv("MODEL_SERVER_URL", ""),
		ImgHeight:              getEnvAsInt("IMG_HEIGHT", 129),
		ImgWidth:               getEnvAsInt("IMG_WIDTH", 129),
		SequenceLength:         getEnvAsInt("SEQUENCE_LENGTH", 10),
		Threshold:              getEnvAsFloat("THRESHOLD", 0.5),
		OutputFPS:              getEnvAsFloat("OUTPUT_FPS", 20.0),
		OutputCodec:            getEnv("OUTPUT_CODEC", "mp4v"),
		OutputExtension:        getEnv("OUTPUT_EXTENSION", ".mp4"),
		UploadDirectory:        getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		OutputDirectory:        getEnv("OUTPUT_DIR", filepath.Join(".", "outputs")),
		DatabasePath:           getEnv("DATABASE_PATH", filepath.Join(".", "data", "analyses.db")),
		MaxUploadSizeMB:        getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 200),
		MaxOutputDirectorySize: getEnvAsInt64("MAX_OUTPUT_DIRECTORY_SIZE", 4),
		RetentionInterval:      getEnvAsInt("RETENTION_INTERVAL", 300),
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ImgHeight <= 0 || c.ImgWidth <= 0 {
		return fmt.Errorf("invalid resize target %dx%d", c.ImgWidth, c.ImgHeight)
	}
	if c.SequenceLength <= 0 {
		return fmt.Errorf("invalid sequence length: %d", c.SequenceLength)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", c.Threshold)
	}
	if c.OutputFPS <= 0 {
		return fmt.Errorf("invalid output fps: %v", c.OutputFPS)
	}
	if len(c.OutputCodec) != 4 {
		return fmt.Errorf("output codec must be a 4 character FourCC, got %q", c.OutputCodec)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
