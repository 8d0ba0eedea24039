package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ImgHeight != 129 || cfg.ImgWidth != 129 {
		t.Errorf("Expected 129x129 resize target, got %dx%d", cfg.ImgWidth, cfg.ImgHeight)
	}
	if cfg.SequenceLength != 10 {
		t.Errorf("Expected sequence length 10, got %d", cfg.SequenceLength)
	}
	if cfg.Threshold != 0.5 {
		t.Errorf("Expected threshold 0.5, got %v", cfg.Threshold)
	}
	if cfg.OutputCodec != "mp4v" || cfg.OutputFPS != 20 {
		t.Errorf("Unexpected output settings: %s @ %v fps", cfg.OutputCodec, cfg.OutputFPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEQUENCE_LENGTH", "16")
	t.Setenv("THRESHOLD", "0.7")
	t.Setenv("OUTPUT_CODEC", "avc1")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "50")
	t.Setenv("IMG_HEIGHT", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.SequenceLength != 16 {
		t.Errorf("Expected sequence length 16, got %d", cfg.SequenceLength)
	}
	if cfg.Threshold != 0.7 {
		t.Errorf("Expected threshold 0.7, got %v", cfg.Threshold)
	}
	if cfg.OutputCodec != "avc1" {
		t.Errorf("Expected codec avc1, got %s", cfg.OutputCodec)
	}
	if cfg.MaxUploadSizeMB != 50 {
		t.Errorf("Expected upload limit 50, got %d", cfg.MaxUploadSizeMB)
	}
	if cfg.ImgHeight != 129 {
		t.Errorf("Invalid value should fall back to default, got %d", cfg.ImgHeight)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"zero height", func(c *Config) { c.ImgHeight = 0 }, "resize target"},
		{"negative width", func(c *Config) { c.ImgWidth = -1 }, "resize target"},
		{"zero sequence", func(c *Config) { c.SequenceLength = 0 }, "sequence length"},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }, "threshold"},
		{"threshold below zero", func(c *Config) { c.Threshold = -0.1 }, "threshold"},
		{"zero fps", func(c *Config) { c.OutputFPS = 0 }, "fps"},
		{"bad codec", func(c *Config) { c.OutputCodec = "h264x" }, "FourCC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
