package ai

import (
	"context"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"violencedetector/internal/config"
	"violencedetector/internal/logger"
	"violencedetector/internal/pipeline"

	"gocv.io/x/gocv"
)

// DNNClassifier runs the sequence model locally through OpenCV's dnn module.
// A gocv.Net is not safe for concurrent use, so Classify calls are serialized.
type DNNClassifier struct {
	net        gocv.Net
	modelPath  string
	configPath string
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewDNNClassifier loads the model once. The model file must already be on
// disk; fetching or verifying weights is the deployment's job.
func NewDNNClassifier(cfg *config.Config, logger *logger.Logger) (*DNNClassifier, error) {
	c := &DNNClassifier{
		modelPath:  cfg.ModelPath,
		configPath: cfg.ModelConfigPath,
		logger:     logger,
	}

	if err := c.initializeNet(); err != nil {
		return nil, err
	}
	return c, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (c *DNNClassifier) initializeNet() error {
	if _, err := os.Stat(c.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", c.modelPath)
	}
	if c.configPath != "" {
		if _, err := os.Stat(c.configPath); os.IsNotExist(err) {
			return fmt.Errorf("model config file not found: %s", c.configPath)
		}
	}

	net := gocv.ReadNet(c.modelPath, c.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", c.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	c.net = net
	c.logger.Info("Classification network loaded from %s", c.modelPath)
	return nil
}

// Classify feeds the (1, seq, H, W, C) batch to the network and reads the
// first output value as the violence probability.
func (c *DNNClassifier) Classify(ctx context.Context, batch pipeline.Batch) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(batch.Data) == 0 {
		return 0, fmt.Errorf("empty batch")
	}

	blob, err := gocv.NewMatWithSizesFromBytes(batch.Shape[:], gocv.MatTypeCV32F, float32Bytes(batch.Data))
	if err != nil {
		return 0, fmt.Errorf("failed to build input blob: %w", err)
	}
	defer blob.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.net.Empty() {
		return 0, fmt.Errorf("classification network not initialized")
	}

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	if output.Empty() || output.Total() < 1 {
		return 0, fmt.Errorf("network returned no output")
	}

	flat := output.Reshape(1, output.Total())
	defer flat.Close()
	return float64(flat.GetFloatAt(0, 0)), nil
}

// Close releases the network.
func (c *DNNClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}

// float32Bytes views the slice as raw native-endian bytes without copying.
func float32Bytes(data []float32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
