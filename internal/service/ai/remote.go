package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"violencedetector/internal/pipeline"
)

// RemoteClassifier sends each window to a model server speaking the
// TensorFlow Serving REST predict protocol.
type RemoteClassifier struct {
	url    string
	client *http.Client
}

type predictRequest struct {
	Instances [][][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

// NewRemoteClassifier targets a predict endpoint such as
// http://localhost:8501/v1/models/violence:predict.
func NewRemoteClassifier(url string) *RemoteClassifier {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 1 * time.Minute,
		}).DialContext,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       2 * time.Minute,
		ResponseHeaderTimeout: 1 * time.Minute,
	}
	return &RemoteClassifier{
		url: url,
		client: &http.Client{
			Transport: tr,
			Timeout:   2 * time.Minute,
		},
	}
}

func (c *RemoteClassifier) Classify(ctx context.Context, batch pipeline.Batch) (float64, error) {
	b, err := json.Marshal(predictRequest{Instances: [][][][][]float32{instance(batch)}})
	if err != nil {
		return 0, fmt.Errorf("predict marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		return 0, fmt.Errorf("predict %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("predict decode: %w", err)
	}
	if out.Error != "" {
		return 0, fmt.Errorf("predict: %s", out.Error)
	}
	if len(out.Predictions) != 1 || len(out.Predictions[0]) < 1 {
		return 0, fmt.Errorf("predict: expected one prediction, got %v", out.Predictions)
	}
	return out.Predictions[0][0], nil
}

// instance reshapes the flat batch into [seq][h][w][c].
func instance(batch pipeline.Batch) [][][][]float32 {
	seq, h, w, c := batch.Shape[1], batch.Shape[2], batch.Shape[3], batch.Shape[4]
	out := make([][][][]float32, seq)
	for s := 0; s < seq; s++ {
		frame := batch.Frame(s)
		rows := make([][][]float32, h)
		for y := 0; y < h; y++ {
			cols := make([][]float32, w)
			for x := 0; x < w; x++ {
				off := (y*w + x) * c
				cols[x] = frame[off : off+c]
			}
			rows[y] = cols
		}
		out[s] = rows
	}
	return out
}

// Close drops idle connections to the model server.
func (c *RemoteClassifier) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
