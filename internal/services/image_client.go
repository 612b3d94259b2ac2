package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// HTTPImageClassifier calls an external image classification service.
// The service receives the raw bytes and answers {"label": "...", "confidence": 0.0}.
type HTTPImageClassifier struct {
	baseURL    string
	httpClient *http.Client
}

type imageClassifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NewHTTPImageClassifier returns a client for baseURL, or nil when baseURL is empty
func NewHTTPImageClassifier(baseURL string) *HTTPImageClassifier {
	if baseURL == "" {
		return nil
	}
	return &HTTPImageClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Classify posts the image bytes to /classify and returns the top label
func (c *HTTPImageClassifier) Classify(ctx context.Context, image []byte) (scoring.ImageLabel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(image))
	if err != nil {
		return scoring.ImageLabel{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoring.ImageLabel{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return scoring.ImageLabel{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return scoring.ImageLabel{}, fmt.Errorf("image classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var result imageClassifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return scoring.ImageLabel{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return scoring.ImageLabel{}, fmt.Errorf("image classifier returned confidence %v outside [0,1]", result.Confidence)
	}
	return scoring.ImageLabel{Label: result.Label, Confidence: result.Confidence}, nil
}
