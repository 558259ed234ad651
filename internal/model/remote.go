package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"premium-estimator/internal/domain"
)

// RemoteScorer delega la prediccion a un servicio externo que aloja el modelo entrenado.
type RemoteScorer struct {
	url     string
	apiKey  string
	model   string
	version string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteScorer construye un cliente HTTP apuntando al endpoint de scoring.
func NewRemoteScorer(url, model, version string, opts RemoteOptions) *RemoteScorer {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteScorer{
		url:     strings.TrimRight(url, "/"),
		apiKey:  opts.APIKey,
		model:   model,
		version: version,
		client:  client,
		logger:  logger,
	}
}

func (c *RemoteScorer) Estimate(ctx context.Context, columns []Column, row []domain.Feature) (float64, error) {
	names := make([]string, len(columns))
	values := make([]any, len(row))
	for i, col := range columns {
		names[i] = col.Name
		values[i] = row[i].Value()
	}

	bodyBytes, err := json.Marshal(scoreRequest{
		Model:   c.model,
		Version: c.version,
		Columns: names,
		Rows:    [][]any{values},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("scorer error response",
			zap.String("model_version", c.version),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return 0, fmt.Errorf("scorer http error: status=%d", resp.StatusCode)
	}

	var sr scoreResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if sr.Error != nil {
		return 0, fmt.Errorf("scorer api error: %s", sr.Error.Message)
	}
	if len(sr.Predictions) != 1 {
		return 0, fmt.Errorf("scorer returned %d predictions for 1 row", len(sr.Predictions))
	}
	return sr.Predictions[0], nil
}

type scoreRequest struct {
	Model   string   `json:"model"`
	Version string   `json:"version"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type scoreResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
