package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// HTTPExporter posts each event as JSON to a tracing endpoint.
type HTTPExporter struct {
	endpoint   string
	apiKey     string
	project    string
	httpClient *http.Client
}

// HTTPExporterConfig holds the tracing endpoint settings.
type HTTPExporterConfig struct {
	Endpoint string
	APIKey   string
	Project  string
	Timeout  time.Duration
}

// NewHTTPExporter creates an exporter.
func NewHTTPExporter(cfg *HTTPExporterConfig) (*HTTPExporter, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tracing API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExportTimeout
	}

	return &HTTPExporter{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		project:    cfg.Project,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type tracePayload struct {
	Project string                 `json:"project,omitempty"`
	Name    string                 `json:"name"`
	RunType string                 `json:"run_type"`
	Event   *models.TelemetryEvent `json:"event"`
}

// Export sends one event.
func (e *HTTPExporter) Export(ctx context.Context, event *models.TelemetryEvent) error {
	body, err := json.Marshal(tracePayload{
		Project: e.project,
		Name:    "pm-assistant." + event.Mode,
		RunType: "llm",
		Event:   event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send trace: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tracing endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
