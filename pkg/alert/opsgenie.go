package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// OpsGenieSink posts alerts to OpsGenie's v2 alerts API using GenieKey
// auth, via a thin net/http client rather than a generated SDK.
type OpsGenieSink struct {
	apiURL string
	apiKey string
	team   string
	client *http.Client
	logger *slog.Logger
}

// NewOpsGenieSink builds an OpsGenieSink posting to apiURL with GenieKey
// apiKey, tagging alerts with team.
func NewOpsGenieSink(apiURL, apiKey, team string) *OpsGenieSink {
	return &OpsGenieSink{
		apiURL: apiURL,
		apiKey: apiKey,
		team:   team,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default().With("component", "alert-opsgenie"),
	}
}

type opsGenieRequest struct {
	Message     string              `json:"message"`
	Description string              `json:"description"`
	Priority    string              `json:"priority"`
	Responders  []opsGenieResponder `json:"responders,omitempty"`
}

type opsGenieResponder struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *OpsGenieSink) Dispatch(a Alert) error {
	req := opsGenieRequest{
		Message:     fmt.Sprintf("Drift alert: %s", a.EntityName),
		Description: describeIndented(a),
		Priority:    "P3",
	}
	if s.team != "" {
		req.Responders = []opsGenieResponder{{Name: s.team, Type: "team"}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		s.logger.Error("failed to marshal opsgenie alert", "error", err)
		return fmt.Errorf("marshal opsgenie alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v2/alerts", bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to build opsgenie request", "error", err)
		return fmt.Errorf("build opsgenie request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "GenieKey "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Error("opsgenie post failed", "error", err)
		return fmt.Errorf("opsgenie post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("opsgenie returned non-2xx", "status", resp.StatusCode)
		return fmt.Errorf("opsgenie returned status %d", resp.StatusCode)
	}
	return nil
}
