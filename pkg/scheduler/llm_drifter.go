package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

// LlmDrifter reads recent LLM request/response records and alerts when
// the share of empty responses breaches the profile's
// "empty_response_rate" condition, a cheap traffic-health signal
// distinct from the richer assertion-based checks in pkg/evalengine.
// The profile's SampleRate is not consulted.
type LlmDrifter struct {
	profile *driftprofile.Profile
	records RecordSource
}

func (d *LlmDrifter) CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error) {
	recs, err := d.records.LLMRecordsSince(ctx, d.profile.EntityID, previousRun)
	if err != nil {
		return nil, fmt.Errorf("llm drifter: fetching records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	empty := 0
	for _, r := range recs {
		if r.Response == "" {
			empty++
		}
	}
	emptyRate := float64(empty) / float64(len(recs))

	cond, ok := alertCondition(d.profile.Config.AlertConditions, "empty_response_rate")
	if !ok {
		return nil, nil
	}
	if !breached(cond, emptyRate) {
		return nil, nil
	}
	return []AlertMap{baseAlert(d.profile.Config.Name, map[string]string{
		"drift_type":        "llm",
		"empty_response_rate": fmt.Sprintf("%.6f", emptyRate),
		"sample_size":        fmt.Sprintf("%d", len(recs)),
	})}, nil
}
