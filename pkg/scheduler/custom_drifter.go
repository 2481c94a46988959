package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

// CustomDrifter compares the mean of recent named-metric observations
// against a fixed baseline value and alerts on threshold breach.
type CustomDrifter struct {
	profile *driftprofile.Profile
	records RecordSource
}

func (d *CustomDrifter) CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error) {
	recs, err := d.records.CustomRecordsSince(ctx, d.profile.EntityID, previousRun)
	if err != nil {
		return nil, fmt.Errorf("custom drifter: fetching records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range recs {
		sums[r.Metric] += r.Value
		counts[r.Metric]++
	}

	var alerts []AlertMap
	for metric, sum := range sums {
		baseline, ok := d.profile.Custom.Baseline[metric]
		if !ok {
			continue
		}
		mean := sum / float64(counts[metric])
		delta := mean - baseline

		cond, ok := alertCondition(d.profile.Config.AlertConditions, metric)
		if !ok {
			continue
		}
		if breached(cond, delta) {
			alerts = append(alerts, baseAlert(d.profile.Config.Name, map[string]string{
				"drift_type": "custom",
				"metric":     metric,
				"mean":       fmt.Sprintf("%.6f", mean),
				"baseline":   fmt.Sprintf("%.6f", baseline),
			}))
		}
	}
	return alerts, nil
}
