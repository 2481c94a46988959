package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/alert"
	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
	"github.com/codeready-toolchain/tarsy/pkg/spc"
)

// zoneBreakdownKey is the AlertMap key an SPC alert's zone breakdown is
// packed into as JSON text, since AlertMap itself is a flat
// map[string]string. The persisted alert row keeps the key;
// buildDispatchAlert unpacks it into alert.Alert's structured
// ZoneBreakdown and strips it from the dispatched body.
const zoneBreakdownKey = "zone_breakdown"

// SpcDrifter classifies recent feature samples against an SPC baseline
// and alerts when a feature's magnitude-4 zone rate breaches its
// configured threshold.
type SpcDrifter struct {
	profile *driftprofile.Profile
	records RecordSource
}

func (d *SpcDrifter) CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error) {
	recs, err := d.records.SpcRecordsSince(ctx, d.profile.EntityID, previousRun)
	if err != nil {
		return nil, fmt.Errorf("spc drifter: fetching records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	byFeature := make(map[string][]SpcRecord)
	for _, r := range recs {
		byFeature[r.Feature] = append(byFeature[r.Feature], r)
	}

	var alerts []AlertMap
	for feature, rows := range byFeature {
		limits, ok := d.profile.SPC.Features[feature]
		if !ok {
			continue
		}
		fp := spc.FeatureProfile{
			Center:   limits.Center,
			OneLCL:   limits.OneLCL, OneUCL: limits.OneUCL,
			TwoLCL: limits.TwoLCL, TwoUCL: limits.TwoUCL,
			ThreeLCL: limits.ThreeLCL, ThreeUCL: limits.ThreeUCL,
		}

		outOfControl := 0
		var hits []alert.ZoneHit
		for _, row := range rows {
			zone := spc.Zone(row.Value, fp)
			if abs(zone) == 4 {
				outOfControl++
				hits = append(hits, alert.ZoneHit{Kind: "out_of_control", Zone: zone})
			}
		}
		rate := float64(outOfControl) / float64(len(rows))

		cond, ok := alertCondition(d.profile.Config.AlertConditions, feature)
		if !ok {
			continue
		}
		if breached(cond, rate) {
			body := map[string]string{
				"drift_type":          "spc",
				"feature":             feature,
				"out_of_control_rate": fmt.Sprintf("%.6f", rate),
				"sample_size":         fmt.Sprintf("%d", len(rows)),
			}
			if len(hits) > 0 {
				if encoded, err := json.Marshal(map[string][]alert.ZoneHit{feature: hits}); err == nil {
					body[zoneBreakdownKey] = string(encoded)
				}
			}
			alerts = append(alerts, baseAlert(d.profile.Config.Name, body))
		}
	}
	return alerts, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
