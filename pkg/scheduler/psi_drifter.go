package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
)

// PsiDrifter computes the Population Stability Index between a feature's
// reference bin distribution and its recently observed bin counts, and
// alerts when the index breaches its configured threshold.
type PsiDrifter struct {
	profile *driftprofile.Profile
	records RecordSource
}

func (d *PsiDrifter) CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error) {
	recs, err := d.records.PsiRecordsSince(ctx, d.profile.EntityID, previousRun)
	if err != nil {
		return nil, fmt.Errorf("psi drifter: fetching records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	type featureBins struct {
		counts map[int]int64
		total  int64
	}
	byFeature := make(map[string]*featureBins)
	for _, r := range recs {
		fb, ok := byFeature[r.Feature]
		if !ok {
			fb = &featureBins{counts: make(map[int]int64)}
			byFeature[r.Feature] = fb
		}
		fb.counts[r.BinID] += r.BinCount
		fb.total += r.BinCount
	}

	var alerts []AlertMap
	for feature, observed := range byFeature {
		edges, ok := d.profile.PSI.Bins[feature]
		if !ok || len(edges) == 0 || observed.total == 0 {
			continue
		}
		psi := psiIndex(edges, observed.counts, observed.total)

		cond, ok := alertCondition(d.profile.Config.AlertConditions, feature)
		if !ok {
			continue
		}
		if breached(cond, psi) {
			alerts = append(alerts, baseAlert(d.profile.Config.Name, map[string]string{
				"drift_type": "psi",
				"feature":    feature,
				"psi":        fmt.Sprintf("%.6f", psi),
			}))
		}
	}
	return alerts, nil
}

// psiIndex computes sum((actual-expected)*ln(actual/expected)) over bins,
// treating the reference edges as a uniform expected distribution across
// the bin count (the reference profile itself carries only bin edges, not
// reference counts, in this deployment).
func psiIndex(edges []float64, observedCounts map[int]int64, observedTotal int64) float64 {
	numBins := len(edges)
	if numBins == 0 {
		return 0
	}
	expected := 1.0 / float64(numBins)
	const epsilon = 1e-6

	var psi float64
	for bin := 0; bin < numBins; bin++ {
		actual := float64(observedCounts[bin]) / float64(observedTotal)
		if actual < epsilon {
			actual = epsilon
		}
		e := expected
		if e < epsilon {
			e = epsilon
		}
		psi += (actual - e) * math.Log(actual/e)
	}
	return psi
}
