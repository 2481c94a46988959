// Package spc builds SPC drift profiles from a baseline feature matrix and
// classifies incoming sample vectors into Western-Electric zones against
// those profiles.
package spc

import (
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
	"github.com/codeready-toolchain/tarsy/pkg/spcmath"
)

// FeatureProfile is the persisted per-feature baseline: center line plus
// the one/two/three-sigma control limits on either side.
type FeatureProfile struct {
	Center                   float64
	OneLCL, OneUCL           float64
	TwoLCL, TwoUCL           float64
	ThreeLCL, ThreeUCL       float64
	Timestamp                time.Time
}

// Profile is the per-feature-name baseline built from a training matrix.
type Profile struct {
	Features map[string]FeatureProfile
	// Order preserves the column ordering the baseline was built from, so
	// FeaturesToMonitor (Open Question (a)) can be applied consistently.
	Order []string
}

// BuildProfile constructs a Profile from a 2-D array X[n,m] and the
// feature names labeling its m columns.
func BuildProfile(x [][]float64, featureNames []string) (*Profile, error) {
	if len(x) > 0 && len(x[0]) != len(featureNames) {
		return nil, xerrors.Compute("spc.BuildProfile",
			fmt.Errorf("feature count mismatch: array has %d columns, %d names given", len(x[0]), len(featureNames)))
	}

	limits, err := spcmath.Baseline(x)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Profile{
		Features: make(map[string]FeatureProfile, len(featureNames)),
		Order:    append([]string(nil), featureNames...),
	}
	for i, name := range featureNames {
		l := limits[i]
		p.Features[name] = FeatureProfile{
			Center:   l.Center,
			OneLCL:   l.OneLCL,
			OneUCL:   l.OneUCL,
			TwoLCL:   l.TwoLCL,
			TwoUCL:   l.TwoUCL,
			ThreeLCL: l.ThreeLCL,
			ThreeUCL: l.ThreeUCL,
			Timestamp: now,
		}
	}
	return p, nil
}

// Zone classifies a single value against one feature's control limits,
// including the upper-half [lower,upper) / lower-half (lower,upper]
// tie-break rule.
func Zone(v float64, f FeatureProfile) int {
	switch {
	case v == f.Center:
		return 0
	case v > f.ThreeUCL:
		return 4
	case v >= f.TwoUCL:
		return 3
	case v >= f.OneUCL:
		return 2
	case v > f.Center:
		return 1
	case v < f.ThreeLCL:
		return -4
	case v <= f.TwoLCL:
		return -3
	case v <= f.OneLCL:
		return -2
	case v < f.Center:
		return -1
	default:
		return 0
	}
}

// Classify maps a sample vector v (one value per featureNames entry) to a
// signed zone per feature. A feature name absent from the profile is
// skipped (reported as zone 0) rather than treated as an error. Caller
// must ensure len(v) == len(featureNames); a mismatch is a fatal
// ComputeError.
func Classify(p *Profile, featureNames []string, v []float64) (map[string]int, error) {
	if len(v) != len(featureNames) {
		return nil, xerrors.Compute("spc.Classify",
			fmt.Errorf("sample width %d does not match %d feature names", len(v), len(featureNames)))
	}
	zones := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		f, ok := p.Features[name]
		if !ok {
			zones[name] = 0
			continue
		}
		zones[name] = Zone(v[i], f)
	}
	return zones, nil
}
