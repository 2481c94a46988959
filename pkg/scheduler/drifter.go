package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
)

// AlertMap is a single alert's rendered body.
type AlertMap = map[string]string

// Drifter computes a drift profile's alerts against records observed
// since previousRun. Each DriftType in driftprofile.Profile gets its own
// Drifter implementation.
type Drifter interface {
	CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error)
}

// DrifterFactory selects the Drifter implementation for a claimed
// profile, matching on Config.DriftType.
type DrifterFactory interface {
	For(p *driftprofile.Profile) (Drifter, error)
}

// SpcRecord is one sampled feature observation pulled from SQL for SPC
// drift computation.
type SpcRecord struct {
	EntityID  string
	Feature   string
	Value     float64
	CreatedAt time.Time
}

// PsiRecord is one binned observation for PSI drift computation.
type PsiRecord struct {
	EntityID  string
	Feature   string
	BinID     int
	BinCount  int64
	CreatedAt time.Time
}

// CustomRecord is one named-metric observation.
type CustomRecord struct {
	EntityID  string
	Metric    string
	Value     float64
	CreatedAt time.Time
}

// LLMRecord is one sampled LLM request/response pair.
type LLMRecord struct {
	EntityID  string
	Request   string
	Response  string
	CreatedAt time.Time
}

// GenAIRecord is one context record to evaluate against a compiled
// evaluation workflow.
type GenAIRecord struct {
	EntityID  string
	Context   map[string]any
	CreatedAt time.Time
}

// RecordSource pulls recent records from SQL, filtered by
// created_at > previousRun.
type RecordSource interface {
	SpcRecordsSince(ctx context.Context, entityID string, since time.Time) ([]SpcRecord, error)
	PsiRecordsSince(ctx context.Context, entityID string, since time.Time) ([]PsiRecord, error)
	CustomRecordsSince(ctx context.Context, entityID string, since time.Time) ([]CustomRecord, error)
	LLMRecordsSince(ctx context.Context, entityID string, since time.Time) ([]LLMRecord, error)
	GenAIRecordsSince(ctx context.Context, entityID string, since time.Time) ([]GenAIRecord, error)
}

// factory is the default DrifterFactory, wiring each variant's Drifter
// to a shared RecordSource and provider pool set.
type factory struct {
	records RecordSource
	engine  *evalengine.Engine
}

// NewDrifterFactory builds the standard factory dispatching by
// driftprofile.DriftType.
func NewDrifterFactory(records RecordSource, engine *evalengine.Engine) DrifterFactory {
	return &factory{records: records, engine: engine}
}

func (f *factory) For(p *driftprofile.Profile) (Drifter, error) {
	switch p.Config.DriftType {
	case driftprofile.DriftTypeSPC:
		if p.SPC == nil {
			return nil, fmt.Errorf("profile %q declares drift_type spc but has no spc payload", p.EntityID)
		}
		return &SpcDrifter{profile: p, records: f.records}, nil
	case driftprofile.DriftTypePSI:
		if p.PSI == nil {
			return nil, fmt.Errorf("profile %q declares drift_type psi but has no psi payload", p.EntityID)
		}
		return &PsiDrifter{profile: p, records: f.records}, nil
	case driftprofile.DriftTypeCustom:
		if p.Custom == nil {
			return nil, fmt.Errorf("profile %q declares drift_type custom but has no custom payload", p.EntityID)
		}
		return &CustomDrifter{profile: p, records: f.records}, nil
	case driftprofile.DriftTypeLLM:
		if p.LLM == nil {
			return nil, fmt.Errorf("profile %q declares drift_type llm but has no llm payload", p.EntityID)
		}
		return &LlmDrifter{profile: p, records: f.records}, nil
	case driftprofile.DriftTypeGenAI:
		if p.GenAI == nil {
			return nil, fmt.Errorf("profile %q declares drift_type genai but has no genai payload", p.EntityID)
		}
		return &GenAIDrifter{profile: p, records: f.records, engine: f.engine}, nil
	default:
		return nil, fmt.Errorf("unknown drift_type %q", p.Config.DriftType)
	}
}

func alertCondition(conditions []driftprofile.AlertCondition, metric string) (driftprofile.AlertCondition, bool) {
	for _, c := range conditions {
		if c.Metric == metric {
			return c, true
		}
	}
	return driftprofile.AlertCondition{}, false
}

func breached(cond driftprofile.AlertCondition, value float64) bool {
	switch cond.Operator {
	case "<":
		return value < cond.Threshold-cond.Delta
	case "<=":
		return value <= cond.Threshold+cond.Delta
	case ">":
		return value > cond.Threshold+cond.Delta
	case ">=":
		return value >= cond.Threshold-cond.Delta
	case "==":
		diff := value - cond.Threshold
		if diff < 0 {
			diff = -diff
		}
		return diff <= cond.Delta
	default:
		return false
	}
}

func baseAlert(entityName string, extra map[string]string) AlertMap {
	m := AlertMap{"entity_name": entityName}
	for k, v := range extra {
		m[k] = v
	}
	return m
}
