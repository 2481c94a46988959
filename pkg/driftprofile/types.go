// Package driftprofile defines the DriftProfile variant types and a
// parameterized-SQL-backed store for persisting and retrieving them.
package driftprofile

import (
	"encoding/json"
	"time"
)

// DriftType enumerates the closed set of drift-profile variants.
type DriftType string

const (
	DriftTypeSPC    DriftType = "spc"
	DriftTypePSI    DriftType = "psi"
	DriftTypeCustom DriftType = "custom"
	DriftTypeLLM    DriftType = "llm"
	DriftTypeGenAI  DriftType = "genai"
)

// Status is the profile's active/inactive lifecycle flag.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// AlertCondition describes a threshold rule attached to a drift config,
// e.g. "pass_rate < 0.8 delta 0.01".
type AlertCondition struct {
	Metric    string  `json:"metric" validate:"required"`
	Operator  string  `json:"operator" validate:"required,oneof=< <= > >= =="` // "<", "<=", ">", ">=", "=="
	Threshold float64 `json:"threshold"`
	Delta     float64 `json:"delta" validate:"gte=0"`
}

// DispatchConfig selects which alert sink a profile's alerts are routed
// to and carries the sink-specific routing detail.
type DispatchConfig struct {
	Sink         string `json:"sink"` // "console", "slack", "opsgenie"
	SlackChannel string `json:"slack_channel,omitempty"`
}

// DriftConfig is the set of fields every DriftProfile variant carries.
type DriftConfig struct {
	Space             string           `json:"space" validate:"required"`
	Name              string           `json:"name" validate:"required"`
	Version           string           `json:"version" validate:"required"`
	DriftType         DriftType        `json:"drift_type" validate:"required,oneof=spc psi custom llm genai"`
	AlertConditions   []AlertCondition `json:"alert_conditions,omitempty" validate:"dive"`
	FeaturesToMonitor []string         `json:"features_to_monitor,omitempty"`
	Schedule          string           `json:"schedule" validate:"required"` // 6-field cron
	Dispatch          DispatchConfig   `json:"dispatch,omitempty"`
}

// Key is the profile's identity tuple.
type Key struct {
	Space     string
	Name      string
	Version   string
	DriftType DriftType
}

func (c DriftConfig) Key() Key {
	return Key{Space: c.Space, Name: c.Name, Version: c.Version, DriftType: c.DriftType}
}

// Profile is the tagged-variant envelope persisted in the drift_profile
// table. Exactly one of the *Payload fields is populated, selected by
// Config.DriftType — modeled as a Go struct with one active payload field
// rather than an interface hierarchy, since the variant set is closed and
// needs no dynamic dispatch.
type Profile struct {
	EntityID string      `json:"entity_id"`
	Config   DriftConfig `json:"config"`
	Status   Status      `json:"status"`
	NextRun  time.Time   `json:"next_run"`

	SPC    *SPCPayload    `json:"spc,omitempty"`
	PSI    *PSIPayload    `json:"psi,omitempty"`
	Custom *CustomPayload `json:"custom,omitempty"`
	LLM    *LLMPayload    `json:"llm,omitempty"`
	GenAI  *GenAIPayload  `json:"genai,omitempty"`
}

// SPCPayload carries the per-feature baseline for an SPC profile.
type SPCPayload struct {
	Features map[string]FeatureLimits `json:"features"`
}

// FeatureLimits mirrors pkg/spc.FeatureProfile for JSON round-tripping
// without importing pkg/spc into the persistence layer.
type FeatureLimits struct {
	Center                   float64   `json:"center"`
	OneLCL                   float64   `json:"one_lcl"`
	OneUCL                   float64   `json:"one_ucl"`
	TwoLCL                   float64   `json:"two_lcl"`
	TwoUCL                   float64   `json:"two_ucl"`
	ThreeLCL                 float64   `json:"three_lcl"`
	ThreeUCL                 float64   `json:"three_ucl"`
	Timestamp                time.Time `json:"timestamp"`
}

// PSIPayload carries the binned reference distribution for a PSI profile.
type PSIPayload struct {
	Bins map[string][]float64 `json:"bins"` // feature -> bin edges
}

// CustomPayload carries an arbitrary named-metric baseline.
type CustomPayload struct {
	Baseline map[string]float64 `json:"baseline"`
}

// LLMPayload carries a sampling strategy for LLM request/response drift.
type LLMPayload struct {
	SampleRate float64 `json:"sample_rate"`
}

// GenAIPayload carries an evaluation workflow's compiled definition.
type GenAIPayload struct {
	WorkflowJSON json.RawMessage `json:"workflow"`
}

// MarshalJSON and UnmarshalJSON are the identity functions already
// provided by encoding/json's struct tags above; Profile round-trips via
// json.Marshal/json.Unmarshal directly.
