package driftprofile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfiles(t *testing.T) []*Profile {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	base := func(driftType DriftType) DriftConfig {
		return DriftConfig{
			Space: "fraud", Name: "risk-model", Version: "1.0.0",
			DriftType: driftType,
			Schedule:  "0 */5 * * * *",
			AlertConditions: []AlertCondition{
				{Metric: "pass_rate", Operator: "<", Threshold: 0.8, Delta: 0.01},
			},
		}
	}
	return []*Profile{
		{
			EntityID: "e-spc", Config: base(DriftTypeSPC), Status: StatusActive, NextRun: now,
			SPC: &SPCPayload{Features: map[string]FeatureLimits{
				"f1": {Center: 5, OneLCL: 4, OneUCL: 6, TwoLCL: 3, TwoUCL: 7, ThreeLCL: 2, ThreeUCL: 8, Timestamp: now},
			}},
		},
		{
			EntityID: "e-psi", Config: base(DriftTypePSI), Status: StatusActive, NextRun: now,
			PSI: &PSIPayload{Bins: map[string][]float64{"f1": {0, 1, 2, 3}}},
		},
		{
			EntityID: "e-custom", Config: base(DriftTypeCustom), Status: StatusInactive, NextRun: now,
			Custom: &CustomPayload{Baseline: map[string]float64{"latency_p99": 120.5}},
		},
		{
			EntityID: "e-llm", Config: base(DriftTypeLLM), Status: StatusActive, NextRun: now,
			LLM: &LLMPayload{SampleRate: 0.1},
		},
		{
			EntityID: "e-genai", Config: base(DriftTypeGenAI), Status: StatusActive, NextRun: now,
			GenAI: &GenAIPayload{WorkflowJSON: json.RawMessage(`{"tasks":[]}`)},
		},
	}
}

func TestProfileJSONRoundTrip(t *testing.T) {
	for _, p := range sampleProfiles(t) {
		body, err := json.Marshal(p)
		require.NoError(t, err)

		var got Profile
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, p, &got)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	for _, p := range sampleProfiles(t) {
		require.NoError(t, SaveToFile(dir, p))
		got, err := LoadFromFile(dir, p.Config.DriftType)
		require.NoError(t, err)
		assert.Equal(t, p.Config, got.Config)
	}
}

func TestKeyIdentity(t *testing.T) {
	c := DriftConfig{Space: "s", Name: "n", Version: "v", DriftType: DriftTypeSPC}
	assert.Equal(t, Key{Space: "s", Name: "n", Version: "v", DriftType: DriftTypeSPC}, c.Key())
}
