package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
)

type fakeRecordSource struct {
	spcRecs    []SpcRecord
	psiRecs    []PsiRecord
	customRecs []CustomRecord
	llmRecs    []LLMRecord
	genaiRecs  []GenAIRecord
}

func (f *fakeRecordSource) SpcRecordsSince(ctx context.Context, entityID string, since time.Time) ([]SpcRecord, error) {
	return f.spcRecs, nil
}
func (f *fakeRecordSource) PsiRecordsSince(ctx context.Context, entityID string, since time.Time) ([]PsiRecord, error) {
	return f.psiRecs, nil
}
func (f *fakeRecordSource) CustomRecordsSince(ctx context.Context, entityID string, since time.Time) ([]CustomRecord, error) {
	return f.customRecs, nil
}
func (f *fakeRecordSource) LLMRecordsSince(ctx context.Context, entityID string, since time.Time) ([]LLMRecord, error) {
	return f.llmRecs, nil
}
func (f *fakeRecordSource) GenAIRecordsSince(ctx context.Context, entityID string, since time.Time) ([]GenAIRecord, error) {
	return f.genaiRecs, nil
}

func TestSpcDrifterAlertsOnOutOfControlRate(t *testing.T) {
	limits := driftprofile.FeatureLimits{
		Center: 0, OneLCL: -1, OneUCL: 1, TwoLCL: -2, TwoUCL: 2, ThreeLCL: -3, ThreeUCL: 3,
	}
	profile := &driftprofile.Profile{
		EntityID: "e1",
		Config: driftprofile.DriftConfig{
			Name: "latency",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "latency_ms", Operator: ">", Threshold: 0.1, Delta: 0.01},
			},
		},
		SPC: &driftprofile.SPCPayload{Features: map[string]driftprofile.FeatureLimits{"latency_ms": limits}},
	}
	source := &fakeRecordSource{spcRecs: []SpcRecord{
		{EntityID: "e1", Feature: "latency_ms", Value: 10},
		{EntityID: "e1", Feature: "latency_ms", Value: 0},
		{EntityID: "e1", Feature: "latency_ms", Value: 0},
	}}

	d := &SpcDrifter{profile: profile, records: source}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "latency", alerts[0]["entity_name"])
	assert.Equal(t, "spc", alerts[0]["drift_type"])
	require.Contains(t, alerts[0], zoneBreakdownKey)

	dispatched := buildDispatchAlert(alerts[0])
	require.Contains(t, dispatched.ZoneBreakdown, "latency_ms")
	assert.Equal(t, "out_of_control", dispatched.ZoneBreakdown["latency_ms"][0].Kind)
	assert.Equal(t, 4, dispatched.ZoneBreakdown["latency_ms"][0].Zone)
	assert.NotContains(t, dispatched.Body, zoneBreakdownKey)
}

func TestSpcDrifterNoAlertWithinControl(t *testing.T) {
	limits := driftprofile.FeatureLimits{
		Center: 0, OneLCL: -1, OneUCL: 1, TwoLCL: -2, TwoUCL: 2, ThreeLCL: -3, ThreeUCL: 3,
	}
	profile := &driftprofile.Profile{
		EntityID: "e1",
		Config: driftprofile.DriftConfig{
			Name: "latency",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "latency_ms", Operator: ">", Threshold: 0.5, Delta: 0.01},
			},
		},
		SPC: &driftprofile.SPCPayload{Features: map[string]driftprofile.FeatureLimits{"latency_ms": limits}},
	}
	source := &fakeRecordSource{spcRecs: []SpcRecord{
		{EntityID: "e1", Feature: "latency_ms", Value: 0},
		{EntityID: "e1", Feature: "latency_ms", Value: 0.5},
	}}

	d := &SpcDrifter{profile: profile, records: source}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestPsiDrifterBreachAlert(t *testing.T) {
	profile := &driftprofile.Profile{
		EntityID: "e2",
		Config: driftprofile.DriftConfig{
			Name: "ctr",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "bucket", Operator: ">", Threshold: 0.1, Delta: 0.0},
			},
		},
		PSI: &driftprofile.PSIPayload{Bins: map[string][]float64{"bucket": {0, 1, 2, 3}}},
	}
	source := &fakeRecordSource{psiRecs: []PsiRecord{
		{EntityID: "e2", Feature: "bucket", BinID: 0, BinCount: 100},
		{EntityID: "e2", Feature: "bucket", BinID: 1, BinCount: 0},
		{EntityID: "e2", Feature: "bucket", BinID: 2, BinCount: 0},
		{EntityID: "e2", Feature: "bucket", BinID: 3, BinCount: 0},
	}}

	d := &PsiDrifter{profile: profile, records: source}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "psi", alerts[0]["drift_type"])
}

func TestCustomDrifterBreach(t *testing.T) {
	profile := &driftprofile.Profile{
		EntityID: "e3",
		Config: driftprofile.DriftConfig{
			Name: "cost",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "usd_per_call", Operator: ">", Threshold: 0.005, Delta: 0.001},
			},
		},
		Custom: &driftprofile.CustomPayload{Baseline: map[string]float64{"usd_per_call": 0.01}},
	}
	source := &fakeRecordSource{customRecs: []CustomRecord{
		{EntityID: "e3", Metric: "usd_per_call", Value: 0.02},
		{EntityID: "e3", Metric: "usd_per_call", Value: 0.02},
	}}

	d := &CustomDrifter{profile: profile, records: source}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestLlmDrifterEmptyResponseRate(t *testing.T) {
	profile := &driftprofile.Profile{
		EntityID: "e4",
		Config: driftprofile.DriftConfig{
			Name: "chatbot",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "empty_response_rate", Operator: ">", Threshold: 0.1, Delta: 0.0},
			},
		},
		LLM: &driftprofile.LLMPayload{SampleRate: 1.0},
	}
	source := &fakeRecordSource{llmRecs: []LLMRecord{
		{EntityID: "e4", Request: "hi", Response: ""},
		{EntityID: "e4", Request: "hi", Response: "hello"},
	}}

	d := &LlmDrifter{profile: profile, records: source}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestGenAIDrifterAggregatesPassRate(t *testing.T) {
	workflowJSON := []byte(`{
		"tasks": [
			{"id": "t1", "kind": "assertion", "field_path": "response.text", "operator": "IsString"}
		],
		"metrics": [{"id": "t1"}]
	}`)
	profile := &driftprofile.Profile{
		EntityID: "e5",
		Config: driftprofile.DriftConfig{
			Name: "eval",
			AlertConditions: []driftprofile.AlertCondition{
				{Metric: "pass_rate", Operator: "<", Threshold: 0.8, Delta: 0.01},
			},
		},
		GenAI: &driftprofile.GenAIPayload{WorkflowJSON: workflowJSON},
	}
	source := &fakeRecordSource{genaiRecs: []GenAIRecord{
		{EntityID: "e5", Context: map[string]any{"response": map[string]any{"text": "ok"}}},
		{EntityID: "e5", Context: map[string]any{"response": map[string]any{"text": 5.0}}},
	}}

	engine := evalengine.NewEngine(nil)
	d := &GenAIDrifter{profile: profile, records: source, engine: engine}
	alerts, err := d.CheckForAlerts(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "genai", alerts[0]["drift_type"])
}
