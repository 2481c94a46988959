package driftprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsWellFormedProfiles(t *testing.T) {
	for _, p := range sampleProfiles(t) {
		assert.NoError(t, p.Validate(), "drift_type=%s", p.Config.DriftType)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	profiles := sampleProfiles(t)
	p := profiles[0]
	p.Config.Schedule = ""
	assert.Error(t, p.Validate())
}

func TestValidateRejectsPayloadMismatch(t *testing.T) {
	profiles := sampleProfiles(t)
	p := profiles[0] // declares spc, carries SPC payload
	p.PSI = &PSIPayload{Bins: map[string][]float64{"f1": {0, 1}}}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsMissingPayload(t *testing.T) {
	p := &Profile{
		Config: DriftConfig{Space: "s", Name: "n", Version: "v", DriftType: DriftTypeSPC, Schedule: "0 * * * * *"},
	}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	profiles := sampleProfiles(t)
	p := profiles[0]
	p.Config.AlertConditions[0].Operator = "~="
	assert.Error(t, p.Validate())
}
