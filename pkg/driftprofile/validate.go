package driftprofile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is package-global per go-playground/validator's own
// recommendation: it caches struct metadata internally and is safe for
// concurrent use, so there's no need to construct one per call.
var validate = validator.New()

// Validate checks a DriftConfig against the struct tags above and the
// cross-field rule that a profile's populated *Payload must match its
// declared DriftType.
func (p *Profile) Validate() error {
	if err := validate.Struct(p.Config); err != nil {
		return fmt.Errorf("invalid drift config: %w", err)
	}

	payloads := map[DriftType]bool{
		DriftTypeSPC:    p.SPC != nil,
		DriftTypePSI:    p.PSI != nil,
		DriftTypeCustom: p.Custom != nil,
		DriftTypeLLM:    p.LLM != nil,
		DriftTypeGenAI:  p.GenAI != nil,
	}
	if !payloads[p.Config.DriftType] {
		return fmt.Errorf("profile declares drift_type %q but its payload is nil", p.Config.DriftType)
	}
	for dt, present := range payloads {
		if present && dt != p.Config.DriftType {
			return fmt.Errorf("profile declares drift_type %q but also carries a %q payload", p.Config.DriftType, dt)
		}
	}
	return nil
}
