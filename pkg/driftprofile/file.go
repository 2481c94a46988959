package driftprofile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
)

// fileNames maps each drift type to its fixed on-disk filename.
var fileNames = map[DriftType]string{
	DriftTypeSPC:    "spc_drift_profile.json",
	DriftTypePSI:    "psi_drift_profile.json",
	DriftTypeCustom: "custom_drift_profile.json",
	DriftTypeLLM:    "llm_drift_profile.json",
	DriftTypeGenAI:  "genai_drift_profile.json",
}

// SaveToFile writes p to its fixed filename under dir.
func SaveToFile(dir string, p *Profile) error {
	name, ok := fileNames[p.Config.DriftType]
	if !ok {
		return xerrors.Config("driftprofile.SaveToFile", errUnknownDriftType(p.Config.DriftType))
	}
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return xerrors.Config("driftprofile.SaveToFile marshal", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
		return xerrors.Store("driftprofile.SaveToFile write", err)
	}
	return nil
}

// LoadFromFile reads a profile of the given drift type from its fixed
// filename under dir.
func LoadFromFile(dir string, driftType DriftType) (*Profile, error) {
	name, ok := fileNames[driftType]
	if !ok {
		return nil, xerrors.Config("driftprofile.LoadFromFile", errUnknownDriftType(driftType))
	}
	body, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, xerrors.Store("driftprofile.LoadFromFile read", err)
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, xerrors.Config("driftprofile.LoadFromFile unmarshal", err)
	}
	return &p, nil
}

type errUnknownDriftType DriftType

func (e errUnknownDriftType) Error() string {
	return "unknown drift type: " + string(e)
}
