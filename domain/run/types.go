package run

import (
	"crypto/sha256"
	"fmt"

	"wdiviz/domain/core"
)

// RunFingerprint identifies the inputs of a run. Two runs with the same
// fingerprint produce the same tables and figures.
type RunFingerprint struct {
	SourceHash  core.Hash `json:"source_hash"`
	ConfigHash  core.Hash `json:"config_hash"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from the determinism parameters
func NewRunFingerprint(sourceHash, configHash core.Hash, codeVersion string) RunFingerprint {
	return RunFingerprint{
		SourceHash:  sourceHash,
		ConfigHash:  configHash,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(sourceHash, configHash, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(sourceHash, configHash core.Hash, codeVersion string) core.Hash {
	data := fmt.Sprintf("source:%s|config:%s|code:%s", sourceHash, configHash, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
