package compiler

import (
	"fmt"
	"strings"

	"github.com/svjif-labs/svjif/pkg/artifact"
	"github.com/svjif-labs/svjif/pkg/canonicalize"
	"github.com/svjif-labs/svjif/pkg/emit"
	"github.com/svjif-labs/svjif/pkg/hashing"
	"github.com/svjif-labs/svjif/pkg/validate"
)

const (
	// ComparatorVersion versions the receipt format itself.
	ComparatorVersion = "1"

	// ReceiptPath is the receipt artifact path within an artifact set.
	ReceiptPath = emit.IRPath + ".receipt"
)

// Receipt certifies which input and ruleset produced a given IR, for
// reproducibility audits. Two compilations of byte-identical input produce
// byte-identical receipts.
type Receipt struct {
	ComparatorVersion  string `json:"comparatorVersion"`
	InputHash          string `json:"inputHash"`
	IRHash             string `json:"irHash"`
	IRHashAlg          string `json:"irHashAlg"`
	IRVersion          string `json:"irVersion"`
	RulesetFingerprint string `json:"rulesetFingerprint"`
}

// RulesetFingerprint digests the sorted validator rule ids, joined by
// newlines. It changes exactly when the applied rule set changes.
func RulesetFingerprint() string {
	return hashing.String(strings.Join(validate.RuleIDs(), "\n"))
}

func buildReceipt(inputHash, irHash string) Receipt {
	return Receipt{
		ComparatorVersion:  ComparatorVersion,
		InputHash:          inputHash,
		IRHash:             irHash,
		IRHashAlg:          hashing.Alg,
		IRVersion:          emit.IRVersion,
		RulesetFingerprint: RulesetFingerprint(),
	}
}

func receiptArtifact(r Receipt) (artifact.Artifact, error) {
	content, err := canonicalize.Compact(r)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("serialize receipt: %w", err)
	}
	return artifact.Artifact{
		Path:      ReceiptPath,
		Content:   content,
		MediaType: "application/json",
	}, nil
}
