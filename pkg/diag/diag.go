// Package diag defines the diagnostic vocabulary of the compiler.
//
// Every recoverable user-facing failure is a value appended to a list and
// returned, never thrown. Codes are stable identifiers and MUST NOT be
// repurposed between releases.
package diag

import "github.com/svjif-labs/svjif/pkg/scene"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Input and parse errors.
const (
	CodeInputEmpty              = "E_INPUT_EMPTY"
	CodeInputInvalidJSON        = "E_INPUT_INVALID_JSON"
	CodeInputInvalidSDL         = "E_INPUT_INVALID_SDL"
	CodeSceneMissing            = "E_SCENE_MISSING"
	CodeSceneMultiple           = "E_SCENE_MULTIPLE"
	CodeVersionUnsupported      = "E_VERSION_UNSUPPORTED"
	CodeDirectiveArgMissing     = "E_DIRECTIVE_ARG_MISSING"
	CodeDirectiveArgInvalidType = "E_DIRECTIVE_ARG_INVALID_TYPE"
)

// Validation errors.
const (
	CodeSceneDimensionsInvalid = "E_SCENE_DIMENSIONS_INVALID"
	CodeNodeKindInvalid        = "E_NODE_KIND_INVALID"
	CodeNodeDuplicateID        = "E_NODE_DUPLICATE_ID"
	CodeParentNotFound         = "E_PARENT_NOT_FOUND"
	CodeCycleDetected          = "E_CYCLE_DETECTED"
	CodePropRequiredMissing    = "E_PROP_REQUIRED_MISSING"
	CodeBindTargetNotFound     = "E_BIND_TARGET_NOT_FOUND"
	CodeRefTargetNotFound      = "E_REF_TARGET_NOT_FOUND"
)

// Emit and runtime errors.
const (
	CodeFeatureNotImplemented = "E_FEATURE_NOT_IMPLEMENTED"
	CodeInternalInvariant     = "E_INTERNAL_INVARIANT"
)

// Warnings.
const (
	CodeUnusedField              = "W_UNUSED_FIELD"
	CodeBinaryPackNotImplemented = "W_BINARY_PACK_NOT_IMPLEMENTED"
)

// AllCodes returns the full closed code taxonomy.
func AllCodes() []string {
	return []string{
		CodeInputEmpty,
		CodeInputInvalidJSON,
		CodeInputInvalidSDL,
		CodeSceneMissing,
		CodeSceneMultiple,
		CodeVersionUnsupported,
		CodeDirectiveArgMissing,
		CodeDirectiveArgInvalidType,
		CodeSceneDimensionsInvalid,
		CodeNodeKindInvalid,
		CodeNodeDuplicateID,
		CodeParentNotFound,
		CodeCycleDetected,
		CodePropRequiredMissing,
		CodeBindTargetNotFound,
		CodeRefTargetNotFound,
		CodeFeatureNotImplemented,
		CodeInternalInvariant,
		CodeUnusedField,
		CodeBinaryPackNotImplemented,
	}
}

// Diagnostic is one user-facing finding.
type Diagnostic struct {
	Code     string           `json:"code"`
	Severity Severity         `json:"severity"`
	Message  string           `json:"message"`
	Loc      *scene.SourceLoc `json:"loc,omitempty"`
	Hint     string           `json:"hint,omitempty"`
	Details  map[string]any   `json:"details,omitempty"`
}

// Error builds an error-severity diagnostic.
func Error(code, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, Message: message}
}

// Warning builds a warning-severity diagnostic.
func Warning(code, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, Message: message}
}

// WithDetails attaches structured details and returns the diagnostic.
func (d Diagnostic) WithDetails(details map[string]any) Diagnostic {
	d.Details = details
	return d
}

// WithHint attaches a hint and returns the diagnostic.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hint = hint
	return d
}

// WithLoc attaches a source location and returns the diagnostic.
func (d Diagnostic) WithLoc(loc *scene.SourceLoc) Diagnostic {
	d.Loc = loc
	return d
}

// HasErrors reports whether any diagnostic carries error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic carries warning severity.
func HasWarnings(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
