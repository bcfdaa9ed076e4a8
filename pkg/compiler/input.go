package compiler

import (
	"context"

	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/scene"
)

// Format identifies the encoding of a compiler input.
type Format string

const (
	// FormatCanonicalASTJSON is the JSON wire form of the canonical AST,
	// parsed by the compiler itself.
	FormatCanonicalASTJSON Format = "canonical-ast-json"

	// FormatSceneSDL is the external schema language. Inputs in this format
	// are delegated to the registered schema adapter.
	FormatSceneSDL Format = "scene-sdl"
)

// Input is one compilation request.
type Input struct {
	Format   Format
	Source   string
	Filename string
	Options  Options

	// Adapter parses non-canonical formats into a canonical AST. It may push
	// diagnostics into the shared list and may fail; the compiler wraps any
	// failure into a single internal-invariant diagnostic.
	Adapter Adapter
}

// Options control a compilation.
type Options struct {
	Emit           EmitOptions
	Strict         bool
	FailOnWarnings bool
	Canonicalize   bool
}

// EmitOptions enumerate the requested artifacts. When none are requested the
// compiler emits the IR and type declarations.
type EmitOptions struct {
	IRJSON     bool
	TSTypes    bool
	JSONSchema bool // unimplemented: requesting it is a hard error
	BinaryPack bool // unimplemented: requesting it is a warning only
}

func (e EmitOptions) none() bool {
	return !e.IRJSON && !e.TSTypes && !e.JSONSchema && !e.BinaryPack
}

// AdapterRequest carries the source text and the shared diagnostics list into
// a schema adapter.
type AdapterRequest struct {
	Source      string
	Filename    string
	Diagnostics *[]diag.Diagnostic
}

// Adapter converts an external schema format into a canonical AST.
type Adapter func(ctx context.Context, req AdapterRequest) (*scene.Document, error)

// Metadata binds a compilation to its inputs and ruleset.
type Metadata struct {
	CompilationID      string `json:"compilationId"`
	InputHash          string `json:"inputHash"`
	IRHash             string `json:"irHash,omitempty"`
	IRVersion          string `json:"irVersion,omitempty"`
	RulesetFingerprint string `json:"rulesetFingerprint"`
}
