// Package compiler orchestrates a compilation: parse, validate, emit,
// receipt. Each call is a pure, independent computation with its own
// diagnostics list and artifact map, so concurrent calls need no locking.
package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/svjif-labs/svjif/pkg/artifact"
	"github.com/svjif-labs/svjif/pkg/canonicalize"
	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/emit"
	"github.com/svjif-labs/svjif/pkg/hashing"
	"github.com/svjif-labs/svjif/pkg/scene"
	"github.com/svjif-labs/svjif/pkg/validate"
)

// compilationNamespace is the fixed UUID namespace for deterministic
// compilation ids (v5 over the raw input bytes).
var compilationNamespace = uuid.MustParse("b7a9e2c4-3f51-4d88-9a06-5e7d1c2a9f30")

// CanonicalASTPath is the optional canonicalized-input artifact path.
const CanonicalASTPath = "scene.canonical.json"

// Result is the outcome of one compilation.
type Result struct {
	OK          bool
	AST         *scene.Document
	Artifacts   map[string]artifact.Artifact
	Diagnostics []diag.Diagnostic
	Metadata    Metadata
}

// Compiler runs compilations. The zero value is not usable; construct with New.
type Compiler struct {
	logger *slog.Logger
}

// New creates a Compiler logging through slog.Default.
func New() *Compiler {
	return &Compiler{logger: slog.Default().With("component", "compiler")}
}

// WithLogger overrides the compiler's logger.
func (c *Compiler) WithLogger(l *slog.Logger) *Compiler {
	c.logger = l.With("component", "compiler")
	return c
}

// Compile runs the default compiler over in.
func Compile(ctx context.Context, in Input) Result {
	return New().Compile(ctx, in)
}

// Compile sequences parse, validate, and emit over in.
//
// All user input problems surface as diagnostics in the result; internal
// faults are contained at this boundary and converted into a single
// E_INTERNAL_INVARIANT diagnostic. Compile never panics outward.
func (c *Compiler) Compile(ctx context.Context, in Input) (res Result) {
	res = Result{
		Artifacts:   make(map[string]artifact.Artifact),
		Diagnostics: []diag.Diagnostic{},
	}
	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("internal fault: %v", r)))
		}
	}()

	res.Metadata = Metadata{
		CompilationID:      uuid.NewSHA1(compilationNamespace, []byte(in.Source)).String(),
		InputHash:          hashing.String(in.Source),
		RulesetFingerprint: RulesetFingerprint(),
	}

	// Phase 1: parse into the canonical AST.
	ast, parseDiags := c.parse(ctx, in)
	res.Diagnostics = append(res.Diagnostics, parseDiags...)
	res.AST = ast
	if ast == nil || diag.HasErrors(res.Diagnostics) {
		return res
	}

	// Phase 2: validate. Any error stops before emission.
	res.Diagnostics = append(res.Diagnostics, validate.Validate(ast)...)
	if diag.HasErrors(res.Diagnostics) {
		c.logger.Debug("compilation failed validation",
			"diagnostics", len(res.Diagnostics))
		return res
	}

	// Phase 3: emit requested artifacts.
	emitOpts := in.Options.Emit
	if emitOpts.none() {
		emitOpts = EmitOptions{IRJSON: true, TSTypes: true}
	}
	if emitOpts.JSONSchema {
		// Rejected before any emission so an unsupported request can never
		// yield a partial artifact set.
		res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeFeatureNotImplemented,
			"jsonSchema emission is not implemented").
			WithDetails(map[string]any{"target": "jsonSchema"}))
		return res
	}
	if emitOpts.BinaryPack {
		res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeBinaryPackNotImplemented,
			"binaryPack emission is not implemented, skipping").
			WithDetails(map[string]any{"target": "binaryPack"}))
	}

	if emitOpts.IRJSON {
		ir, err := emit.IR(ast)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("ir emission failed: %v", err)))
			return res
		}
		res.Artifacts[ir.Path] = ir
		res.Metadata.IRHash = hashing.Bytes(ir.Content)
		res.Metadata.IRVersion = emit.IRVersion

		receipt, err := receiptArtifact(buildReceipt(res.Metadata.InputHash, res.Metadata.IRHash))
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("receipt emission failed: %v", err)))
			return res
		}
		res.Artifacts[receipt.Path] = receipt
	}

	if emitOpts.TSTypes {
		types, err := emit.Types(ast)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("type emission failed: %v", err)))
			return res
		}
		res.Artifacts[types.Path] = types
	}

	if in.Options.Canonicalize {
		text, err := canonicalize.Stringify(ast, 2)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("ast canonicalization failed: %v", err)))
			return res
		}
		res.Artifacts[CanonicalASTPath] = artifact.Text(CanonicalASTPath, text, "application/json")
	}

	// Phase 4: success decision. Strict implies failOnWarnings.
	res.OK = true
	if (in.Options.FailOnWarnings || in.Options.Strict) && diag.HasWarnings(res.Diagnostics) {
		res.OK = false
	}

	c.logger.Debug("compilation complete",
		"ok", res.OK,
		"artifacts", len(res.Artifacts),
		"diagnostics", len(res.Diagnostics))
	return res
}

// parse dispatches on input format. Non-canonical formats go through the
// schema adapter; adapter absence or failure is an internal fault, not a
// user input problem.
func (c *Compiler) parse(ctx context.Context, in Input) (*scene.Document, []diag.Diagnostic) {
	if in.Format == FormatCanonicalASTJSON || in.Format == "" {
		return parseCanonicalJSON(in.Source)
	}

	if in.Adapter == nil {
		return nil, []diag.Diagnostic{
			diag.Error(diag.CodeInternalInvariant,
				fmt.Sprintf("no schema adapter registered for format %q", in.Format)).
				WithHint("supply Input.Adapter for non-canonical formats"),
		}
	}

	var diags []diag.Diagnostic
	ast, err := callAdapter(ctx, in, &diags)
	if err != nil {
		diags = append(diags, diag.Error(diag.CodeInternalInvariant,
			fmt.Sprintf("schema adapter for format %q failed: %v", in.Format, err)).
			WithHint("the schema adapter threw instead of reporting diagnostics"))
		return nil, diags
	}
	return ast, diags
}

// callAdapter contains adapter panics so a misbehaving adapter degrades into
// an error instead of unwinding the compilation.
func callAdapter(ctx context.Context, in Input, diags *[]diag.Diagnostic) (ast *scene.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			ast = nil
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return in.Adapter(ctx, AdapterRequest{
		Source:      in.Source,
		Filename:    in.Filename,
		Diagnostics: diags,
	})
}
