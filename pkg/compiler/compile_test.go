package compiler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/emit"
	"github.com/svjif-labs/svjif/pkg/scene"
)

const validSource = `{
	"formatVersion": "1.0.0",
	"scene": {"id": "main", "width": 800, "height": 600},
	"nodes": [
		{"id": "r1", "kind": "Rect", "props": {"width": 100, "height": 50}},
		{"id": "t1", "kind": "Text", "parentId": "r1", "props": {"content": "hello"}}
	]
}`

func compileJSON(t *testing.T, source string, opts Options) Result {
	t.Helper()
	return Compile(context.Background(), Input{
		Format:  FormatCanonicalASTJSON,
		Source:  source,
		Options: opts,
	})
}

func codesOf(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileSuccess(t *testing.T) {
	res := compileJSON(t, validSource, Options{})
	require.True(t, res.OK, "diagnostics: %v", res.Diagnostics)
	require.NotNil(t, res.AST)

	assert.Contains(t, res.Artifacts, emit.IRPath)
	assert.Contains(t, res.Artifacts, ReceiptPath)
	assert.Contains(t, res.Artifacts, emit.TypesPath)

	assert.NotEmpty(t, res.Metadata.CompilationID)
	assert.NotEmpty(t, res.Metadata.InputHash)
	assert.NotEmpty(t, res.Metadata.IRHash)
	assert.Equal(t, emit.IRVersion, res.Metadata.IRVersion)
	assert.NotEmpty(t, res.Metadata.RulesetFingerprint)
}

func TestReceiptDeterminism(t *testing.T) {
	r1 := compileJSON(t, validSource, Options{})
	r2 := compileJSON(t, validSource, Options{})
	require.True(t, r1.OK)
	require.True(t, r2.OK)

	assert.Equal(t,
		r1.Artifacts[ReceiptPath].Content,
		r2.Artifacts[ReceiptPath].Content)
	assert.Equal(t, r1.Metadata.CompilationID, r2.Metadata.CompilationID)

	var receipt Receipt
	require.NoError(t, json.Unmarshal(r1.Artifacts[ReceiptPath].Content, &receipt))
	assert.Equal(t, ComparatorVersion, receipt.ComparatorVersion)
	assert.Equal(t, "sha256", receipt.IRHashAlg)
	assert.Equal(t, r1.Metadata.InputHash, receipt.InputHash)
	assert.Equal(t, r1.Metadata.IRHash, receipt.IRHash)
	assert.Equal(t, r1.Metadata.RulesetFingerprint, receipt.RulesetFingerprint)
}

func TestWhitespaceInvariance(t *testing.T) {
	compact := `{"scene":{"id":"main","width":800,"height":600},"nodes":[{"id":"r1","kind":"Rect","props":{"width":100,"height":50}}]}`
	indented := `{
    "scene": {
        "id": "main",
        "width": 800,
        "height": 600
    },
    "nodes": [
        {
            "id": "r1",
            "kind": "Rect",
            "props": {
                "width": 100,
                "height": 50
            }
        }
    ]
}`
	r1 := compileJSON(t, compact, Options{})
	r2 := compileJSON(t, indented, Options{})
	require.True(t, r1.OK)
	require.True(t, r2.OK)

	// Same logical scene: identical IR hash, identical IR bytes.
	assert.Equal(t, r1.Metadata.IRHash, r2.Metadata.IRHash)
	assert.Equal(t,
		r1.Artifacts[emit.IRPath].Content,
		r2.Artifacts[emit.IRPath].Content)
}

func TestCompileInputErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantCode string
	}{
		{"empty", "", diag.CodeInputEmpty},
		{"whitespace only", "  \n\t ", diag.CodeInputEmpty},
		{"invalid json", "{nope", diag.CodeInputInvalidJSON},
		{"not an object", `[1,2]`, diag.CodeInputInvalidJSON},
		{"missing scene", `{"nodes":[]}`, diag.CodeSceneMissing},
		{"multiple scenes", `{"scenes":[{"id":"a"},{"id":"b"}]}`, diag.CodeSceneMultiple},
		{"unsupported version", `{"formatVersion":"2.0.0","scene":{"id":"s","width":1,"height":1}}`, diag.CodeVersionUnsupported},
		{"unparseable version", `{"formatVersion":"latest","scene":{"id":"s","width":1,"height":1}}`, diag.CodeVersionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileJSON(t, tt.source, Options{})
			assert.False(t, res.OK)
			assert.Contains(t, codesOf(res.Diagnostics), tt.wantCode)
			assert.Empty(t, res.Artifacts)
		})
	}
}

func TestCompileValidationErrorStopsEmission(t *testing.T) {
	source := `{"scene":{"id":"main","width":800,"height":600},"nodes":[{"id":"x","kind":"Blob"}]}`
	res := compileJSON(t, source, Options{})
	assert.False(t, res.OK)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeNodeKindInvalid)
	assert.Empty(t, res.Artifacts)
}

func TestJSONSchemaRequestIsHardError(t *testing.T) {
	res := compileJSON(t, validSource, Options{
		Emit: EmitOptions{IRJSON: true, JSONSchema: true},
	})
	assert.False(t, res.OK)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeFeatureNotImplemented)
	// Rejected pre-emission: no partial artifact set.
	assert.Empty(t, res.Artifacts)
}

func TestBinaryPackRequestIsWarningOnly(t *testing.T) {
	res := compileJSON(t, validSource, Options{
		Emit: EmitOptions{IRJSON: true, BinaryPack: true},
	})
	assert.True(t, res.OK)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeBinaryPackNotImplemented)
	assert.Contains(t, res.Artifacts, emit.IRPath)
}

func TestFailOnWarnings(t *testing.T) {
	res := compileJSON(t, validSource, Options{
		Emit:           EmitOptions{IRJSON: true, BinaryPack: true},
		FailOnWarnings: true,
	})
	assert.False(t, res.OK)
	// Already-computed artifacts are kept even though success flips.
	assert.Contains(t, res.Artifacts, emit.IRPath)
}

func TestUnusedTopLevelFieldWarns(t *testing.T) {
	source := `{"scene":{"id":"s","width":1,"height":1},"theme":"dark"}`
	res := compileJSON(t, source, Options{})
	assert.True(t, res.OK)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeUnusedField)
}

func TestCanonicalizeOption(t *testing.T) {
	res := compileJSON(t, validSource, Options{Canonicalize: true})
	require.True(t, res.OK)
	assert.Contains(t, res.Artifacts, CanonicalASTPath)
}

func TestAdapterMissing(t *testing.T) {
	res := Compile(context.Background(), Input{
		Format: FormatSceneSDL,
		Source: "scene main {}",
	})
	assert.False(t, res.OK)
	require.Contains(t, codesOf(res.Diagnostics), diag.CodeInternalInvariant)
	assert.Empty(t, res.Artifacts)
}

func TestAdapterProducesAST(t *testing.T) {
	adapter := func(ctx context.Context, req AdapterRequest) (*scene.Document, error) {
		*req.Diagnostics = append(*req.Diagnostics,
			diag.Warning(diag.CodeUnusedField, "directive @legacy ignored"))
		return &scene.Document{
			Scene: &scene.Scene{ID: "from-sdl", Width: 100, Height: 100},
			Nodes: []scene.Node{{ID: "g", Kind: scene.KindGroup}},
		}, nil
	}

	res := Compile(context.Background(), Input{
		Format:  FormatSceneSDL,
		Source:  "scene main {}",
		Adapter: adapter,
	})
	require.True(t, res.OK, "diagnostics: %v", res.Diagnostics)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeUnusedField)
	assert.Contains(t, res.Artifacts, emit.IRPath)
}

func TestAdapterPanicContained(t *testing.T) {
	adapter := func(ctx context.Context, req AdapterRequest) (*scene.Document, error) {
		panic("adapter exploded")
	}
	res := Compile(context.Background(), Input{
		Format:  FormatSceneSDL,
		Source:  "scene main {}",
		Adapter: adapter,
	})
	assert.False(t, res.OK)

	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeInternalInvariant {
			found = true
			assert.Contains(t, d.Message, "adapter")
		}
	}
	assert.True(t, found)
}

func TestStrictImpliesFailOnWarnings(t *testing.T) {
	source := `{"scene":{"id":"s","width":1,"height":1},"theme":"dark"}`
	res := compileJSON(t, source, Options{Strict: true})
	assert.False(t, res.OK)
	assert.Contains(t, codesOf(res.Diagnostics), diag.CodeUnusedField)
}

func TestSingleSceneInScenesArray(t *testing.T) {
	source := `{"scenes":[{"id":"only","width":10,"height":10}]}`
	res := compileJSON(t, source, Options{})
	require.True(t, res.OK, "diagnostics: %v", res.Diagnostics)
	require.NotNil(t, res.AST.Scene)
	assert.Equal(t, "only", res.AST.Scene.ID)
}

func TestRulesetFingerprintStable(t *testing.T) {
	assert.Equal(t, RulesetFingerprint(), RulesetFingerprint())
	assert.Len(t, RulesetFingerprint(), 64)
}
