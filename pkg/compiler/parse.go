package compiler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/scene"
)

// documentSchema is the structural contract for canonical-AST JSON input.
// Value-level rules (dimensions, kinds, references) belong to the validator;
// the schema only pins the top-level shape.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"formatVersion": {"type": "string"},
		"scene": {
			"type": "object",
			"required": ["id"],
			"properties": {"id": {"type": "string"}}
		},
		"scenes": {"type": "array", "items": {"type": "object"}},
		"nodes": {
			"type": "array",
			"items": {"type": "object", "required": ["id", "kind"]}
		},
		"bindings": {"type": "array"},
		"animations": {"type": "array"}
	}
}`

var compiledSchema = jsonschema.MustCompileString("canonical-ast.schema.json", documentSchema)

// supportedVersions gates the optional formatVersion declaration.
var supportedVersions = mustConstraint("^1")

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// knownTopLevelFields are the recognized keys of a canonical-AST document.
var knownTopLevelFields = map[string]bool{
	"formatVersion": true,
	"scene":         true,
	"scenes":        true,
	"nodes":         true,
	"bindings":      true,
	"animations":    true,
}

// wireDocument is the JSON decode target. A document may carry either a
// single scene object or a scenes array holding exactly one scene.
type wireDocument struct {
	FormatVersion string            `json:"formatVersion"`
	Scene         *scene.Scene      `json:"scene"`
	Scenes        []scene.Scene     `json:"scenes"`
	Nodes         []scene.Node      `json:"nodes"`
	Bindings      []scene.Binding   `json:"bindings"`
	Animations    []scene.Animation `json:"animations"`
}

// parseCanonicalJSON turns canonical-AST JSON source into a Document.
// All findings are diagnostics; a nil document means parsing failed.
func parseCanonicalJSON(source string) (*scene.Document, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	if strings.TrimSpace(source) == "" {
		return nil, append(diags, diag.Error(diag.CodeInputEmpty, "input source is empty"))
	}

	var generic any
	if err := json.Unmarshal([]byte(source), &generic); err != nil {
		return nil, append(diags, diag.Error(diag.CodeInputInvalidJSON,
			fmt.Sprintf("input is not valid JSON: %v", err)))
	}
	top, ok := generic.(map[string]any)
	if !ok {
		return nil, append(diags, diag.Error(diag.CodeInputInvalidJSON,
			"input must be a JSON object"))
	}

	if err := compiledSchema.Validate(generic); err != nil {
		return nil, append(diags, diag.Error(diag.CodeInputInvalidJSON,
			fmt.Sprintf("input does not match the canonical AST shape: %v", err)))
	}

	var doc wireDocument
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		return nil, append(diags, diag.Error(diag.CodeInputInvalidJSON,
			fmt.Sprintf("input does not match the canonical AST shape: %v", err)))
	}

	if doc.FormatVersion != "" {
		ver, err := semver.NewVersion(doc.FormatVersion)
		if err != nil || !supportedVersions.Check(ver) {
			return nil, append(diags, diag.Error(diag.CodeVersionUnsupported,
				fmt.Sprintf("format version %q is not supported", doc.FormatVersion)).
				WithDetails(map[string]any{"formatVersion": doc.FormatVersion}))
		}
	}

	resolved := doc.Scene
	switch {
	case resolved == nil && len(doc.Scenes) == 0:
		return nil, append(diags, diag.Error(diag.CodeSceneMissing,
			"input declares no scene"))
	case resolved == nil && len(doc.Scenes) > 1:
		return nil, append(diags, diag.Error(diag.CodeSceneMultiple,
			fmt.Sprintf("input declares %d scenes, exactly one is allowed", len(doc.Scenes))).
			WithDetails(map[string]any{"count": len(doc.Scenes)}))
	case resolved == nil:
		resolved = &doc.Scenes[0]
	}

	// Unrecognized top-level fields are preserved nowhere; surface them.
	var unused []string
	for k := range top {
		if !knownTopLevelFields[k] {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	for _, k := range unused {
		diags = append(diags, diag.Warning(diag.CodeUnusedField,
			fmt.Sprintf("top-level field %q is not part of the canonical AST and was ignored", k)).
			WithDetails(map[string]any{"field": k}))
	}

	return &scene.Document{
		FormatVersion: doc.FormatVersion,
		Scene:         resolved,
		Nodes:         doc.Nodes,
		Bindings:      doc.Bindings,
		Animations:    doc.Animations,
	}, diags
}
