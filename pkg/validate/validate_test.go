package validate

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/scene"
)

func validScene() *scene.Scene {
	return &scene.Scene{ID: "main", Width: 800, Height: 600}
}

func groupNode(id, parent string) scene.Node {
	return scene.Node{ID: id, Kind: scene.KindGroup, ParentID: parent}
}

func codesOf(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestValidateNilDocument(t *testing.T) {
	diags := Validate(nil)
	require.NotNil(t, diags)
	assert.Empty(t, diags)
}

func TestSceneDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  float64
		height float64
		valid  bool
	}{
		{"valid", 800, 600, true},
		{"zero width", 0, 600, false},
		{"negative height", 800, -1, false},
		{"nan width", math.NaN(), 600, false},
		{"positive infinity", math.Inf(1), 600, false},
		{"negative infinity", 800, math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &scene.Document{Scene: &scene.Scene{ID: "s", Width: tt.width, Height: tt.height}}
			diags := Validate(doc)
			if tt.valid {
				assert.NotContains(t, codesOf(diags), diag.CodeSceneDimensionsInvalid)
			} else {
				assert.Contains(t, codesOf(diags), diag.CodeSceneDimensionsInvalid)
			}
		})
	}
}

func TestUnknownKind(t *testing.T) {
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{{ID: "n1", Kind: "Blob"}},
	}
	diags := Validate(doc)
	require.Contains(t, codesOf(diags), diag.CodeNodeKindInvalid)

	for _, d := range diags {
		if d.Code == diag.CodeNodeKindInvalid {
			assert.Equal(t, "n1", d.Details["nodeId"])
			assert.Equal(t, "Blob", d.Details["kind"])
		}
	}
}

func TestDuplicateIDs(t *testing.T) {
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{
			groupNode("n1", ""),
			groupNode("n1", ""),
			groupNode("n1", ""),
		},
	}
	diags := Validate(doc)
	codes := codesOf(diags)

	// Every repeat after the first is reported.
	count := 0
	for _, c := range codes {
		if c == diag.CodeNodeDuplicateID {
			count++
		}
	}
	assert.Equal(t, 2, count)

	// Duplication must not fabricate a cycle.
	assert.NotContains(t, codes, diag.CodeCycleDetected)
}

func TestDanglingReferencesUseDistinctCodes(t *testing.T) {
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{groupNode("n1", "ghost-parent")},
		Bindings: []scene.Binding{
			{TargetNodeID: "ghost-bind", TargetProp: "width", Expression: "1+1"},
		},
		Animations: []scene.Animation{
			{TargetNodeID: "ghost-anim", Property: "opacity"},
		},
	}
	diags := Validate(doc)
	codes := codesOf(diags)

	assert.Contains(t, codes, diag.CodeParentNotFound)
	assert.Contains(t, codes, diag.CodeBindTargetNotFound)
	assert.Contains(t, codes, diag.CodeRefTargetNotFound)

	for _, d := range diags {
		if d.Code == diag.CodeRefTargetNotFound {
			assert.Equal(t, "animation", d.Details["refKind"])
		}
	}
}

func TestTwoNodeCycleSuppressesTier2(t *testing.T) {
	// Rects without props would trip required-props, but Tier 1 damage
	// suppresses Tier 2 entirely.
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{
			{ID: "A", Kind: scene.KindRect, ParentID: "B"},
			{ID: "B", Kind: scene.KindRect, ParentID: "A"},
		},
	}
	diags := Validate(doc)
	codes := codesOf(diags)

	assert.Contains(t, codes, diag.CodeCycleDetected)
	assert.NotContains(t, codes, diag.CodePropRequiredMissing)
}

func TestSelfParentIsACycle(t *testing.T) {
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{groupNode("n1", "n1")},
	}
	assert.Contains(t, codesOf(Validate(doc)), diag.CodeCycleDetected)
}

func TestLongChainNoCycle(t *testing.T) {
	const size = 10000
	nodes := make([]scene.Node, size)
	for i := range nodes {
		parent := ""
		if i > 0 {
			parent = fmt.Sprintf("n%d", i-1)
		}
		nodes[i] = groupNode(fmt.Sprintf("n%d", i), parent)
	}
	doc := &scene.Document{Scene: validScene(), Nodes: nodes}
	assert.Empty(t, Validate(doc))
}

func TestFullRingIsACycle(t *testing.T) {
	const size = 10000
	nodes := make([]scene.Node, size)
	for i := range nodes {
		nodes[i] = groupNode(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", (i+size-1)%size))
	}
	doc := &scene.Document{Scene: validScene(), Nodes: nodes}
	diags := Validate(doc)

	count := 0
	for _, d := range diags {
		require.Equal(t, diag.CodeCycleDetected, d.Code)
		count++
	}
	assert.Equal(t, size, count)
}

func TestRequiredProps(t *testing.T) {
	doc := &scene.Document{
		Scene: validScene(),
		Nodes: []scene.Node{
			{ID: "r1", Kind: scene.KindRect, Props: map[string]any{"height": 10}},
		},
	}
	diags := Validate(doc)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodePropRequiredMissing, diags[0].Code)
	assert.Equal(t, "width", diags[0].Details["prop"])
	assert.Equal(t, "r1", diags[0].Details["nodeId"])
	assert.Equal(t, "Rect", diags[0].Details["kind"])
}

func TestRequiredPropsPerKind(t *testing.T) {
	tests := []struct {
		kind    scene.Kind
		props   map[string]any
		missing []string
	}{
		{scene.KindText, nil, []string{"content"}},
		{scene.KindImage, map[string]any{"src": "a.png"}, nil},
		{scene.KindEllipse, map[string]any{"rx": 1}, []string{"ry"}},
		{scene.KindLine, nil, []string{"x2", "y2"}},
		{scene.KindPath, map[string]any{"d": "M0 0"}, nil},
		{scene.KindGroup, nil, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			doc := &scene.Document{
				Scene: validScene(),
				Nodes: []scene.Node{{ID: "n", Kind: tt.kind, Props: tt.props}},
			}
			diags := Validate(doc)
			var missing []string
			for _, d := range diags {
				require.Equal(t, diag.CodePropRequiredMissing, d.Code)
				missing = append(missing, d.Details["prop"].(string))
			}
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestRuleIDsSortedAndStable(t *testing.T) {
	ids := RuleIDs()
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Equal(t, []string{
		"animation-target-resolves",
		"binding-target-resolves",
		"node-duplicate-id",
		"node-kind",
		"parent-acyclic",
		"parent-resolves",
		"required-props",
		"scene-dimensions",
	}, ids)
}
