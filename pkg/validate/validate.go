// Package validate implements the two-tier canonical AST validator.
//
// Tier 1 rules check structural integrity (dimensions, kinds, identifier
// uniqueness, reference resolution, parent-graph acyclicity). Tier 2 rules
// check semantic completeness and run only when Tier 1 reported zero errors,
// so structural damage never cascades into semantic noise.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/svjif-labs/svjif/pkg/diag"
	"github.com/svjif-labs/svjif/pkg/scene"
)

// Rule is one validation check with a stable identifier.
// Rules collect diagnostics; they never panic and never short-circuit
// each other within a tier.
type Rule interface {
	// ID returns the stable rule identifier recorded in receipts.
	ID() string

	// Run checks doc and returns its findings.
	Run(doc *scene.Document) []diag.Diagnostic
}

// Tier 1 and Tier 2 rule sets, in execution order. Both are immutable
// process-wide configuration; mutating them would break receipt fingerprints.
var (
	tier1Rules = []Rule{
		sceneDimensionsRule{},
		nodeKindRule{},
		duplicateIDRule{},
		parentResolvesRule{},
		bindingTargetRule{},
		animationTargetRule{},
		parentAcyclicRule{},
	}
	tier2Rules = []Rule{
		requiredPropsRule{},
	}
)

// RuleIDs returns the identifiers of every registered rule, sorted bytewise.
// The receipt's ruleset fingerprint is derived from this list.
func RuleIDs() []string {
	ids := make([]string, 0, len(tier1Rules)+len(tier2Rules))
	for _, r := range tier1Rules {
		ids = append(ids, r.ID())
	}
	for _, r := range tier2Rules {
		ids = append(ids, r.ID())
	}
	sort.Strings(ids)
	return ids
}

// Validate runs the full rule set over doc. A nil document yields an empty
// list: absence is the orchestrator's concern, not a validation finding.
func Validate(doc *scene.Document) []diag.Diagnostic {
	if doc == nil {
		return []diag.Diagnostic{}
	}

	diags := []diag.Diagnostic{}
	for _, r := range tier1Rules {
		diags = append(diags, r.Run(doc)...)
	}
	if diag.HasErrors(diags) {
		return diags
	}
	for _, r := range tier2Rules {
		diags = append(diags, r.Run(doc)...)
	}
	return diags
}

type sceneDimensionsRule struct{}

func (sceneDimensionsRule) ID() string { return "scene-dimensions" }

func (sceneDimensionsRule) Run(doc *scene.Document) []diag.Diagnostic {
	if doc.Scene == nil {
		return nil
	}
	if validDimension(doc.Scene.Width) && validDimension(doc.Scene.Height) {
		return nil
	}
	d := diag.Error(diag.CodeSceneDimensionsInvalid,
		fmt.Sprintf("scene %q has invalid dimensions %vx%v: width and height must be finite and > 0",
			doc.Scene.ID, doc.Scene.Width, doc.Scene.Height)).
		WithDetails(map[string]any{
			"sceneId": doc.Scene.ID,
			"width":   fmt.Sprint(doc.Scene.Width),
			"height":  fmt.Sprint(doc.Scene.Height),
		})
	return []diag.Diagnostic{d}
}

func validDimension(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

type nodeKindRule struct{}

func (nodeKindRule) ID() string { return "node-kind" }

func (nodeKindRule) Run(doc *scene.Document) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, n := range doc.Nodes {
		if scene.IsKnown(n.Kind) {
			continue
		}
		diags = append(diags, diag.Error(diag.CodeNodeKindInvalid,
			fmt.Sprintf("node %q has unknown kind %q", n.ID, n.Kind)).
			WithDetails(map[string]any{"nodeId": n.ID, "kind": string(n.Kind)}).
			WithLoc(n.Loc))
	}
	return diags
}

type duplicateIDRule struct{}

func (duplicateIDRule) ID() string { return "node-duplicate-id" }

func (duplicateIDRule) Run(doc *scene.Document) []diag.Diagnostic {
	var diags []diag.Diagnostic
	seen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if seen[n.ID] {
			// Every occurrence after the first is reported.
			diags = append(diags, diag.Error(diag.CodeNodeDuplicateID,
				fmt.Sprintf("node id %q is declared more than once", n.ID)).
				WithDetails(map[string]any{"nodeId": n.ID}).
				WithLoc(n.Loc))
			continue
		}
		seen[n.ID] = true
	}
	return diags
}

type parentResolvesRule struct{}

func (parentResolvesRule) ID() string { return "parent-resolves" }

func (parentResolvesRule) Run(doc *scene.Document) []diag.Diagnostic {
	ids := nodeIDSet(doc)
	var diags []diag.Diagnostic
	for _, n := range doc.Nodes {
		if n.ParentID == "" || ids[n.ParentID] {
			continue
		}
		diags = append(diags, diag.Error(diag.CodeParentNotFound,
			fmt.Sprintf("node %q references missing parent %q", n.ID, n.ParentID)).
			WithDetails(map[string]any{"nodeId": n.ID, "parentId": n.ParentID}).
			WithLoc(n.Loc))
	}
	return diags
}

type bindingTargetRule struct{}

func (bindingTargetRule) ID() string { return "binding-target-resolves" }

func (bindingTargetRule) Run(doc *scene.Document) []diag.Diagnostic {
	ids := nodeIDSet(doc)
	var diags []diag.Diagnostic
	for _, b := range doc.Bindings {
		if ids[b.TargetNodeID] {
			continue
		}
		diags = append(diags, diag.Error(diag.CodeBindTargetNotFound,
			fmt.Sprintf("binding on prop %q references missing node %q", b.TargetProp, b.TargetNodeID)).
			WithDetails(map[string]any{"targetNodeId": b.TargetNodeID, "targetProp": b.TargetProp}))
	}
	return diags
}

type animationTargetRule struct{}

func (animationTargetRule) ID() string { return "animation-target-resolves" }

func (animationTargetRule) Run(doc *scene.Document) []diag.Diagnostic {
	ids := nodeIDSet(doc)
	var diags []diag.Diagnostic
	for _, a := range doc.Animations {
		if ids[a.TargetNodeID] {
			continue
		}
		diags = append(diags, diag.Error(diag.CodeRefTargetNotFound,
			fmt.Sprintf("animation of property %q references missing node %q", a.Property, a.TargetNodeID)).
			WithDetails(map[string]any{
				"targetNodeId": a.TargetNodeID,
				"property":     a.Property,
				"refKind":      "animation",
			}))
	}
	return diags
}

type parentAcyclicRule struct{}

func (parentAcyclicRule) ID() string { return "parent-acyclic" }

// Run detects cycles with Kahn's algorithm over parentId edges. The walk is
// iterative so 10k+ node chains and rings terminate without touching the
// call stack. Duplicate ids resolve against their first occurrence so a
// duplicated id cannot fabricate a cycle; unknown parents contribute no edge.
func (parentAcyclicRule) Run(doc *scene.Document) []diag.Diagnostic {
	first := make(map[string]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if _, ok := first[n.ID]; !ok {
			first[n.ID] = i
		}
	}

	children := make(map[int][]int, len(doc.Nodes))
	inDegree := make(map[int]int, len(doc.Nodes))
	members := make([]int, 0, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if first[n.ID] != i {
			continue // duplicate occurrence, reported by node-duplicate-id
		}
		members = append(members, i)
		if n.ParentID == "" {
			continue
		}
		parent, ok := first[n.ParentID]
		if !ok {
			continue
		}
		children[parent] = append(children[parent], i)
		inDegree[i]++
	}

	queue := make([]int, 0, len(members))
	for _, i := range members {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	removed := make(map[int]bool, len(members))
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		removed[i] = true
		for _, child := range children[i] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	var cyclic []string
	for _, i := range members {
		if !removed[i] {
			cyclic = append(cyclic, doc.Nodes[i].ID)
		}
	}
	sort.Strings(cyclic)

	var diags []diag.Diagnostic
	for _, id := range cyclic {
		diags = append(diags, diag.Error(diag.CodeCycleDetected,
			fmt.Sprintf("node %q is part of a parent cycle", id)).
			WithDetails(map[string]any{"nodeId": id}))
	}
	return diags
}

type requiredPropsRule struct{}

func (requiredPropsRule) ID() string { return "required-props" }

func (requiredPropsRule) Run(doc *scene.Document) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, n := range doc.Nodes {
		for _, prop := range scene.RequiredProps(n.Kind) {
			if v, ok := n.Props[prop]; ok && v != nil {
				continue
			}
			diags = append(diags, diag.Error(diag.CodePropRequiredMissing,
				fmt.Sprintf("node %q of kind %q is missing required prop %q", n.ID, n.Kind, prop)).
				WithDetails(map[string]any{"nodeId": n.ID, "kind": string(n.Kind), "prop": prop}).
				WithLoc(n.Loc))
		}
	}
	return diags
}

func nodeIDSet(doc *scene.Document) map[string]bool {
	ids := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids[n.ID] = true
	}
	return ids
}
