// Package emit produces the compiler's artifacts from a canonical AST: the
// deterministically ordered IR document and the generated type declarations.
package emit

import (
	"fmt"
	"math"
	"sort"

	"github.com/svjif-labs/svjif/pkg/artifact"
	"github.com/svjif-labs/svjif/pkg/canonicalize"
	"github.com/svjif-labs/svjif/pkg/scene"
)

const (
	// IRVersion is the emitted IR document version.
	IRVersion = "svjif-ir/1"

	// IRPath is the IR artifact path within an artifact set.
	IRPath = "scene.svjif.json"

	irIndent = 2
)

// IR emits the deterministic IR document for doc.
//
// For any two inputs that differ only in node array order or object key
// order, the output bytes are identical. The emitter never drops nodes and
// never assumes a validation pass ran: cyclic or dangling-parent nodes are
// still emitted in a defined position.
func IR(doc *scene.Document) (artifact.Artifact, error) {
	ordered := orderNodes(doc.Nodes)

	nodes := make([]any, 0, len(ordered))
	for _, n := range ordered {
		nodes = append(nodes, irNode(n))
	}

	bindings := append([]scene.Binding(nil), doc.Bindings...)
	sort.SliceStable(bindings, func(i, j int) bool {
		a, b := bindings[i], bindings[j]
		if a.TargetNodeID != b.TargetNodeID {
			return a.TargetNodeID < b.TargetNodeID
		}
		if a.TargetProp != b.TargetProp {
			return a.TargetProp < b.TargetProp
		}
		return a.Expression < b.Expression
	})

	animations := append([]scene.Animation(nil), doc.Animations...)
	sort.SliceStable(animations, func(i, j int) bool {
		a, b := animations[i], animations[j]
		if a.TargetNodeID != b.TargetNodeID {
			return a.TargetNodeID < b.TargetNodeID
		}
		return a.Property < b.Property
	})

	bindingList := make([]any, 0, len(bindings))
	for _, b := range bindings {
		bindingList = append(bindingList, b)
	}
	animationList := make([]any, 0, len(animations))
	for _, a := range animations {
		animationList = append(animationList, a)
	}

	irDoc := map[string]any{
		"irVersion":  IRVersion,
		"scene":      irScene(doc.Scene),
		"nodes":      nodes,
		"bindings":   bindingList,
		"animations": animationList,
	}

	text, err := canonicalize.Stringify(irDoc, irIndent)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("emit ir: %w", err)
	}
	return artifact.Text(IRPath, text, "application/json"), nil
}

func irScene(s *scene.Scene) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{
		"id":     s.ID,
		"width":  s.Width,
		"height": s.Height,
	}
	if s.Units != "" {
		out["units"] = s.Units
	}
	if s.Background != "" {
		out["background"] = s.Background
	}
	return out
}

// irNode projects a node into its IR shape, stripping authoring-only fields.
func irNode(n scene.Node) map[string]any {
	out := map[string]any{
		"id":   n.ID,
		"kind": string(n.Kind),
	}
	if n.ParentID != "" {
		out["parentId"] = n.ParentID
	}
	if n.ZIndex != nil {
		out["zIndex"] = *n.ZIndex
	}
	if n.Visible != nil {
		out["visible"] = *n.Visible
	}
	if n.Locked != nil {
		out["locked"] = *n.Locked
	}
	if n.Props != nil {
		out["props"] = n.Props
	}
	if n.Style != nil {
		out["style"] = n.Style
	}
	return out
}

// orderNodes produces the canonical node order: a Kahn topological walk over
// parentId edges where the ready set is always drained in (zIndex, kind, id)
// order, followed by any unreached (cyclic) nodes in the same key order.
func orderNodes(nodes []scene.Node) []scene.Node {
	first := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, ok := first[n.ID]; !ok {
			first[n.ID] = i
		}
	}

	children := make(map[int][]int, len(nodes))
	inDegree := make([]int, len(nodes))
	for i, n := range nodes {
		if n.ParentID == "" {
			continue
		}
		parent, ok := first[n.ParentID]
		if !ok {
			continue // dangling parent: node stays a root, never dropped
		}
		children[parent] = append(children[parent], i)
		inDegree[i]++
	}

	less := func(a, b int) bool {
		return lessNode(nodes[a], nodes[b])
	}

	var ready []int
	for i := range nodes {
		if inDegree[i] == 0 {
			ready = insertOrdered(ready, i, less)
		}
	}

	out := make([]scene.Node, 0, len(nodes))
	emitted := make([]bool, len(nodes))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		out = append(out, nodes[i])
		emitted[i] = true
		for _, child := range children[i] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = insertOrdered(ready, child, less)
			}
		}
	}

	// Cycle members were never released; append them in key order so even a
	// malformed document emits every node at a defined position.
	var rest []int
	for i := range nodes {
		if !emitted[i] {
			rest = append(rest, i)
		}
	}
	sort.Slice(rest, func(a, b int) bool { return less(rest[a], rest[b]) })
	for _, i := range rest {
		out = append(out, nodes[i])
	}
	return out
}

// lessNode is the explicit total tie-break order:
// zIndex ascending, then kind bytewise, then id bytewise.
func lessNode(a, b scene.Node) bool {
	za, zb := normalizedZ(a.ZIndex), normalizedZ(b.ZIndex)
	if za != zb {
		return za < zb
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

// normalizedZ treats unset and non-finite zIndex values as 0 so they cannot
// corrupt the ordering.
func normalizedZ(z *float64) float64 {
	if z == nil || math.IsNaN(*z) || math.IsInf(*z, 0) {
		return 0
	}
	return *z
}

// insertOrdered keeps the ready worklist sorted under less.
func insertOrdered(ready []int, i int, less func(a, b int) bool) []int {
	pos := sort.Search(len(ready), func(j int) bool { return less(i, ready[j]) })
	ready = append(ready, 0)
	copy(ready[pos+1:], ready[pos:])
	ready[pos] = i
	return ready
}
