package emit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/svjif-labs/svjif/pkg/artifact"
	"github.com/svjif-labs/svjif/pkg/ident"
	"github.com/svjif-labs/svjif/pkg/scene"
)

const (
	// TypesPath is the type declaration artifact path.
	TypesPath = "types.ts"

	// GeneratedMarker is the fixed first line of every type artifact.
	GeneratedMarker = "// Code generated by svjifc. DO NOT EDIT."
)

// propTypes maps each kind's known props to their declaration types.
var propTypes = map[scene.Kind]map[string]string{
	scene.KindRect:    {"width": "number", "height": "number"},
	scene.KindText:    {"content": "string"},
	scene.KindImage:   {"src": "string"},
	scene.KindGroup:   {},
	scene.KindLine:    {"x2": "number", "y2": "number"},
	scene.KindEllipse: {"rx": "number", "ry": "number"},
	scene.KindPath:    {"d": "string"},
}

// Types emits TypeScript declarations for doc: a NodeId union over all node
// ids, one interface per distinct kind present, the scene shape, and a
// discriminated union over the per-kind interfaces. Empty unions are emitted
// as never rather than left ambiguous.
func Types(doc *scene.Document) (artifact.Artifact, error) {
	var b strings.Builder
	b.WriteString(GeneratedMarker)
	b.WriteString("\n\n")

	ids := make([]string, 0, len(doc.Nodes))
	seen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			ids = append(ids, n.ID)
		}
	}
	sort.Strings(ids)
	writeUnion(&b, "NodeId", stringLiterals(ids))
	b.WriteString("\n")

	kinds := distinctKinds(doc.Nodes)
	names, err := interfaceNames(kinds)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("emit types: %w", err)
	}
	for _, k := range kinds {
		writeKindInterface(&b, k, names[k])
		b.WriteString("\n")
	}

	b.WriteString("export interface Scene {\n")
	b.WriteString("  id: string;\n")
	b.WriteString("  width: number;\n")
	b.WriteString("  height: number;\n")
	b.WriteString("  units?: string;\n")
	b.WriteString("  background?: string;\n")
	b.WriteString("}\n\n")

	unionMembers := make([]string, 0, len(kinds))
	for _, k := range kinds {
		unionMembers = append(unionMembers, names[k])
	}
	writeUnion(&b, "SceneNode", unionMembers)

	return artifact.Text(TypesPath, b.String(), "application/typescript"), nil
}

func distinctKinds(nodes []scene.Node) []scene.Kind {
	seen := make(map[scene.Kind]bool)
	var kinds []scene.Kind
	for _, n := range nodes {
		if scene.IsKnown(n.Kind) && !seen[n.Kind] {
			seen[n.Kind] = true
			kinds = append(kinds, n.Kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// interfaceNames derives one interface name per kind through the identifier
// synthesizer, so reserved words and hostile kind spellings can never produce
// an illegal declaration.
func interfaceNames(kinds []scene.Kind) (map[scene.Kind]string, error) {
	sources := make([]string, len(kinds))
	for i, k := range kinds {
		sources[i] = string(k)
	}
	m, err := ident.BuildIdentifierMap(sources)
	if err != nil {
		return nil, err
	}
	names := make(map[scene.Kind]string, len(kinds))
	for _, k := range kinds {
		id, _ := m.Identifier(string(k))
		names[k] = id + "Node"
	}
	return names, nil
}

func writeKindInterface(b *strings.Builder, k scene.Kind, name string) {
	fmt.Fprintf(b, "export interface %s {\n", name)
	b.WriteString("  id: NodeId;\n")
	fmt.Fprintf(b, "  kind: %s;\n", tsString(string(k)))
	b.WriteString("  parentId?: NodeId;\n")
	b.WriteString("  zIndex?: number;\n")
	b.WriteString("  visible?: boolean;\n")
	b.WriteString("  locked?: boolean;\n")

	props := make([]string, 0, len(propTypes[k]))
	for p := range propTypes[k] {
		props = append(props, p)
	}
	sort.Strings(props)
	for _, p := range props {
		fmt.Fprintf(b, "  %s: %s;\n", p, propTypes[k][p])
	}
	b.WriteString("}\n")
}

// writeUnion emits a union type, or never when uninhabited.
func writeUnion(b *strings.Builder, name string, members []string) {
	if len(members) == 0 {
		fmt.Fprintf(b, "export type %s = never;\n", name)
		return
	}
	fmt.Fprintf(b, "export type %s =\n", name)
	for i, m := range members {
		b.WriteString("  | ")
		b.WriteString(m)
		if i == len(members)-1 {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
}

func stringLiterals(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = tsString(v)
	}
	return out
}

func tsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
