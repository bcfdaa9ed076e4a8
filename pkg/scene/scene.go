// Package scene defines the canonical AST: the validated, format-independent
// scene representation every front-end must produce. The AST is created once
// per compilation and flows read-only through validation and emission.
package scene

// Kind tags a node variant. The set is closed: validators reject anything
// outside the seven known kinds.
type Kind string

const (
	KindRect    Kind = "Rect"
	KindText    Kind = "Text"
	KindImage   Kind = "Image"
	KindGroup   Kind = "Group"
	KindLine    Kind = "Line"
	KindEllipse Kind = "Ellipse"
	KindPath    Kind = "Path"
)

// requiredProps lists the props each kind must carry, in reporting order.
var requiredProps = map[Kind][]string{
	KindRect:    {"width", "height"},
	KindText:    {"content"},
	KindImage:   {"src"},
	KindGroup:   nil,
	KindLine:    {"x2", "y2"},
	KindEllipse: {"rx", "ry"},
	KindPath:    {"d"},
}

// KnownKinds returns the closed kind set in bytewise order.
func KnownKinds() []Kind {
	return []Kind{KindEllipse, KindGroup, KindImage, KindLine, KindPath, KindRect, KindText}
}

// IsKnown reports whether k is one of the seven known kinds.
func IsKnown(k Kind) bool {
	_, ok := requiredProps[k]
	return ok
}

// RequiredProps returns the props kind must carry, in reporting order.
// Unknown kinds have no required props; they fail kind validation instead.
func RequiredProps(k Kind) []string {
	return requiredProps[k]
}

// SourceLoc is authoring-only source metadata. It never reaches the IR.
type SourceLoc struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// Scene is the root entity of a compilation.
type Scene struct {
	ID         string  `json:"id"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Units      string  `json:"units,omitempty"`
	Background string  `json:"background,omitempty"`
}

// Node is a single scene element, tagged by Kind.
type Node struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	ParentID string         `json:"parentId,omitempty"`
	ZIndex   *float64       `json:"zIndex,omitempty"`
	Visible  *bool          `json:"visible,omitempty"`
	Locked   *bool          `json:"locked,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
	Loc      *SourceLoc     `json:"loc,omitempty"`
}

// Binding connects an expression to one target node prop.
type Binding struct {
	TargetNodeID string `json:"targetNodeId"`
	TargetProp   string `json:"targetProp"`
	Expression   string `json:"expression"`
}

// Keyframe is one animation sample.
type Keyframe struct {
	T     float64 `json:"t"`
	Value any     `json:"value"`
}

// Animation drives one property of one target node over ordered keyframes.
type Animation struct {
	TargetNodeID string     `json:"targetNodeId"`
	Property     string     `json:"property"`
	Keyframes    []Keyframe `json:"keyframes"`
}

// Document is the canonical AST root.
type Document struct {
	FormatVersion string      `json:"formatVersion,omitempty"`
	Scene         *Scene      `json:"scene"`
	Nodes         []Node      `json:"nodes,omitempty"`
	Bindings      []Binding   `json:"bindings,omitempty"`
	Animations    []Animation `json:"animations,omitempty"`
}
