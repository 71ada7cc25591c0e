// Package dom builds an enhanced DOM tree from the browser's DOM, accessibility
// and layout snapshot trees, and serializes it into an indexed text form for
// LLM agents.
package dom

import (
	"strings"
)

// NodeRef addresses a node inside a Tree arena.
type NodeRef int

// NoNode marks an absent link.
const NoNode NodeRef = -1

// Visibility is the computed absolute visibility of a node.
type Visibility int8

const (
	VisibilityUnknown Visibility = iota
	Visible
	Hidden
)

// AXProperty is one accessibility property. Value holds a bool, float64,
// string or nil.
type AXProperty struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// AXNode is the accessibility projection of a node.
type AXNode struct {
	ID          string       `json:"id"`
	Ignored     bool         `json:"ignored,omitempty"`
	Role        string       `json:"role,omitempty"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Properties  []AXProperty `json:"properties,omitempty"`
	ChildIDs    []string     `json:"childIds,omitempty"`
}

// Property returns the value of the named property.
func (a *AXNode) Property(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	for _, p := range a.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// SnapshotNode is the layout projection of a node.
type SnapshotNode struct {
	IsClickable     *bool             `json:"isClickable,omitempty"`
	CursorStyle     string            `json:"cursorStyle,omitempty"`
	Bounds          *BoundingBox      `json:"bounds,omitempty"`
	ClientRects     *BoundingBox      `json:"clientRects,omitempty"`
	ScrollRects     *BoundingBox      `json:"scrollRects,omitempty"`
	ComputedStyles  map[string]string `json:"computedStyles,omitempty"`
	PaintOrder      *int              `json:"paintOrder,omitempty"`
	StackingContext bool              `json:"stackingContext,omitempty"`
}

// Style returns a computed style value.
func (s *SnapshotNode) Style(name string) string {
	if s == nil {
		return ""
	}
	return s.ComputedStyles[name]
}

// CompoundChild describes a virtual sub-widget of a composite form control.
type CompoundChild struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	OptionsCount *int     `json:"optionsCount,omitempty"`
	FirstOptions []string `json:"firstOptions,omitempty"`
	FormatHint   string   `json:"formatHint,omitempty"`
}

// EnhancedNode is one DOM node merged with its accessibility and layout data.
type EnhancedNode struct {
	Ref           NodeRef `json:"-"`
	NodeID        int     `json:"nodeId"`
	BackendNodeID int     `json:"backendNodeId"`
	NodeType      int     `json:"nodeType"`
	NodeName      string  `json:"nodeName"`
	NodeValue     string  `json:"nodeValue,omitempty"`

	Attributes   map[string]string `json:"attributes,omitempty"`
	IsScrollable bool              `json:"isScrollable,omitempty"`
	Visibility   Visibility        `json:"visibility"`

	// AbsolutePosition is the snapshot bounds corrected by ancestor iframe
	// offsets and ancestor document scroll.
	AbsolutePosition *BoundingBox `json:"absolutePosition,omitempty"`

	FrameID        string `json:"frameId,omitempty"`
	TargetID       string `json:"targetId,omitempty"`
	ShadowRootType string `json:"shadowRootType,omitempty"`

	Parent          NodeRef   `json:"-"`
	Children        []NodeRef `json:"-"`
	ShadowRoots     []NodeRef `json:"-"`
	ContentDocument NodeRef   `json:"-"`

	AX       *AXNode       `json:"ax,omitempty"`
	Snapshot *SnapshotNode `json:"snapshot,omitempty"`

	CompoundChildren []CompoundChild `json:"compoundChildren,omitempty"`
}

// TagName returns the lower-cased node name.
func (n *EnhancedNode) TagName() string {
	return strings.ToLower(n.NodeName)
}

// IsVisible reports whether visibility was computed as visible.
func (n *EnhancedNode) IsVisible() bool {
	return n.Visibility == Visible
}

// Attr returns an attribute value or the empty string.
func (n *EnhancedNode) Attr(name string) string {
	return n.Attributes[name]
}

// HasAttr reports whether the attribute is present.
func (n *EnhancedNode) HasAttr(name string) bool {
	_, ok := n.Attributes[name]
	return ok
}

// Bounds returns the snapshot bounds, nil without layout data.
func (n *EnhancedNode) Bounds() *BoundingBox {
	if n.Snapshot == nil {
		return nil
	}
	return n.Snapshot.Bounds
}

// Tree is the arena holding every node of one extraction.
type Tree struct {
	nodes []EnhancedNode
	Root  NodeRef
}

func newTree() *Tree {
	return &Tree{Root: NoNode}
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node at ref, nil for NoNode or out-of-range refs.
// The pointer is stable once construction has finished.
func (t *Tree) Node(ref NodeRef) *EnhancedNode {
	if ref < 0 || int(ref) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[ref]
}

// Parent returns the parent node or nil.
func (t *Tree) Parent(ref NodeRef) *EnhancedNode {
	n := t.Node(ref)
	if n == nil {
		return nil
	}
	return t.Node(n.Parent)
}

// ChildrenAndShadowRoots returns shadow roots followed by light-DOM children.
func (t *Tree) ChildrenAndShadowRoots(ref NodeRef) []NodeRef {
	n := t.Node(ref)
	if n == nil {
		return nil
	}
	out := make([]NodeRef, 0, len(n.ShadowRoots)+len(n.Children))
	out = append(out, n.ShadowRoots...)
	return append(out, n.Children...)
}

// Walk visits every node reachable from the root in document order,
// including shadow roots and content documents.
func (t *Tree) Walk(fn func(*EnhancedNode)) {
	var visit func(NodeRef)
	visit = func(ref NodeRef) {
		n := t.Node(ref)
		if n == nil {
			return
		}
		fn(n)
		for _, c := range t.ChildrenAndShadowRoots(ref) {
			visit(c)
		}
		visit(n.ContentDocument)
	}
	visit(t.Root)
}

// add appends a node and returns its ref. Pointers into the arena are
// invalidated by add.
func (t *Tree) add(n EnhancedNode) NodeRef {
	ref := NodeRef(len(t.nodes))
	n.Ref = ref
	t.nodes = append(t.nodes, n)
	return ref
}

// SimplifiedNode is the filtered projection of an EnhancedNode used by the
// serializer.
type SimplifiedNode struct {
	Ref      NodeRef
	Children []*SimplifiedNode

	ShouldDisplay       bool
	IsInteractive       bool
	IsNew               bool
	IgnoredByPaintOrder bool
	ExcludedByParent    bool
	IsShadowHost        bool
	IsCompoundComponent bool
}

// SelectorMap maps backend node ids to the interactive nodes they identify.
type SelectorMap map[int]*EnhancedNode

// Has reports whether the map contains backendNodeID.
func (m SelectorMap) Has(backendNodeID int) bool {
	_, ok := m[backendNodeID]
	return ok
}
