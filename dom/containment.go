package dom

import "strings"

// propagatingPattern matches elements whose bounds absorb their descendants.
// An empty role matches any role.
type propagatingPattern struct {
	Tag  string
	Role string
}

var propagatingElements = []propagatingPattern{
	{Tag: "a"},
	{Tag: "button"},
	{Tag: "div", Role: "button"},
	{Tag: "div", Role: "combobox"},
	{Tag: "span", Role: "button"},
	{Tag: "span", Role: "combobox"},
	{Tag: "input", Role: "combobox"},
}

// formControlTags are never absorbed by a propagating ancestor.
var formControlTags = map[string]bool{"input": true, "select": true, "textarea": true, "label": true}

// independentRoles keep a child visible inside a propagating ancestor.
var independentRoles = map[string]bool{
	"button": true, "link": true, "checkbox": true, "radio": true,
	"tab": true, "menuitem": true, "option": true,
}

func isPropagating(tag, role string) bool {
	for _, p := range propagatingElements {
		if p.Tag == tag && (p.Role == "" || p.Role == role) {
			return true
		}
	}
	return false
}

// PropagatingBounds is the rectangle of the nearest propagating ancestor.
type PropagatingBounds struct {
	Tag    string
	Bounds BoundingBox
	NodeID int
	Depth  int
}

// containmentFilter excludes descendants visually absorbed by clickable
// containers.
type containmentFilter struct {
	tree      *Tree
	threshold float64
	excluded  int
}

func (f *containmentFilter) apply(root *SimplifiedNode) int {
	f.walk(root, nil, 0)
	return f.excluded
}

func (f *containmentFilter) walk(sn *SimplifiedNode, active *PropagatingBounds, depth int) {
	n := f.tree.Node(sn.Ref)
	if active != nil && f.shouldExclude(n, active) {
		sn.ExcludedByParent = true
		f.excluded++
	}

	next := active
	if n.NodeType == ElementNode && n.AbsolutePosition != nil {
		tag := n.TagName()
		if isPropagating(tag, n.Attr("role")) {
			next = &PropagatingBounds{
				Tag:    tag,
				Bounds: *n.AbsolutePosition,
				NodeID: n.NodeID,
				Depth:  depth,
			}
		}
	}

	for _, c := range sn.Children {
		f.walk(c, next, depth+1)
	}
}

func (f *containmentFilter) shouldExclude(n *EnhancedNode, active *PropagatingBounds) bool {
	if n.NodeType == TextNode || n.AbsolutePosition == nil {
		return false
	}
	if !isContainedWithin(*n.AbsolutePosition, active.Bounds, f.threshold) {
		return false
	}

	tag := n.TagName()
	role := n.Attr("role")
	switch {
	case formControlTags[tag]:
		return false
	case isPropagating(tag, role):
		return false
	case n.HasAttr("onclick"):
		return false
	case strings.TrimSpace(n.Attr("aria-label")) != "":
		return false
	case independentRoles[role]:
		return false
	}
	return true
}
