package dom

import "strings"

// disabledElements never carry content worth serializing.
var disabledElements = map[string]bool{
	"style": true, "script": true, "head": true, "meta": true, "link": true, "title": true,
}

// svgChildElements are decorative parts of an SVG drawing.
var svgChildElements = map[string]bool{
	"path": true, "rect": true, "g": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true, "use": true, "defs": true,
	"clippath": true, "mask": true, "pattern": true, "image": true,
	"text": true, "tspan": true,
}

// simplifier projects the enhanced tree into the serializable tree.
type simplifier struct {
	tree *Tree
}

// build returns the simplified tree rooted at ref, or nil when nothing is retained.
func (s *simplifier) build(ref NodeRef) *SimplifiedNode {
	n := s.tree.Node(ref)
	if n == nil {
		return nil
	}

	switch n.NodeType {
	case DocumentNode:
		for _, c := range s.tree.ChildrenAndShadowRoots(ref) {
			if sc := s.build(c); sc != nil {
				return sc
			}
		}
		return nil

	case DocumentFragmentNode:
		sn := &SimplifiedNode{Ref: ref, ShouldDisplay: true}
		sn.Children = s.buildChildren(s.tree.ChildrenAndShadowRoots(ref))
		if len(sn.Children) == 0 {
			return nil
		}
		return sn

	case ElementNode:
		tag := n.TagName()
		if disabledElements[tag] || svgChildElements[tag] {
			return nil
		}

		if (tag == "iframe" || tag == "frame") && n.ContentDocument != NoNode {
			sn := &SimplifiedNode{Ref: ref, ShouldDisplay: true}
			if doc := s.tree.Node(n.ContentDocument); doc != nil {
				sn.Children = s.buildChildren(doc.Children)
			}
			return sn
		}

		children := s.tree.ChildrenAndShadowRoots(ref)
		shadowHost := len(n.ShadowRoots) > 0
		if !n.IsVisible() && !n.IsActuallyScrollable() && len(children) == 0 && !shadowHost {
			return nil
		}

		sn := &SimplifiedNode{
			Ref:                 ref,
			ShouldDisplay:       true,
			IsShadowHost:        shadowHost,
			IsCompoundComponent: len(n.CompoundChildren) > 0,
		}
		sn.Children = s.buildChildren(children)

		if n.IsVisible() || n.IsActuallyScrollable() || len(sn.Children) > 0 {
			return sn
		}
		return nil

	case TextNode:
		if n.IsVisible() && len(strings.TrimSpace(n.NodeValue)) > 1 {
			return &SimplifiedNode{Ref: ref, ShouldDisplay: true}
		}
	}

	return nil
}

func (s *simplifier) buildChildren(refs []NodeRef) []*SimplifiedNode {
	var out []*SimplifiedNode
	for _, c := range refs {
		if sc := s.build(c); sc != nil {
			out = append(out, sc)
		}
	}
	return out
}

// optimize drops, bottom-up, nodes left without content that are neither
// visible, scrollable nor text.
func (s *simplifier) optimize(sn *SimplifiedNode) *SimplifiedNode {
	if sn == nil {
		return nil
	}
	kept := sn.Children[:0]
	for _, c := range sn.Children {
		if oc := s.optimize(c); oc != nil {
			kept = append(kept, oc)
		}
	}
	sn.Children = kept

	n := s.tree.Node(sn.Ref)
	if n.IsVisible() || n.IsActuallyScrollable() || n.NodeType == TextNode || len(sn.Children) > 0 {
		return sn
	}
	return nil
}

// indexAssigner enters visible interactive nodes into the selector map.
type indexAssigner struct {
	tree       *Tree
	classifier *Classifier
	previous   SelectorMap
	selectors  SelectorMap
}

func (a *indexAssigner) assign(sn *SimplifiedNode) {
	if !sn.ExcludedByParent && !sn.IgnoredByPaintOrder {
		n := a.tree.Node(sn.Ref)
		if n.IsVisible() && a.classifier.IsInteractive(n) {
			sn.IsInteractive = true
			a.selectors[n.BackendNodeID] = n
			if a.previous != nil {
				sn.IsNew = !a.previous.Has(n.BackendNodeID)
			}
		}
	}
	for _, c := range sn.Children {
		a.assign(c)
	}
}
