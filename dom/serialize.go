package dom

import (
	"strconv"
	"strings"
)

// treeWriter renders a simplified tree as indented text.
type treeWriter struct {
	tree    *Tree
	include []string
	sb      strings.Builder
	lines   int
}

func (w *treeWriter) line(depth int, s string) {
	if w.lines > 0 {
		w.sb.WriteByte('\n')
	}
	w.sb.WriteString(strings.Repeat("\t", depth))
	w.sb.WriteString(s)
	w.lines++
}

func (w *treeWriter) String() string {
	return w.sb.String()
}

func (w *treeWriter) write(sn *SimplifiedNode, depth int) {
	if sn == nil {
		return
	}
	if sn.ExcludedByParent || !sn.ShouldDisplay {
		for _, c := range sn.Children {
			w.write(c, depth)
		}
		return
	}

	n := w.tree.Node(sn.Ref)
	switch n.NodeType {
	case ElementNode:
		w.writeElement(sn, n, depth)
	case TextNode:
		if n.IsVisible() {
			if text := strings.TrimSpace(n.NodeValue); len(text) > 1 {
				w.line(depth, text)
			}
		}
		for _, c := range sn.Children {
			w.write(c, depth)
		}
	case DocumentFragmentNode:
		if strings.EqualFold(n.ShadowRootType, "closed") {
			w.line(depth, "Closed Shadow")
		} else {
			w.line(depth, "Open Shadow")
		}
		for _, c := range sn.Children {
			w.write(c, depth+1)
		}
		if len(sn.Children) > 0 {
			w.line(depth, "Shadow End")
		}
	default:
		for _, c := range sn.Children {
			w.write(c, depth)
		}
	}
}

func (w *treeWriter) writeElement(sn *SimplifiedNode, n *EnhancedNode, depth int) {
	tag := n.TagName()
	shadow := w.shadowPrefix(sn)

	if tag == "svg" {
		var b strings.Builder
		b.WriteString(shadow)
		if sn.IsInteractive {
			if sn.IsNew {
				b.WriteByte('*')
			}
			b.WriteString("[" + strconv.Itoa(n.BackendNodeID) + "]")
		}
		b.WriteString("<svg")
		if attrs := buildAttributesString(n, w.include, ""); attrs != "" {
			b.WriteString(" " + attrs)
		}
		b.WriteString(" /> <!-- SVG content collapsed -->")
		w.line(depth, b.String())
		return
	}

	scrollable := n.IsActuallyScrollable()
	showScroll := w.tree.ShouldShowScrollInfo(n.Ref)
	next := depth

	if sn.IsInteractive || scrollable || tag == "iframe" || tag == "frame" {
		next++

		var b strings.Builder
		b.WriteString(shadow)
		switch {
		case sn.IsInteractive:
			if sn.IsNew {
				b.WriteByte('*')
			}
			if showScroll {
				b.WriteString("|SCROLL[")
			} else {
				b.WriteByte('[')
			}
			b.WriteString(strconv.Itoa(n.BackendNodeID) + "]")
		case tag == "iframe":
			b.WriteString("|IFRAME|")
		case tag == "frame":
			b.WriteString("|FRAME|")
		case showScroll:
			b.WriteString("|SCROLL|")
		}
		b.WriteString("<" + tag)

		attrs := buildAttributesString(n, w.include, directText(w.tree, n))
		if compound := formatCompoundChildren(n.CompoundChildren); compound != "" && sn.IsCompoundComponent {
			if attrs != "" {
				attrs += " "
			}
			attrs += compound
		}
		if attrs != "" {
			b.WriteString(" " + attrs)
		}
		b.WriteString(" />")

		if showScroll {
			if info := w.tree.ScrollInfoText(n.Ref); info != "" {
				b.WriteString(" (" + info + ")")
			}
		}
		w.line(depth, b.String())
	}

	for _, c := range sn.Children {
		w.write(c, next)
	}
}

// shadowPrefix marks shadow hosts, closed when any shadow root is closed.
func (w *treeWriter) shadowPrefix(sn *SimplifiedNode) string {
	if !sn.IsShadowHost {
		return ""
	}
	for _, ref := range w.tree.Node(sn.Ref).ShadowRoots {
		if sr := w.tree.Node(ref); sr != nil && strings.EqualFold(sr.ShadowRootType, "closed") {
			return "|SHADOW(closed)|"
		}
	}
	return "|SHADOW(open)|"
}
