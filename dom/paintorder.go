package dom

import (
	"sort"
	"strings"
)

// transparentBackground is the computed value of an unset background-color.
const transparentBackground = "rgba(0, 0, 0, 0)"

// paintOrderFilter marks simplified nodes fully hidden behind content with a
// higher paint order.
type paintOrderFilter struct {
	tree             *Tree
	occlusionOpacity float64
}

// apply walks root and sets IgnoredByPaintOrder. It returns the number of
// nodes marked.
func (f *paintOrderFilter) apply(root *SimplifiedNode) int {
	groups := make(map[int][]*SimplifiedNode)
	var collect func(*SimplifiedNode)
	collect = func(sn *SimplifiedNode) {
		n := f.tree.Node(sn.Ref)
		if n != nil && n.Snapshot != nil && n.Snapshot.PaintOrder != nil && n.AbsolutePosition != nil {
			order := *n.Snapshot.PaintOrder
			groups[order] = append(groups[order], sn)
		}
		for _, c := range sn.Children {
			collect(c)
		}
	}
	collect(root)

	orders := make([]int, 0, len(groups))
	for order := range groups {
		orders = append(orders, order)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(orders)))

	var (
		union  RectUnion
		marked int
	)
	for _, order := range orders {
		var pending []Rect
		for _, sn := range groups[order] {
			n := f.tree.Node(sn.Ref)
			rect := n.AbsolutePosition.Rect()
			if union.Contains(rect) {
				sn.IgnoredByPaintOrder = true
				marked++
			}
			if f.occludes(n) {
				pending = append(pending, rect)
			}
		}
		for _, r := range pending {
			union.Add(r)
		}
	}

	return marked
}

// occludes reports whether n is opaque enough to hide content below it.
// Unparseable opacity counts as opaque.
func (f *paintOrderFilter) occludes(n *EnhancedNode) bool {
	bg := strings.TrimSpace(n.Snapshot.Style("background-color"))
	if bg == "" || bg == transparentBackground {
		return false
	}
	opacity, ok := parseOpacity(n.Snapshot.Style("opacity"))
	if ok && opacity < f.occlusionOpacity {
		return false
	}
	return true
}
