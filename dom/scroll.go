package dom

import (
	"fmt"
	"math"
	"strings"
)

var scrollableOverflow = map[string]bool{"auto": true, "scroll": true, "overlay": true}

// scrollableTags may scroll when no computed styles are available.
var scrollableTags = map[string]bool{
	"div": true, "main": true, "section": true, "article": true,
	"aside": true, "body": true, "html": true,
}

// IsActuallyScrollable reports whether the node scrolls, either by the
// browser's own flag or because its content overflows an element whose
// overflow style permits scrolling.
func (n *EnhancedNode) IsActuallyScrollable() bool {
	if n.IsScrollable {
		return true
	}
	s := n.Snapshot
	if s == nil || s.ScrollRects == nil || s.ClientRects == nil {
		return false
	}

	vertical := s.ScrollRects.Height > s.ClientRects.Height+1
	horizontal := s.ScrollRects.Width > s.ClientRects.Width+1
	if !vertical && !horizontal {
		return false
	}

	if len(s.ComputedStyles) > 0 {
		overflow := strings.ToLower(s.ComputedStyles["overflow"])
		if overflow == "" {
			overflow = "visible"
		}
		overflowX := strings.ToLower(s.ComputedStyles["overflow-x"])
		if overflowX == "" {
			overflowX = overflow
		}
		overflowY := strings.ToLower(s.ComputedStyles["overflow-y"])
		if overflowY == "" {
			overflowY = overflow
		}
		return scrollableOverflow[overflow] || scrollableOverflow[overflowX] || scrollableOverflow[overflowY]
	}

	return scrollableTags[n.TagName()]
}

// ScrollInfo describes how far a scroll container is scrolled.
type ScrollInfo struct {
	ScrollTop, ScrollLeft         float64
	ScrollableHeight, ScrollWidth float64
	VisibleHeight, VisibleWidth   float64

	PagesAbove, PagesBelow float64
	VerticalPercent        float64
	HorizontalPercent      float64
}

func computeScrollInfo(s *SnapshotNode) (ScrollInfo, bool) {
	if s == nil || s.ScrollRects == nil || s.ClientRects == nil {
		return ScrollInfo{}, false
	}
	info := ScrollInfo{
		ScrollTop:        s.ScrollRects.Y,
		ScrollLeft:       s.ScrollRects.X,
		ScrollableHeight: s.ScrollRects.Height,
		ScrollWidth:      s.ScrollRects.Width,
		VisibleHeight:    s.ClientRects.Height,
		VisibleWidth:     s.ClientRects.Width,
	}

	above := math.Max(0, info.ScrollTop)
	below := math.Max(0, info.ScrollableHeight-info.VisibleHeight-info.ScrollTop)
	if info.VisibleHeight > 0 {
		info.PagesAbove = above / info.VisibleHeight
		info.PagesBelow = below / info.VisibleHeight
	}
	if maxTop := info.ScrollableHeight - info.VisibleHeight; maxTop > 0 {
		info.VerticalPercent = info.ScrollTop / maxTop * 100
	}
	if maxLeft := info.ScrollWidth - info.VisibleWidth; maxLeft > 0 {
		info.HorizontalPercent = info.ScrollLeft / maxLeft * 100
	}
	return info, true
}

// ScrollInfo returns the scroll position of an actually scrollable node.
func (n *EnhancedNode) ScrollInfo() (ScrollInfo, bool) {
	if !n.IsActuallyScrollable() {
		return ScrollInfo{}, false
	}
	return computeScrollInfo(n.Snapshot)
}

// ShouldShowScrollInfo reports whether the serializer prints scroll details
// for the node at ref.
func (t *Tree) ShouldShowScrollInfo(ref NodeRef) bool {
	n := t.Node(ref)
	if n == nil {
		return false
	}
	tag := n.TagName()
	if tag == "iframe" {
		return true
	}
	if !n.IsActuallyScrollable() {
		return false
	}
	if tag == "body" || tag == "html" {
		return true
	}
	if p := t.Node(n.Parent); p != nil && p.IsActuallyScrollable() {
		return false
	}
	return true
}

// ScrollInfoText renders the scroll position shown next to a scroll container.
func (t *Tree) ScrollInfoText(ref NodeRef) string {
	n := t.Node(ref)
	if n == nil {
		return ""
	}

	if n.TagName() == "iframe" {
		html := t.contentHTML(ref)
		if html == nil {
			return "scroll"
		}
		info, ok := computeScrollInfo(html.Snapshot)
		if !ok {
			return "scroll"
		}
		return fmt.Sprintf("scroll: %.1f↑ %.1f↓ %d%%", info.PagesAbove, info.PagesBelow, int(math.Round(info.VerticalPercent)))
	}

	info, ok := n.ScrollInfo()
	if !ok {
		return ""
	}
	var parts []string
	if info.ScrollableHeight > info.VisibleHeight {
		parts = append(parts, fmt.Sprintf("%.1f pages above, %.1f pages below", info.PagesAbove, info.PagesBelow))
	}
	if info.ScrollWidth > info.VisibleWidth {
		parts = append(parts, fmt.Sprintf("horizontal %.0f%%", info.HorizontalPercent))
	}
	return strings.Join(parts, ", ")
}

// contentHTML returns the HTML element of an iframe's content document.
func (t *Tree) contentHTML(ref NodeRef) *EnhancedNode {
	doc := t.Node(t.Node(ref).ContentDocument)
	if doc == nil {
		return nil
	}
	for _, c := range doc.Children {
		if cn := t.Node(c); cn != nil && cn.NodeType == ElementNode && cn.TagName() == "html" {
			return cn
		}
	}
	return nil
}
