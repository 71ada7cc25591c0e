package dom

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// offset is the cumulative translation from iframe positions and negated
// document scroll.
type offset struct {
	X, Y float64
}

// constructor merges the raw trees of one target into the shared arena.
type constructor struct {
	svc       *Service
	tree      *Tree
	transport Transport
	targetID  string
	depth     int
	budget    *iframeBudget

	memo map[int]NodeRef
	ax   map[int]*AXNode
	snap map[int]*SnapshotNode
}

// iframeBudget counts cross-origin documents expanded during one extraction.
type iframeBudget struct {
	used int
}

func newConstructor(svc *Service, tree *Tree, t Transport, raw *rawTrees, depth int, budget *iframeBudget) *constructor {
	c := &constructor{
		svc:       svc,
		tree:      tree,
		transport: t,
		targetID:  t.TargetID(),
		depth:     depth,
		budget:    budget,
		memo:      make(map[int]NodeRef),
		ax:        make(map[int]*AXNode, len(raw.AX)),
		snap:      buildSnapshotLookup(raw.Snapshot, raw.Viewport.DevicePixelRatio()),
	}
	for i := range raw.AX {
		if ax := convertAXNode(&raw.AX[i]); ax != nil && raw.AX[i].BackendDOMNodeID > 0 {
			c.ax[raw.AX[i].BackendDOMNodeID] = ax
		}
	}
	return c
}

// convertAXNode projects a raw accessibility node.
func convertAXNode(raw *RawAXNode) *AXNode {
	ax := &AXNode{
		ID:       raw.NodeID,
		Ignored:  raw.Ignored,
		ChildIDs: raw.ChildIDs,
	}
	if raw.Role != nil {
		ax.Role = axString(raw.Role.Value)
	}
	if raw.Name != nil {
		ax.Name = axString(raw.Name.Value)
	}
	if raw.Description != nil {
		ax.Description = axString(raw.Description.Value)
	}
	for _, p := range raw.Properties {
		var v any
		if p.Value != nil {
			v = p.Value.Value
		}
		ax.Properties = append(ax.Properties, AXProperty{Name: p.Name, Value: v})
	}
	return ax
}

func axString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// parseAttributes turns the flat [name, value, ...] list into a map.
func parseAttributes(flat []string) map[string]string {
	attrs := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		attrs[flat[i]] = flat[i+1]
	}
	return attrs
}

// build constructs raw and its subtree. frames lists the enclosing HTML and
// IFRAME nodes outermost first.
func (c *constructor) build(ctx context.Context, raw *RawNode, parent NodeRef, frames []NodeRef, off offset, hiddenAncestor bool) (NodeRef, error) {
	if ref, ok := c.memo[raw.NodeID]; ok {
		return ref, nil
	}
	if err := ctx.Err(); err != nil {
		return NoNode, err
	}

	snap := c.snap[raw.BackendNodeID]
	node := EnhancedNode{
		NodeID:          raw.NodeID,
		BackendNodeID:   raw.BackendNodeID,
		NodeType:        raw.NodeType,
		NodeName:        raw.NodeName,
		NodeValue:       raw.NodeValue,
		Attributes:      parseAttributes(raw.Attributes),
		IsScrollable:    raw.IsScrollable,
		FrameID:         raw.FrameID,
		TargetID:        c.targetID,
		ShadowRootType:  raw.ShadowRootType,
		Parent:          parent,
		ContentDocument: NoNode,
		AX:              c.ax[raw.BackendNodeID],
		Snapshot:        snap,
	}
	if snap != nil && snap.Bounds != nil {
		abs := snap.Bounds.Translate(off.X, off.Y)
		node.AbsolutePosition = &abs
	}

	ref := c.tree.add(node)
	c.memo[raw.NodeID] = ref

	tag := strings.ToUpper(raw.NodeName)
	isElement := raw.NodeType == ElementNode
	childFrames := frames
	childOff := off

	if isElement && tag == "HTML" {
		childFrames = appendFrame(frames, ref)
		if snap != nil && snap.ScrollRects != nil {
			childOff.X -= snap.ScrollRects.X
			childOff.Y -= snap.ScrollRects.Y
		}
	}
	if isElement && (tag == "IFRAME" || tag == "FRAME") && snap != nil && snap.Bounds != nil {
		childFrames = appendFrame(frames, ref)
		childOff.X += snap.Bounds.X
		childOff.Y += snap.Bounds.Y
	}

	// Own frame entry for HTML only; an iframe is positioned by its parents.
	ownFrames := frames
	if isElement && tag == "HTML" {
		ownFrames = childFrames
	}
	vis := c.visibility(ref, ownFrames, hiddenAncestor)
	c.tree.Node(ref).Visibility = vis
	childHidden := hiddenAncestor || styleHidesSubtree(snap)

	if raw.ContentDocument != nil {
		docRef, err := c.build(ctx, raw.ContentDocument, ref, childFrames, childOff, childHidden)
		if err != nil {
			return NoNode, err
		}
		c.tree.Node(ref).ContentDocument = docRef
	} else if isElement && tag == "IFRAME" {
		if err := c.expandCrossOrigin(ctx, raw, ref, childFrames, childOff); err != nil {
			return NoNode, err
		}
	}

	var shadows []NodeRef
	for _, sr := range raw.ShadowRoots {
		child, err := c.build(ctx, sr, ref, childFrames, childOff, childHidden)
		if err != nil {
			return NoNode, err
		}
		shadows = append(shadows, child)
	}
	c.tree.Node(ref).ShadowRoots = shadows

	var children []NodeRef
	for _, ch := range raw.Children {
		child, err := c.build(ctx, ch, ref, childFrames, childOff, childHidden)
		if err != nil {
			return NoNode, err
		}
		children = append(children, child)
	}
	c.tree.Node(ref).Children = children

	if isElement {
		c.tree.Node(ref).CompoundChildren = compoundChildren(c.tree, ref)
	}

	return ref, nil
}

func appendFrame(frames []NodeRef, ref NodeRef) []NodeRef {
	out := make([]NodeRef, len(frames), len(frames)+1)
	copy(out, frames)
	return append(out, ref)
}

// styleHidesSubtree reports whether the node's computed style hides all of
// its descendants.
func styleHidesSubtree(snap *SnapshotNode) bool {
	if snap == nil {
		return false
	}
	if strings.EqualFold(snap.Style("display"), "none") {
		return true
	}
	if op, ok := parseOpacity(snap.Style("opacity")); ok && op <= 0 {
		return true
	}
	return false
}

// parseOpacity parses a computed opacity. ok is false for unparseable values.
func parseOpacity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1, false
	}
	return v, true
}

// visibility computes the absolute visibility of the node at ref against the
// enclosing frames, innermost first.
func (c *constructor) visibility(ref NodeRef, frames []NodeRef, hiddenAncestor bool) Visibility {
	n := c.tree.Node(ref)
	if hiddenAncestor || n.Snapshot == nil {
		return Hidden
	}

	display := strings.ToLower(n.Snapshot.Style("display"))
	visibility := strings.ToLower(n.Snapshot.Style("visibility"))
	if display == "none" || visibility == "hidden" {
		return Hidden
	}
	if op, ok := parseOpacity(n.Snapshot.Style("opacity")); ok && op <= 0 {
		return Hidden
	}
	if n.Snapshot.Bounds == nil {
		return Hidden
	}

	cur := *n.Snapshot.Bounds
	slack := c.svc.cfg.ViewportSlack
	for i := len(frames) - 1; i >= 0; i-- {
		frame := c.tree.Node(frames[i])
		if frame == nil || frame.Snapshot == nil {
			continue
		}
		switch frame.TagName() {
		case "iframe", "frame":
			if b := frame.Snapshot.Bounds; b != nil {
				cur.X += b.X
				cur.Y += b.Y
			}
		case "html":
			scroll := frame.Snapshot.ScrollRects
			client := frame.Snapshot.ClientRects
			if scroll == nil || client == nil {
				continue
			}
			x := cur.X - scroll.X
			y := cur.Y - scroll.Y
			intersects := x < client.Width &&
				x+cur.Width > 0 &&
				y < client.Height+slack &&
				y+cur.Height > -slack
			if !intersects {
				return Hidden
			}
			cur.X = x
			cur.Y = y
		}
	}

	return Visible
}

// expandCrossOrigin resolves an out-of-process iframe's target and
// constructs its document under the iframe node.
func (c *constructor) expandCrossOrigin(ctx context.Context, raw *RawNode, ref NodeRef, frames []NodeRef, off offset) error {
	cfg := c.svc.cfg
	if !cfg.CrossOriginIframes {
		return nil
	}

	n := c.tree.Node(ref)
	b := n.Bounds()
	if !n.IsVisible() || b == nil || b.Width < cfg.MinCrossOriginIframeSize || b.Height < cfg.MinCrossOriginIframeSize {
		return nil
	}
	if c.depth >= cfg.MaxIframeDepth {
		c.svc.log.Debug("skipping cross-origin iframe beyond max depth",
			zap.Int("depth", c.depth),
			zap.Int("backend_node_id", raw.BackendNodeID),
		)
		return nil
	}
	if raw.FrameID == "" {
		return nil
	}
	if c.budget.used >= cfg.MaxIframes {
		c.svc.log.Warn("cross-origin iframe budget exhausted",
			zap.Int("max_iframes", cfg.MaxIframes),
			zap.String("frame_id", raw.FrameID),
		)
		return nil
	}
	// Failed attempts count against the budget too.
	c.budget.used++

	sub, err := c.transport.FrameTarget(ctx, raw.FrameID)
	if errors.Is(err, ErrTargetNotFound) {
		c.svc.log.Debug("no target for cross-origin iframe", zap.String("frame_id", raw.FrameID))
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.svc.log.Warn("resolving cross-origin iframe target failed",
			zap.String("frame_id", raw.FrameID),
			zap.Error(err),
		)
		return nil
	}

	trees, err := c.svc.acquire(ctx, sub)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.svc.log.Warn("cross-origin iframe extraction failed",
			zap.String("frame_id", raw.FrameID),
			zap.String("target_id", sub.TargetID()),
			zap.Error(err),
		)
		return nil
	}

	nested := newConstructor(c.svc, c.tree, sub, trees, c.depth+1, c.budget)
	docRef, err := nested.build(ctx, trees.Document, ref, frames, off, false)
	if err != nil {
		return err
	}
	c.tree.Node(ref).ContentDocument = docRef
	return nil
}
