package dom

// RequiredComputedStyles is the computed-style whitelist requested from
// DOMSnapshot.captureSnapshot. Style columns in the response follow this order.
var RequiredComputedStyles = []string{
	"display",
	"visibility",
	"opacity",
	"overflow",
	"overflow-x",
	"overflow-y",
	"cursor",
	"pointer-events",
	"position",
	"background-color",
}

// buildSnapshotLookup indexes every snapshot node with a backend id.
// Rectangles are converted from device pixels to CSS pixels using dpr.
func buildSnapshotLookup(snap *RawSnapshot, dpr float64) map[int]*SnapshotNode {
	lookup := make(map[int]*SnapshotNode)
	if snap == nil {
		return lookup
	}

	getString := func(idx int) string {
		if idx >= 0 && idx < len(snap.Strings) {
			return snap.Strings[idx]
		}
		return ""
	}

	for d := range snap.Documents {
		doc := &snap.Documents[d]
		nodes := doc.Nodes
		layout := doc.Layout

		// First layout entry wins for nodes with several layout objects.
		layoutLookup := make(map[int]int, len(layout.NodeIndex))
		for layoutIdx, nodeIdx := range layout.NodeIndex {
			if _, ok := layoutLookup[nodeIdx]; !ok {
				layoutLookup[nodeIdx] = layoutIdx
			}
		}
		clickable := nodes.IsClickable.Set()
		stacking := layout.StackingContexts.Set()

		for nodeIdx, backendID := range nodes.BackendNodeID {
			sn := &SnapshotNode{}
			if nodes.IsClickable != nil {
				_, ok := clickable[nodeIdx]
				sn.IsClickable = &ok
			}

			if layoutIdx, ok := layoutLookup[nodeIdx]; ok {
				if layoutIdx < len(layout.Bounds) {
					sn.Bounds = boxFromSlice(layout.Bounds[layoutIdx], dpr)
				}
				if layoutIdx < len(layout.Styles) {
					styles := make(map[string]string, len(RequiredComputedStyles))
					for i, strIdx := range layout.Styles[layoutIdx] {
						if i < len(RequiredComputedStyles) {
							styles[RequiredComputedStyles[i]] = getString(strIdx)
						}
					}
					sn.ComputedStyles = styles
					sn.CursorStyle = styles["cursor"]
				}
				if layoutIdx < len(layout.PaintOrders) {
					order := layout.PaintOrders[layoutIdx]
					sn.PaintOrder = &order
				}
				if layoutIdx < len(layout.ClientRects) {
					sn.ClientRects = boxFromSlice(layout.ClientRects[layoutIdx], 1)
				}
				if layoutIdx < len(layout.ScrollRects) {
					sn.ScrollRects = boxFromSlice(layout.ScrollRects[layoutIdx], 1)
				}
				_, sn.StackingContext = stacking[layoutIdx]
			}

			lookup[backendID] = sn
		}
	}

	return lookup
}
