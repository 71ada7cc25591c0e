package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// spec describes one node of a synthetic page.
type spec struct {
	nodeType   int
	name       string
	value      string
	attrs      []string
	bounds     []float64
	styles     map[string]string
	paint      int
	scroll     []float64
	client     []float64
	children   []*spec
	shadows    []*spec
	shadowType string
	content    *spec
	frameID    string
	ax         *RawAXNode
	backend    int
	scrollable bool

	nodeID int
}

type opt func(*spec)

func el(tag string, opts ...opt) *spec {
	s := &spec{nodeType: ElementNode, name: strings.ToUpper(tag)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func txt(value string, opts ...opt) *spec {
	s := &spec{nodeType: TextNode, name: "#text", value: value}
	for _, o := range opts {
		o(s)
	}
	return s
}

func document(children ...*spec) *spec {
	return &spec{nodeType: DocumentNode, name: "#document", children: children}
}

func fragment(mode string, children ...*spec) *spec {
	return &spec{nodeType: DocumentFragmentNode, name: "#document-fragment", shadowType: mode, children: children}
}

func at(x, y, w, h float64) opt {
	return func(s *spec) { s.bounds = []float64{x, y, w, h} }
}

func attr(kv ...string) opt {
	return func(s *spec) { s.attrs = append(s.attrs, kv...) }
}

func css(kv ...string) opt {
	return func(s *spec) {
		if s.styles == nil {
			s.styles = make(map[string]string)
		}
		for i := 0; i+1 < len(kv); i += 2 {
			s.styles[kv[i]] = kv[i+1]
		}
	}
}

func paint(n int) opt {
	return func(s *spec) { s.paint = n }
}

func scrollRect(x, y, w, h float64) opt {
	return func(s *spec) { s.scroll = []float64{x, y, w, h} }
}

func clientRect(x, y, w, h float64) opt {
	return func(s *spec) { s.client = []float64{x, y, w, h} }
}

func kids(children ...*spec) opt {
	return func(s *spec) { s.children = append(s.children, children...) }
}

func shadow(roots ...*spec) opt {
	return func(s *spec) { s.shadows = append(s.shadows, roots...) }
}

func contentDoc(d *spec) opt {
	return func(s *spec) { s.content = d }
}

func frame(id string) opt {
	return func(s *spec) { s.frameID = id }
}

func backend(id int) opt {
	return func(s *spec) { s.backend = id }
}

func axRole(role string) opt {
	return func(s *spec) {
		ensureAX(s).Role = &RawAXValue{Type: "role", Value: role}
	}
}

func axProp(name string, v any) opt {
	return func(s *spec) {
		ax := ensureAX(s)
		ax.Properties = append(ax.Properties, RawAXProperty{Name: name, Value: &RawAXValue{Type: "booleanOrUndefined", Value: v}})
	}
}

func axChildren(ids ...string) opt {
	return func(s *spec) { ensureAX(s).ChildIDs = ids }
}

func ensureAX(s *spec) *RawAXNode {
	if s.ax == nil {
		s.ax = &RawAXNode{}
	}
	return s.ax
}

// page wraps body content in a document with a 1280x720 viewport.
func page(body ...*spec) *spec {
	return document(
		el("html", at(0, 0, 1280, 720), scrollRect(0, 0, 1280, 720), clientRect(0, 0, 1280, 720), kids(
			el("head", kids(el("title", kids(txt("Fixture"))))),
			el("body", at(0, 0, 1280, 720), kids(body...)),
		)),
	)
}

var defaultStyles = map[string]string{
	"display":          "block",
	"visibility":       "visible",
	"opacity":          "1",
	"overflow":         "visible",
	"overflow-x":       "visible",
	"overflow-y":       "visible",
	"cursor":           "auto",
	"pointer-events":   "auto",
	"position":         "static",
	"background-color": transparentBackground,
}

// fixture is a compiled synthetic page.
type fixture struct {
	doc  *RawNode
	snap *RawSnapshot
	ax   []RawAXNode
}

func compile(root *spec) *fixture {
	f := &fixture{snap: &RawSnapshot{Documents: []RawSnapshotDocument{{}}}}
	strIdx := make(map[string]int)
	str := func(s string) int {
		if i, ok := strIdx[s]; ok {
			return i
		}
		f.snap.Strings = append(f.snap.Strings, s)
		strIdx[s] = len(f.snap.Strings) - 1
		return strIdx[s]
	}

	d := &f.snap.Documents[0]
	nextID := 1

	var walk func(s *spec, parentIdx int) *RawNode
	walk = func(s *spec, parentIdx int) *RawNode {
		s.nodeID = nextID
		nextID++
		if s.backend == 0 {
			s.backend = s.nodeID + 100
		}

		raw := &RawNode{
			NodeID:         s.nodeID,
			BackendNodeID:  s.backend,
			NodeType:       s.nodeType,
			NodeName:       s.name,
			NodeValue:      s.value,
			Attributes:     s.attrs,
			ShadowRootType: s.shadowType,
			FrameID:        s.frameID,
			IsScrollable:   s.scrollable,
		}

		idx := len(d.Nodes.BackendNodeID)
		d.Nodes.BackendNodeID = append(d.Nodes.BackendNodeID, s.backend)
		d.Nodes.NodeType = append(d.Nodes.NodeType, s.nodeType)
		d.Nodes.NodeName = append(d.Nodes.NodeName, str(s.name))
		d.Nodes.ParentIndex = append(d.Nodes.ParentIndex, parentIdx)

		if s.bounds != nil {
			l := &d.Layout
			l.NodeIndex = append(l.NodeIndex, idx)
			l.Bounds = append(l.Bounds, s.bounds)
			styles := make([]int, 0, len(RequiredComputedStyles))
			for _, name := range RequiredComputedStyles {
				v, ok := s.styles[name]
				if !ok {
					v = defaultStyles[name]
				}
				styles = append(styles, str(v))
			}
			l.Styles = append(l.Styles, styles)
			l.PaintOrders = append(l.PaintOrders, s.paint)
			l.ScrollRects = append(l.ScrollRects, orEmpty(s.scroll))
			l.ClientRects = append(l.ClientRects, orEmpty(s.client))
		}

		if s.ax != nil {
			ax := *s.ax
			ax.NodeID = fmt.Sprintf("ax-%d", s.nodeID)
			ax.BackendDOMNodeID = s.backend
			f.ax = append(f.ax, ax)
		}

		for _, sr := range s.shadows {
			raw.ShadowRoots = append(raw.ShadowRoots, walk(sr, idx))
		}
		for _, c := range s.children {
			raw.Children = append(raw.Children, walk(c, idx))
		}
		if s.content != nil {
			raw.ContentDocument = walk(s.content, idx)
		}
		return raw
	}

	f.doc = walk(root, -1)
	return f
}

func orEmpty(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

var errInjected = errors.New("injected failure")

// fakeTransport serves a compiled fixture and can fail or hang per request.
type fakeTransport struct {
	id       string
	fx       *fixture
	frames   []string
	axFrames map[string][]RawAXNode
	viewport ViewportMetrics
	targets  map[string]*fakeTransport

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]int
	hang  map[string]int
}

func newFake(id string, root *spec) *fakeTransport {
	return &fakeTransport{
		id:       id,
		fx:       compile(root),
		frames:   []string{id + "-main"},
		viewport: ViewportMetrics{CSSWidth: 1280, CSSHeight: 720, DeviceWidth: 1280},
		targets:  make(map[string]*fakeTransport),
		calls:    make(map[string]int),
		fail:     make(map[string]int),
		hang:     make(map[string]int),
	}
}

func (f *fakeTransport) hit(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	n := f.calls[method]
	hang := f.hang[method]
	fail := f.fail[method]
	f.mu.Unlock()

	if n <= hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= fail {
		return errInjected
	}
	return nil
}

func (f *fakeTransport) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeTransport) GetDocument(ctx context.Context) (*RawNode, error) {
	if err := f.hit(ctx, "document"); err != nil {
		return nil, err
	}
	return f.fx.doc, nil
}

func (f *fakeTransport) CaptureSnapshot(ctx context.Context, _ []string) (*RawSnapshot, error) {
	if err := f.hit(ctx, "snapshot"); err != nil {
		return nil, err
	}
	// Callers may truncate documents, so hand out a copy.
	snap := *f.fx.snap
	snap.Documents = append([]RawSnapshotDocument(nil), f.fx.snap.Documents...)
	return &snap, nil
}

func (f *fakeTransport) ListFrames(ctx context.Context) ([]string, error) {
	if err := f.hit(ctx, "frames"); err != nil {
		return nil, err
	}
	return f.frames, nil
}

func (f *fakeTransport) GetFullAXTree(ctx context.Context, frameID string) ([]RawAXNode, error) {
	if err := f.hit(ctx, "ax"); err != nil {
		return nil, err
	}
	if f.axFrames != nil {
		return f.axFrames[frameID], nil
	}
	if frameID == f.frames[0] {
		return f.fx.ax, nil
	}
	return nil, nil
}

func (f *fakeTransport) GetViewportMetrics(ctx context.Context) (ViewportMetrics, error) {
	if err := f.hit(ctx, "viewport"); err != nil {
		return ViewportMetrics{}, err
	}
	return f.viewport, nil
}

func (f *fakeTransport) FrameTarget(_ context.Context, frameID string) (Transport, error) {
	if t, ok := f.targets[frameID]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, frameID)
}

func (f *fakeTransport) TargetID() string {
	return f.id
}

// nodeByBackend finds a node in the arena.
func nodeByBackend(t *Tree, id int) *EnhancedNode {
	for i := 0; i < t.Len(); i++ {
		if n := t.Node(NodeRef(i)); n.BackendNodeID == id {
			return n
		}
	}
	return nil
}

// simplifiedByBackend finds a simplified node below root.
func simplifiedByBackend(t *Tree, root *SimplifiedNode, id int) *SimplifiedNode {
	if root == nil {
		return nil
	}
	if t.Node(root.Ref).BackendNodeID == id {
		return root
	}
	for _, c := range root.Children {
		if found := simplifiedByBackend(t, c, id); found != nil {
			return found
		}
	}
	return nil
}
