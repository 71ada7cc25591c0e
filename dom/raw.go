package dom

// CDP node types as reported by DOM.getDocument.
const (
	ElementNode          = 1
	AttributeNode        = 2
	TextNode             = 3
	CDATASectionNode     = 4
	CommentNode          = 8
	DocumentNode         = 9
	DocumentTypeNode     = 10
	DocumentFragmentNode = 11
)

// RawNode is one node of a DOM.getDocument response.
type RawNode struct {
	NodeID          int        `json:"nodeId"`
	ParentID        int        `json:"parentId,omitempty"`
	BackendNodeID   int        `json:"backendNodeId"`
	NodeType        int        `json:"nodeType"`
	NodeName        string     `json:"nodeName"`
	LocalName       string     `json:"localName,omitempty"`
	NodeValue       string     `json:"nodeValue"`
	Attributes      []string   `json:"attributes,omitempty"`
	Children        []*RawNode `json:"children,omitempty"`
	ShadowRoots     []*RawNode `json:"shadowRoots,omitempty"`
	ShadowRootType  string     `json:"shadowRootType,omitempty"`
	ContentDocument *RawNode   `json:"contentDocument,omitempty"`
	FrameID         string     `json:"frameId,omitempty"`
	IsScrollable    bool       `json:"isScrollable,omitempty"`
}

// RawDocumentResponse is the DOM.getDocument result.
type RawDocumentResponse struct {
	Root *RawNode `json:"root"`
}

// RawSnapshot is the DOMSnapshot.captureSnapshot result.
type RawSnapshot struct {
	Documents []RawSnapshotDocument `json:"documents"`
	Strings   []string              `json:"strings"`
}

// RawSnapshotDocument is one document of a layout snapshot. String fields
// are indices into RawSnapshot.Strings.
type RawSnapshotDocument struct {
	DocumentURL   int               `json:"documentURL"`
	FrameID       int               `json:"frameId"`
	Nodes         RawSnapshotNodes  `json:"nodes"`
	Layout        RawSnapshotLayout `json:"layout"`
	ScrollOffsetX float64           `json:"scrollOffsetX,omitempty"`
	ScrollOffsetY float64           `json:"scrollOffsetY,omitempty"`
}

// RawSnapshotNodes is the column-oriented node table of a snapshot document.
type RawSnapshotNodes struct {
	ParentIndex          []int            `json:"parentIndex,omitempty"`
	NodeType             []int            `json:"nodeType,omitempty"`
	NodeName             []int            `json:"nodeName,omitempty"`
	NodeValue            []int            `json:"nodeValue,omitempty"`
	BackendNodeID        []int            `json:"backendNodeId,omitempty"`
	Attributes           [][]int          `json:"attributes,omitempty"`
	IsClickable          *RareBooleanData `json:"isClickable,omitempty"`
	ContentDocumentIndex *RareIntegerData `json:"contentDocumentIndex,omitempty"`
}

// RawSnapshotLayout is the layout table; every column is indexed by layout index.
type RawSnapshotLayout struct {
	NodeIndex        []int            `json:"nodeIndex"`
	Styles           [][]int          `json:"styles"`
	Bounds           [][]float64      `json:"bounds"`
	Text             []int            `json:"text,omitempty"`
	StackingContexts *RareBooleanData `json:"stackingContexts,omitempty"`
	PaintOrders      []int            `json:"paintOrders,omitempty"`
	OffsetRects      [][]float64      `json:"offsetRects,omitempty"`
	ScrollRects      [][]float64      `json:"scrollRects,omitempty"`
	ClientRects      [][]float64      `json:"clientRects,omitempty"`
}

// RareBooleanData lists the indices for which a flag is true.
type RareBooleanData struct {
	Index []int `json:"index"`
}

// Set returns the flagged indices as a set. A nil receiver yields a nil set,
// which reports every index as unflagged.
func (d *RareBooleanData) Set() map[int]struct{} {
	if d == nil {
		return nil
	}
	set := make(map[int]struct{}, len(d.Index))
	for _, i := range d.Index {
		set[i] = struct{}{}
	}
	return set
}

// RareIntegerData pairs sparse indices with values.
type RareIntegerData struct {
	Index []int `json:"index"`
	Value []int `json:"value"`
}

// RawAXTreeResponse is the Accessibility.getFullAXTree result.
type RawAXTreeResponse struct {
	Nodes []RawAXNode `json:"nodes"`
}

// RawAXNode is one accessibility node.
type RawAXNode struct {
	NodeID           string          `json:"nodeId"`
	Ignored          bool            `json:"ignored"`
	Role             *RawAXValue     `json:"role,omitempty"`
	Name             *RawAXValue     `json:"name,omitempty"`
	Description      *RawAXValue     `json:"description,omitempty"`
	Properties       []RawAXProperty `json:"properties,omitempty"`
	ChildIDs         []string        `json:"childIds,omitempty"`
	BackendDOMNodeID int             `json:"backendDOMNodeId,omitempty"`
	FrameID          string          `json:"frameId,omitempty"`
}

// RawAXValue is a typed accessibility value. Value decodes to bool,
// float64, string or nil.
type RawAXValue struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// RawAXProperty is a named accessibility property.
type RawAXProperty struct {
	Name  string      `json:"name"`
	Value *RawAXValue `json:"value,omitempty"`
}

// ViewportMetrics is the subset of Page.getLayoutMetrics needed for
// coordinate normalization.
type ViewportMetrics struct {
	CSSWidth    float64
	CSSHeight   float64
	DeviceWidth float64
	ScrollX     float64
	ScrollY     float64
}

// DevicePixelRatio returns device pixels per CSS pixel, 1 when unknown.
func (m ViewportMetrics) DevicePixelRatio() float64 {
	if m.CSSWidth <= 0 || m.DeviceWidth <= 0 {
		return 1
	}
	return m.DeviceWidth / m.CSSWidth
}
