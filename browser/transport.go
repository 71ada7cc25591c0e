// Package browser connects the dom extraction service to Chrome through go-rod.
package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/anxuanzi/bua-dom/dom"
)

// Transport implements dom.Transport for one rod page or frame target.
type Transport struct {
	browser *rod.Browser
	page    *rod.Page
}

var _ dom.Transport = (*Transport)(nil)

// NewTransport binds a transport to page. browser is used to resolve
// cross-origin iframe targets.
func NewTransport(browser *rod.Browser, page *rod.Page) *Transport {
	return &Transport{browser: browser, page: page}
}

// Page returns the underlying page.
func (t *Transport) Page() *rod.Page {
	return t.page
}

// call sends a raw CDP command on the page session and decodes the result into out.
func (t *Transport) call(ctx context.Context, method string, params, out any) error {
	data, err := t.page.Call(ctx, string(t.page.SessionID), method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	return nil
}

// GetDocument fetches the whole document, piercing shadow roots and iframes.
func (t *Transport) GetDocument(ctx context.Context) (*dom.RawNode, error) {
	var res dom.RawDocumentResponse
	err := t.call(ctx, "DOM.getDocument", proto.DOMGetDocument{
		Depth:  gson.Int(-1),
		Pierce: true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Root, nil
}

// CaptureSnapshot captures layout, paint order and the requested computed styles.
func (t *Transport) CaptureSnapshot(ctx context.Context, computedStyles []string) (*dom.RawSnapshot, error) {
	var res dom.RawSnapshot
	err := t.call(ctx, "DOMSnapshot.captureSnapshot", proto.DOMSnapshotCaptureSnapshot{
		ComputedStyles:    computedStyles,
		IncludePaintOrder: true,
		IncludeDOMRects:   true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListFrames returns the frame ids of the page in tree order.
func (t *Transport) ListFrames(ctx context.Context) ([]string, error) {
	res, err := proto.PageGetFrameTree{}.Call(t.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("Page.getFrameTree: %w", err)
	}

	var ids []string
	var walk func(*proto.PageFrameTree)
	walk = func(ft *proto.PageFrameTree) {
		if ft == nil || ft.Frame == nil {
			return
		}
		ids = append(ids, string(ft.Frame.ID))
		for _, child := range ft.ChildFrames {
			walk(child)
		}
	}
	walk(res.FrameTree)
	return ids, nil
}

// GetFullAXTree fetches the accessibility tree of one frame.
func (t *Transport) GetFullAXTree(ctx context.Context, frameID string) ([]dom.RawAXNode, error) {
	var res dom.RawAXTreeResponse
	err := t.call(ctx, "Accessibility.getFullAXTree", proto.AccessibilityGetFullAXTree{
		FrameID: proto.PageFrameID(frameID),
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

type layoutViewport struct {
	ClientWidth  float64 `json:"clientWidth"`
	ClientHeight float64 `json:"clientHeight"`
	PageX        float64 `json:"pageX"`
	PageY        float64 `json:"pageY"`
}

type layoutMetrics struct {
	CSSVisualViewport *layoutViewport `json:"cssVisualViewport"`
	VisualViewport    *layoutViewport `json:"visualViewport"`
}

// GetViewportMetrics reads CSS and device viewport sizes.
func (t *Transport) GetViewportMetrics(ctx context.Context) (dom.ViewportMetrics, error) {
	var res layoutMetrics
	if err := t.call(ctx, "Page.getLayoutMetrics", proto.PageGetLayoutMetrics{}, &res); err != nil {
		return dom.ViewportMetrics{}, err
	}

	return res.viewport(), nil
}

func (lm layoutMetrics) viewport() dom.ViewportMetrics {
	var m dom.ViewportMetrics
	if css := lm.CSSVisualViewport; css != nil {
		m.CSSWidth = css.ClientWidth
		m.CSSHeight = css.ClientHeight
		m.ScrollX = css.PageX
		m.ScrollY = css.PageY
	}
	if dev := lm.VisualViewport; dev != nil {
		m.DeviceWidth = dev.ClientWidth
	}
	return m
}

// FrameTarget attaches to the out-of-process target hosting frameID.
// Out-of-process iframe targets share their frame's id.
func (t *Transport) FrameTarget(ctx context.Context, frameID string) (dom.Transport, error) {
	if t.browser == nil {
		return nil, dom.ErrTargetNotFound
	}

	res, err := proto.TargetGetTargets{}.Call(t.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("Target.getTargets: %w", err)
	}

	for _, info := range res.TargetInfos {
		if string(info.TargetID) != frameID || string(info.Type) != "iframe" {
			continue
		}
		page, err := t.browser.PageFromTarget(info.TargetID)
		if err != nil {
			return nil, fmt.Errorf("attach to iframe target %s: %w", info.TargetID, err)
		}
		return NewTransport(t.browser, page), nil
	}

	return nil, fmt.Errorf("%w: %s", dom.ErrTargetNotFound, frameID)
}

// TargetID returns the bound target id.
func (t *Transport) TargetID() string {
	return string(t.page.TargetID)
}
