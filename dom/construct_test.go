package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFixtureTree(t *testing.T, svc *Service, tr *fakeTransport) *Tree {
	t.Helper()
	tree, err := svc.BuildTree(context.Background(), tr)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

func TestBuildTreeNestedIframeOffsets(t *testing.T) {
	inner := document(
		el("html", at(0, 0, 400, 400), scrollRect(0, 10, 400, 800), clientRect(0, 0, 400, 400), kids(
			el("body", at(0, 0, 400, 800), kids(
				el("button", at(5, 20, 100, 30), backend(3000)),
			)),
		)),
	)
	middle := document(
		el("html", at(0, 0, 600, 1200), scrollRect(0, 50, 600, 1200), clientRect(0, 0, 600, 600), kids(
			el("body", at(0, 0, 600, 1200), kids(
				el("iframe", at(20, 300, 400, 400), backend(2000), contentDoc(inner)),
			)),
		)),
	)
	top := document(
		el("html", at(0, 0, 1000, 3000), scrollRect(0, 100, 1000, 3000), clientRect(0, 0, 1000, 800), kids(
			el("body", at(0, 0, 1000, 3000), kids(
				el("iframe", at(50, 200, 600, 600), backend(1000), contentDoc(middle)),
			)),
		)),
	)

	tree := buildFixtureTree(t, NewService(DefaultConfig()), newFake("page", top))

	tests := []struct {
		name    string
		backend int
		want    BoundingBox
	}{
		{"outer iframe", 1000, BoundingBox{X: 50, Y: 100, Width: 600, Height: 600}},
		{"inner iframe", 2000, BoundingBox{X: 70, Y: 350, Width: 400, Height: 400}},
		{"button in innermost document", 3000, BoundingBox{X: 75, Y: 360, Width: 100, Height: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := nodeByBackend(tree, tt.backend)
			require.NotNil(t, n)
			require.NotNil(t, n.AbsolutePosition)
			assert.Equal(t, tt.want, *n.AbsolutePosition)
			assert.True(t, n.IsVisible())
		})
	}
}

func TestBuildTreeVisibility(t *testing.T) {
	root := page(
		el("div", at(0, 0, 100, 100), backend(1), css("display", "none"), kids(
			el("span", at(0, 0, 10, 10), backend(2)),
		)),
		el("div", at(0, 0, 100, 100), backend(3), css("opacity", "0"), kids(
			el("span", at(0, 0, 10, 10), backend(4)),
		)),
		el("div", at(0, 0, 100, 100), backend(5), css("visibility", "hidden")),
		el("div", at(0, 1500, 100, 100), backend(6)),
		el("div", at(0, 5000, 100, 100), backend(7)),
		el("div", at(2000, 0, 100, 100), backend(8)),
		el("div", backend(9)),
		el("div", at(10, 10, 100, 100), backend(10), css("opacity", "bogus")),
	)

	tree := buildFixtureTree(t, NewService(DefaultConfig()), newFake("page", root))

	tests := []struct {
		name    string
		backend int
		visible bool
	}{
		{"display none", 1, false},
		{"child of display none", 2, false},
		{"opacity zero", 3, false},
		{"child of opacity zero", 4, false},
		{"visibility hidden", 5, false},
		{"below the fold within slack", 6, true},
		{"far below the fold", 7, false},
		{"right of the viewport", 8, false},
		{"no layout", 9, false},
		{"unparseable opacity", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := nodeByBackend(tree, tt.backend)
			require.NotNil(t, n)
			assert.Equal(t, tt.visible, n.IsVisible())
		})
	}
}

func TestBuildTreeLinksShadowRootsAndParents(t *testing.T) {
	root := page(
		el("my-widget", at(0, 0, 100, 100), backend(50), shadow(
			fragment("open", el("button", at(0, 0, 50, 20), backend(51))),
		), kids(
			el("span", at(0, 0, 10, 10), backend(52)),
		)),
	)

	tree := buildFixtureTree(t, NewService(DefaultConfig()), newFake("page", root))

	host := nodeByBackend(tree, 50)
	require.NotNil(t, host)
	require.Len(t, host.ShadowRoots, 1)
	require.Len(t, host.Children, 1)

	refs := tree.ChildrenAndShadowRoots(host.Ref)
	require.Len(t, refs, 2)
	assert.Equal(t, DocumentFragmentNode, tree.Node(refs[0]).NodeType)
	assert.Equal(t, "open", tree.Node(refs[0]).ShadowRootType)
	assert.Equal(t, 52, tree.Node(refs[1]).BackendNodeID)

	btn := nodeByBackend(tree, 51)
	require.NotNil(t, btn)
	assert.Equal(t, refs[0], btn.Parent)
	assert.Equal(t, host.Ref, tree.Parent(btn.Parent).Ref)
	assert.Equal(t, "page", btn.TargetID)
}

func TestBuildTreeAttachesAccessibilityData(t *testing.T) {
	root := page(
		el("div", at(0, 0, 100, 40), backend(70), attr("role", "button"),
			axRole("button"), axProp("focusable", true)),
	)

	tree := buildFixtureTree(t, NewService(DefaultConfig()), newFake("page", root))

	n := nodeByBackend(tree, 70)
	require.NotNil(t, n)
	require.NotNil(t, n.AX)
	assert.Equal(t, "button", n.AX.Role)
	v, ok := n.AX.Property("focusable")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.Equal(t, "button", n.Attr("role"))
}

func crossOriginTop(frameID string, w, h float64) *spec {
	return page(el("iframe", at(10, 20, w, h), backend(1000), frame(frameID)))
}

func crossOriginChild(id string, body ...*spec) *fakeTransport {
	return newFake(id, document(
		el("html", at(0, 0, 400, 400), scrollRect(0, 0, 400, 400), clientRect(0, 0, 400, 400), kids(
			el("body", at(0, 0, 400, 400), kids(body...)),
		)),
	))
}

func TestBuildTreeCrossOriginIframes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CrossOriginIframes = true

	t.Run("expands visible iframe into the same arena", func(t *testing.T) {
		top := newFake("page", crossOriginTop("F1", 400, 400))
		top.targets["F1"] = crossOriginChild("oopif", el("button", at(5, 5, 50, 20), backend(5000)))

		tree := buildFixtureTree(t, NewService(cfg), top)

		iframe := nodeByBackend(tree, 1000)
		require.NotNil(t, iframe)
		require.NotEqual(t, NoNode, iframe.ContentDocument)
		assert.Equal(t, DocumentNode, tree.Node(iframe.ContentDocument).NodeType)

		btn := nodeByBackend(tree, 5000)
		require.NotNil(t, btn)
		assert.Equal(t, "oopif", btn.TargetID)
		require.NotNil(t, btn.AbsolutePosition)
		assert.Equal(t, BoundingBox{X: 15, Y: 25, Width: 50, Height: 20}, *btn.AbsolutePosition)
		assert.True(t, btn.IsVisible())
	})

	t.Run("skips iframes below the minimum size", func(t *testing.T) {
		top := newFake("page", crossOriginTop("F1", 100, 100))
		child := crossOriginChild("oopif", el("button", at(5, 5, 50, 20), backend(5000)))
		top.targets["F1"] = child

		tree := buildFixtureTree(t, NewService(cfg), top)

		assert.Equal(t, NoNode, nodeByBackend(tree, 1000).ContentDocument)
		assert.Zero(t, child.callCount("document"))
	})

	t.Run("disabled by default", func(t *testing.T) {
		top := newFake("page", crossOriginTop("F1", 400, 400))
		top.targets["F1"] = crossOriginChild("oopif")

		tree := buildFixtureTree(t, NewService(DefaultConfig()), top)

		assert.Equal(t, NoNode, nodeByBackend(tree, 1000).ContentDocument)
	})

	t.Run("missing target is skipped", func(t *testing.T) {
		top := newFake("page", crossOriginTop("F1", 400, 400))

		tree := buildFixtureTree(t, NewService(cfg), top)

		assert.Equal(t, NoNode, nodeByBackend(tree, 1000).ContentDocument)
	})

	t.Run("failing target is skipped", func(t *testing.T) {
		top := newFake("page", crossOriginTop("F1", 400, 400))
		child := crossOriginChild("oopif")
		child.fail["document"] = 2
		top.targets["F1"] = child

		tree := buildFixtureTree(t, NewService(cfg), top)

		assert.Equal(t, NoNode, nodeByBackend(tree, 1000).ContentDocument)
	})

	t.Run("recursion stops at max depth", func(t *testing.T) {
		depthCfg := cfg
		depthCfg.MaxIframeDepth = 1

		top := newFake("page", crossOriginTop("F1", 400, 400))
		child := crossOriginChild("oopif",
			el("iframe", at(0, 0, 300, 300), backend(6000), frame("F2")))
		grandchild := crossOriginChild("deeper", el("button", at(5, 5, 50, 20), backend(7000)))
		child.targets["F2"] = grandchild
		top.targets["F1"] = child

		tree := buildFixtureTree(t, NewService(depthCfg), top)

		require.NotNil(t, nodeByBackend(tree, 6000))
		assert.Nil(t, nodeByBackend(tree, 7000))
		assert.Zero(t, grandchild.callCount("document"))
	})
	t.Run("failed attempts consume the iframe budget", func(t *testing.T) {
		budgetCfg := cfg
		budgetCfg.MaxIframes = 1

		top := newFake("page", page(
			el("iframe", at(10, 20, 400, 400), backend(1000), frame("F1")),
			el("iframe", at(10, 450, 400, 400), backend(1001), frame("F2")),
		))
		first := crossOriginChild("oopif-1")
		first.fail["document"] = 2
		second := crossOriginChild("oopif-2")
		second.fail["document"] = 2
		top.targets["F1"] = first
		top.targets["F2"] = second

		tree := buildFixtureTree(t, NewService(budgetCfg), top)

		assert.Equal(t, 2, first.callCount("document"))
		assert.Zero(t, second.callCount("document"))
		assert.Equal(t, NoNode, nodeByBackend(tree, 1001).ContentDocument)
	})

	t.Run("budget spans nested targets", func(t *testing.T) {
		budgetCfg := cfg
		budgetCfg.MaxIframes = 2

		top := newFake("page", crossOriginTop("F1", 400, 400))
		child := crossOriginChild("oopif",
			el("iframe", at(0, 0, 300, 300), backend(6000), frame("F2")))
		grandchild := crossOriginChild("deeper",
			el("button", at(5, 5, 50, 20), backend(7000)),
			el("iframe", at(0, 100, 250, 250), backend(8000), frame("F3")))
		last := crossOriginChild("deepest", el("button", at(5, 5, 50, 20), backend(9000)))
		grandchild.targets["F3"] = last
		child.targets["F2"] = grandchild
		top.targets["F1"] = child

		tree := buildFixtureTree(t, NewService(budgetCfg), top)

		require.NotNil(t, nodeByBackend(tree, 7000))
		require.NotNil(t, nodeByBackend(tree, 8000))
		assert.Equal(t, NoNode, nodeByBackend(tree, 8000).ContentDocument)
		assert.Nil(t, nodeByBackend(tree, 9000))
		assert.Zero(t, last.callCount("document"))
	})
}
