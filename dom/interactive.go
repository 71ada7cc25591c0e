package dom

import (
	"strings"
)

// interactiveTags are always considered interactive.
var interactiveTags = map[string]bool{
	"button": true, "input": true, "select": true, "textarea": true,
	"a": true, "details": true, "summary": true, "option": true,
	"optgroup": true,
}

// interactiveAttributes are event handler and focus attributes.
var interactiveAttributes = []string{
	"onclick", "onmousedown", "onmouseup", "onkeydown", "onkeyup", "tabindex",
}

// interactiveRoles are ARIA roles that make an element interactive when
// set through the role attribute.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "menuitem": true, "option": true,
	"radio": true, "checkbox": true, "tab": true, "textbox": true,
	"combobox": true, "slider": true, "spinbutton": true, "search": true,
	"searchbox": true,
}

// interactiveAXRoles are computed accessibility roles treated as interactive.
var interactiveAXRoles = map[string]bool{
	"button": true, "link": true, "menuitem": true, "option": true,
	"radio": true, "checkbox": true, "tab": true, "textbox": true,
	"combobox": true, "slider": true, "spinbutton": true, "listbox": true,
	"search": true, "searchbox": true,
}

// searchIndicators mark search affordances in class names, ids and data attributes.
var searchIndicators = []string{
	"search", "magnify", "glass", "lookup", "find", "query",
	"search-icon", "search-btn", "search-button", "searchbox",
}

// iconAttributes mark small elements as icon buttons.
var iconAttributes = []string{"class", "role", "onclick", "data-action", "aria-label"}

// Classifier decides whether a node is actionable. Results are cached per
// node, so one Classifier must not outlive its extraction.
type Classifier struct {
	iconMin, iconMax float64
	cache            map[NodeRef]bool
}

// NewClassifier returns a classifier using the icon-size bounds from cfg.
func NewClassifier(cfg Config) *Classifier {
	cfg = cfg.withDefaults()
	return &Classifier{
		iconMin: cfg.IconMin,
		iconMax: cfg.IconMax,
		cache:   make(map[NodeRef]bool),
	}
}

// IsInteractive classifies n, consulting the per-extraction cache.
func (c *Classifier) IsInteractive(n *EnhancedNode) bool {
	if v, ok := c.cache[n.Ref]; ok {
		return v
	}
	v := c.classify(n)
	c.cache[n.Ref] = v
	return v
}

func (c *Classifier) classify(n *EnhancedNode) bool {
	if n.NodeType != ElementNode {
		return false
	}

	tag := n.TagName()
	if tag == "html" || tag == "body" {
		return false
	}

	if tag == "iframe" || tag == "frame" {
		if b := n.Bounds(); b != nil && b.Width > 100 && b.Height > 100 {
			return true
		}
	}

	if hasSearchIndicator(n) {
		return true
	}

	if v, ok := axDecision(n.AX); ok {
		return v
	}

	if interactiveTags[tag] {
		return true
	}

	for _, attr := range interactiveAttributes {
		if n.HasAttr(attr) {
			return true
		}
	}
	if role, ok := n.Attributes["role"]; ok && interactiveRoles[role] {
		return true
	}

	if n.AX != nil && interactiveAXRoles[n.AX.Role] {
		return true
	}

	if b := n.Bounds(); b != nil &&
		b.Width >= c.iconMin && b.Width <= c.iconMax &&
		b.Height >= c.iconMin && b.Height <= c.iconMax {
		for _, attr := range iconAttributes {
			if n.HasAttr(attr) {
				return true
			}
		}
	}

	return n.Snapshot != nil && n.Snapshot.CursorStyle == "pointer"
}

func hasSearchIndicator(n *EnhancedNode) bool {
	if len(n.Attributes) == 0 {
		return false
	}
	containsAny := func(s string) bool {
		s = strings.ToLower(s)
		for _, ind := range searchIndicators {
			if strings.Contains(s, ind) {
				return true
			}
		}
		return false
	}

	if containsAny(strings.Join(strings.Fields(n.Attr("class")), " ")) {
		return true
	}
	if containsAny(n.Attr("id")) {
		return true
	}
	for name, value := range n.Attributes {
		if strings.HasPrefix(name, "data-") && containsAny(value) {
			return true
		}
	}
	return false
}

// axDecision applies the accessibility property rules in order. ok is false
// when no property decides.
func axDecision(ax *AXNode) (interactive bool, ok bool) {
	if ax == nil {
		return false, false
	}
	for _, p := range ax.Properties {
		if (p.Name == "disabled" || p.Name == "hidden") && truthy(p.Value) {
			return false, true
		}
	}
	for _, p := range ax.Properties {
		switch p.Name {
		case "focusable", "editable", "settable":
			if truthy(p.Value) {
				return true, true
			}
		case "checked", "expanded", "pressed", "selected":
			return true, true
		case "required", "autocomplete", "keyshortcuts":
			if truthy(p.Value) {
				return true, true
			}
		}
	}
	return false, false
}

// truthy mirrors loose truthiness of accessibility values.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x != "" && x != "false" && x != "none"
	default:
		return true
	}
}
