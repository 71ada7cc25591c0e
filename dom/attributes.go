package dom

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxAttributeValueLength = 100
	minDedupeValueLength    = 5
)

// labelAttributes are dropped when they repeat the node's visible text.
var labelAttributes = []string{"aria-label", "placeholder", "title"}

// formatAXValue renders an accessibility value for the attribute string.
func formatAXValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", x))
	}
}

// buildAttributesString renders the allow-listed attributes of n as
// space-separated key=value pairs in allow-list order. text is the node's
// own visible text.
func buildAttributesString(n *EnhancedNode, include []string, text string) string {
	values := make(map[string]string)
	allowed := make(map[string]bool, len(include))
	for _, name := range include {
		allowed[name] = true
	}

	for name, value := range n.Attributes {
		if !allowed[name] {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			values[name] = v
		}
	}
	if n.AX != nil {
		for _, p := range n.AX.Properties {
			if !allowed[p.Name] || p.Value == nil {
				continue
			}
			if v := formatAXValue(p.Value); v != "" {
				values[p.Name] = v
			}
		}
	}
	if len(values) == 0 {
		return ""
	}

	ordered := make([]string, 0, len(values))
	seenKey := make(map[string]bool, len(values))
	for _, name := range include {
		if _, ok := values[name]; ok && !seenKey[name] {
			ordered = append(ordered, name)
			seenKey[name] = true
		}
	}

	if len(ordered) > 1 {
		seenValue := make(map[string]bool)
		for _, name := range ordered {
			v := values[name]
			if len(v) <= minDedupeValueLength {
				continue
			}
			if seenValue[v] {
				delete(values, name)
				continue
			}
			seenValue[v] = true
		}
	}

	tag := n.TagName()
	if role, ok := values["role"]; ok && (strings.EqualFold(role, tag) || (n.AX != nil && strings.EqualFold(role, n.AX.Role))) {
		delete(values, "role")
	}
	if typ, ok := values["type"]; ok && strings.EqualFold(typ, tag) {
		delete(values, "type")
	}
	if values["invalid"] == "false" {
		delete(values, "invalid")
	}
	if _, ok := values["expanded"]; ok {
		delete(values, "aria-expanded")
	}

	normalizedText := strings.ToLower(strings.TrimSpace(text))
	for _, name := range labelAttributes {
		v, ok := values[name]
		if ok && normalizedText != "" && strings.ToLower(v) == normalizedText {
			delete(values, name)
		}
	}

	parts := make([]string, 0, len(ordered))
	for _, name := range ordered {
		v, ok := values[name]
		if !ok {
			continue
		}
		parts = append(parts, name+"="+capText(v, maxAttributeValueLength))
	}
	return strings.Join(parts, " ")
}

// formatCompoundChildren renders the compound_components attribute.
func formatCompoundChildren(children []CompoundChild) string {
	var infos []string
	for _, c := range children {
		var parts []string
		if c.Name != "" {
			parts = append(parts, "name="+c.Name)
		}
		if c.Role != "" {
			parts = append(parts, "role="+c.Role)
		}
		if c.Min != nil {
			parts = append(parts, "min="+strconv.FormatFloat(*c.Min, 'f', -1, 64))
		}
		if c.Max != nil {
			parts = append(parts, "max="+strconv.FormatFloat(*c.Max, 'f', -1, 64))
		}
		if c.OptionsCount != nil {
			parts = append(parts, "count="+strconv.Itoa(*c.OptionsCount))
		}
		if len(c.FirstOptions) > 0 {
			parts = append(parts, "options="+strings.Join(c.FirstOptions, "|"))
		}
		if c.FormatHint != "" {
			parts = append(parts, "format="+c.FormatHint)
		}
		if len(parts) > 0 {
			infos = append(infos, "("+strings.Join(parts, ",")+")")
		}
	}
	if len(infos) == 0 {
		return ""
	}
	return "compound_components=" + strings.Join(infos, ",")
}

// directText joins the trimmed values of the node's direct text children.
func directText(t *Tree, n *EnhancedNode) string {
	var parts []string
	for _, c := range n.Children {
		cn := t.Node(c)
		if cn == nil || cn.NodeType != TextNode {
			continue
		}
		if s := strings.TrimSpace(cn.NodeValue); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
