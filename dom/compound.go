package dom

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func spin(name string, lo, hi float64) CompoundChild {
	return CompoundChild{Name: name, Role: "spinbutton", Min: floatPtr(lo), Max: floatPtr(hi)}
}

func button(name string) CompoundChild {
	return CompoundChild{Name: name, Role: "button"}
}

func slider(name string, lo, hi float64) CompoundChild {
	return CompoundChild{Name: name, Role: "slider", Min: floatPtr(lo), Max: floatPtr(hi)}
}

var (
	daySpin    = spin("Day", 1, 31)
	monthSpin  = spin("Month", 1, 12)
	yearSpin   = spin("Year", 1, 275760)
	hourSpin   = spin("Hour", 0, 23)
	minuteSpin = spin("Minute", 0, 59)
	weekSpin   = spin("Week", 1, 53)

	mediaControls = []CompoundChild{
		button("Play/Pause"),
		slider("Progress", 0, 100),
		button("Mute"),
		slider("Volume", 0, 100),
	}
)

// fixedInputCompounds lists the input types whose sub-widgets do not depend
// on attributes.
var fixedInputCompounds = map[string][]CompoundChild{
	"date":           {daySpin, monthSpin, yearSpin},
	"time":           {hourSpin, minuteSpin},
	"datetime-local": {daySpin, monthSpin, yearSpin, hourSpin, minuteSpin},
	"month":          {monthSpin, yearSpin},
	"week":           {weekSpin, yearSpin},
	"color": {
		{Name: "Hex Value", Role: "textbox"},
		button("Color Picker"),
	},
}

// compoundInputTypes is the set of input types treated as compound controls.
var compoundInputTypes = map[string]bool{
	"date": true, "time": true, "datetime-local": true, "month": true,
	"week": true, "range": true, "number": true, "color": true, "file": true,
}

// compoundChildren returns the virtual sub-widgets of a composite control.
// It runs after the node's children have been constructed.
func compoundChildren(t *Tree, ref NodeRef) []CompoundChild {
	n := t.Node(ref)
	tag := n.TagName()

	switch tag {
	case "input":
		typ := strings.ToLower(n.Attr("type"))
		if !compoundInputTypes[typ] {
			return nil
		}
		return inputCompounds(n, typ)
	case "select", "details", "audio", "video":
		if n.AX == nil || len(n.AX.ChildIDs) == 0 {
			return nil
		}
	default:
		return nil
	}

	switch tag {
	case "select":
		listbox := CompoundChild{Name: "Options", Role: "listbox"}
		if info := selectOptions(t, ref); info != nil {
			listbox.OptionsCount = intPtr(info.count)
			listbox.FirstOptions = info.first
			listbox.FormatHint = info.formatHint
		}
		return []CompoundChild{button("Dropdown Toggle"), listbox}
	case "details":
		return []CompoundChild{button("Toggle Disclosure"), {Name: "Content Area", Role: "region"}}
	case "audio":
		return append([]CompoundChild(nil), mediaControls...)
	default:
		return append(append([]CompoundChild(nil), mediaControls...), button("Fullscreen"))
	}
}

func inputCompounds(n *EnhancedNode, typ string) []CompoundChild {
	if fixed, ok := fixedInputCompounds[typ]; ok {
		return append([]CompoundChild(nil), fixed...)
	}

	switch typ {
	case "range":
		return []CompoundChild{slider("Value", attrFloat(n, "min", 0), attrFloat(n, "max", 100))}
	case "number":
		value := CompoundChild{Name: "Value", Role: "textbox"}
		if v, err := strconv.ParseFloat(n.Attr("min"), 64); err == nil {
			value.Min = floatPtr(v)
		}
		if v, err := strconv.ParseFloat(n.Attr("max"), 64); err == nil {
			value.Max = floatPtr(v)
		}
		return []CompoundChild{button("Increment"), button("Decrement"), value}
	case "file":
		selected := "File Selected"
		if n.HasAttr("multiple") {
			selected = "Files Selected"
		}
		return []CompoundChild{button("Browse Files"), {Name: selected, Role: "textbox"}}
	}
	return nil
}

func attrFloat(n *EnhancedNode, name string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(n.Attr(name)), 64)
	if err != nil {
		return def
	}
	return v
}

type selectInfo struct {
	count      int
	first      []string
	formatHint string
}

type selectOption struct {
	text, value string
}

const (
	maxShownOptions   = 4
	optionTextLimit   = 20
	optionValueLimit  = 10
	optionSingleLimit = 25
)

// selectOptions collects option texts and values below a select, descending
// through optgroups.
func selectOptions(t *Tree, ref NodeRef) *selectInfo {
	var opts []selectOption
	var walk func(NodeRef)
	walk = func(r NodeRef) {
		n := t.Node(r)
		if n == nil {
			return
		}
		if n.NodeType == ElementNode && n.TagName() == "option" {
			opt := selectOption{
				text:  strings.TrimSpace(collectText(t, r)),
				value: strings.TrimSpace(n.Attr("value")),
			}
			if opt.value == "" {
				opt.value = opt.text
			}
			if opt.text != "" || opt.value != "" {
				opts = append(opts, opt)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range t.Node(ref).Children {
		walk(c)
	}
	if len(opts) == 0 {
		return nil
	}

	info := &selectInfo{count: len(opts)}
	for i, o := range opts {
		if i == maxShownOptions {
			info.first = append(info.first, fmt.Sprintf("... %d more options...", len(opts)-maxShownOptions))
			break
		}
		info.first = append(info.first, optionLabel(o))
	}

	values := make([]string, 0, len(opts))
	for _, o := range opts {
		values = append(values, o.value)
	}
	info.formatHint = optionFormatHint(values)
	return info
}

func optionLabel(o selectOption) string {
	switch {
	case o.text != "" && o.value != "" && o.text != o.value:
		return fmt.Sprintf("%s (%s)", capText(o.text, optionTextLimit), capText(o.value, optionValueLimit))
	case o.text != "":
		return capText(o.text, optionSingleLimit)
	default:
		return capText(o.value, optionSingleLimit)
	}
}

// optionFormatHint guesses the value format from the first five non-empty values.
func optionFormatHint(values []string) string {
	if len(values) < 2 {
		return ""
	}
	var sample []string
	for _, v := range values[:min(5, len(values))] {
		if v != "" {
			sample = append(sample, v)
		}
	}
	if len(sample) == 0 {
		return ""
	}

	all := func(pred func(string) bool) bool {
		for _, v := range sample {
			if !pred(v) {
				return false
			}
		}
		return true
	}

	switch {
	case all(isDigits):
		return "numeric"
	case all(func(v string) bool { return len(v) == 2 && strings.ToUpper(v) == v && hasLetter(v) }):
		return "country/state codes"
	case all(func(v string) bool { return strings.ContainsAny(v, "/-") }):
		return "date/path format"
	}
	for _, v := range sample {
		if strings.Contains(v, "@") {
			return "email addresses"
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// collectText joins the trimmed text of every text node below ref.
func collectText(t *Tree, ref NodeRef) string {
	var parts []string
	var walk func(NodeRef)
	walk = func(r NodeRef) {
		n := t.Node(r)
		if n == nil {
			return
		}
		if n.NodeType == TextNode {
			if s := strings.TrimSpace(n.NodeValue); s != "" {
				parts = append(parts, s)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(ref)
	return strings.Join(parts, " ")
}

// capText truncates s to limit characters, marking the cut with "...".
func capText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
