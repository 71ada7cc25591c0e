package dom

import "time"

// DefaultIncludeAttributes is the attribute allow-list used by the serializer,
// in output order. Names are matched against both HTML attributes and
// accessibility properties.
var DefaultIncludeAttributes = []string{
	"title",
	"type",
	"checked",
	"id",
	"name",
	"role",
	"value",
	"placeholder",
	"data-date-format",
	"alt",
	"aria-label",
	"aria-expanded",
	"data-state",
	"aria-checked",
	"aria-valuemin",
	"aria-valuemax",
	"aria-valuenow",
	"aria-placeholder",
	"pattern",
	"min",
	"max",
	"minlength",
	"maxlength",
	"step",
	"pseudo",
	"selected",
	"expanded",
	"pressed",
	"disabled",
	"invalid",
	"valuemin",
	"valuemax",
	"valuenow",
	"keyshortcuts",
	"haspopup",
	"multiselectable",
	"required",
	"valuetext",
	"level",
	"busy",
	"live",
}

// Config holds the tunables of one extraction.
type Config struct {
	// AcquireTimeout bounds the first attempt of every acquisition request.
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`

	// RetryTimeout bounds the single retry of a failed or pending request.
	RetryTimeout time.Duration `yaml:"retry_timeout"`

	// MaxIframes caps the number of snapshot documents processed.
	MaxIframes int `yaml:"max_iframes"`

	// MaxIframeDepth bounds cross-origin iframe recursion.
	MaxIframeDepth int `yaml:"max_iframe_depth"`

	// CrossOriginIframes enables expansion of out-of-process iframes.
	CrossOriginIframes bool `yaml:"cross_origin_iframes"`

	// MinCrossOriginIframeSize is the minimum width and height of an iframe
	// worth expanding.
	MinCrossOriginIframeSize float64 `yaml:"min_cross_origin_iframe_size"`

	// ViewportSlack is the vertical tolerance in pixels when testing whether
	// a node intersects its frame's viewport.
	ViewportSlack float64 `yaml:"viewport_slack"`

	// DisablePaintOrderFiltering turns off the occlusion pass.
	DisablePaintOrderFiltering bool `yaml:"disable_paint_order_filtering"`

	// ContainmentThreshold is the fraction of a child's area that must lie
	// inside a propagating ancestor for the child to be absorbed.
	ContainmentThreshold float64 `yaml:"containment_threshold"`

	// OcclusionOpacity is the minimum opacity for a node to hide content below it.
	OcclusionOpacity float64 `yaml:"occlusion_opacity"`

	// IconMin and IconMax bound the icon-size heuristic in CSS pixels.
	IconMin float64 `yaml:"icon_min"`
	IconMax float64 `yaml:"icon_max"`

	// AXConcurrency limits parallel per-frame accessibility requests.
	AXConcurrency int `yaml:"ax_concurrency"`

	// IncludeAttributes is the serializer attribute allow-list.
	IncludeAttributes []string `yaml:"include_attributes"`
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		AcquireTimeout:           10 * time.Second,
		RetryTimeout:             2 * time.Second,
		MaxIframes:               100,
		MaxIframeDepth:           5,
		CrossOriginIframes:       false,
		MinCrossOriginIframeSize: 200,
		ViewportSlack:            1000,
		ContainmentThreshold:     0.99,
		OcclusionOpacity:         0.8,
		IconMin:                  10,
		IconMax:                  50,
		AXConcurrency:            4,
		IncludeAttributes:        append([]string(nil), DefaultIncludeAttributes...),
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = def.AcquireTimeout
	}
	if c.RetryTimeout <= 0 {
		c.RetryTimeout = def.RetryTimeout
	}
	if c.MaxIframes <= 0 {
		c.MaxIframes = def.MaxIframes
	}
	if c.MaxIframeDepth <= 0 {
		c.MaxIframeDepth = def.MaxIframeDepth
	}
	if c.MinCrossOriginIframeSize <= 0 {
		c.MinCrossOriginIframeSize = def.MinCrossOriginIframeSize
	}
	if c.ViewportSlack <= 0 {
		c.ViewportSlack = def.ViewportSlack
	}
	if c.ContainmentThreshold <= 0 || c.ContainmentThreshold > 1 {
		c.ContainmentThreshold = def.ContainmentThreshold
	}
	if c.OcclusionOpacity <= 0 || c.OcclusionOpacity > 1 {
		c.OcclusionOpacity = def.OcclusionOpacity
	}
	if c.IconMin <= 0 {
		c.IconMin = def.IconMin
	}
	if c.IconMax <= 0 || c.IconMax < c.IconMin {
		c.IconMax = def.IconMax
	}
	if c.AXConcurrency <= 0 {
		c.AXConcurrency = def.AXConcurrency
	}
	if len(c.IncludeAttributes) == 0 {
		c.IncludeAttributes = def.IncludeAttributes
	}
	return c
}
