package dom

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Timing is the per-pass duration breakdown of one extraction.
type Timing struct {
	Acquire       time.Duration `json:"acquire"`
	Construct     time.Duration `json:"construct"`
	Simplify      time.Duration `json:"simplify"`
	PaintOrder    time.Duration `json:"paintOrder"`
	Optimize      time.Duration `json:"optimize"`
	Containment   time.Duration `json:"containment"`
	AssignIndices time.Duration `json:"assignIndices"`
	Serialize     time.Duration `json:"serialize"`
	Total         time.Duration `json:"total"`
}

// Passes lists the measured passes in pipeline order.
func (t Timing) Passes() []PassTiming {
	return []PassTiming{
		{"acquire", t.Acquire},
		{"construct", t.Construct},
		{"simplify", t.Simplify},
		{"paint_order", t.PaintOrder},
		{"optimize", t.Optimize},
		{"containment", t.Containment},
		{"assign_indices", t.AssignIndices},
		{"serialize", t.Serialize},
	}
}

// PassTiming is one named pass duration.
type PassTiming struct {
	Pass     string
	Duration time.Duration
}

// Observer receives extraction measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveExtraction(timing Timing, selectors int, err error)
}

// SerializedState is the result of one extraction.
type SerializedState struct {
	// Text is the indented LLM-facing representation.
	Text string

	// SelectorMap resolves the ids shown in Text to nodes.
	SelectorMap SelectorMap

	// Root is the filtered tree Text was rendered from, nil for empty pages.
	Root *SimplifiedNode

	// Tree is the arena backing Root and SelectorMap.
	Tree *Tree

	Timing Timing
}

// Service extracts enhanced DOM trees.
type Service struct {
	cfg      Config
	log      *zap.Logger
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver sets the measurement observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// NewService creates a service. Zero-valued tunables in cfg take their
// defaults, so NewService(Config{}) behaves like NewService(DefaultConfig()).
func NewService(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg.withDefaults(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// BuildTree acquires the source trees of t and merges them into an enhanced tree.
func (s *Service) BuildTree(ctx context.Context, t Transport) (*Tree, error) {
	tree, _, err := s.buildTree(ctx, t)
	return tree, err
}

func (s *Service) buildTree(ctx context.Context, t Transport) (*Tree, Timing, error) {
	var timing Timing

	start := time.Now()
	trees, err := s.acquire(ctx, t)
	timing.Acquire = time.Since(start)
	if err != nil {
		return nil, timing, err
	}

	start = time.Now()
	tree := newTree()
	c := newConstructor(s, tree, t, trees, 0, &iframeBudget{})
	root, err := c.build(ctx, trees.Document, NoNode, nil, offset{}, false)
	timing.Construct = time.Since(start)
	if err != nil {
		return nil, timing, fmt.Errorf("construct tree: %w", err)
	}
	tree.Root = root

	return tree, timing, nil
}

// ExtractTree builds the enhanced tree of t and serializes it. Nodes whose
// backend ids are missing from previous are flagged new; pass nil on the
// first extraction of a page.
func (s *Service) ExtractTree(ctx context.Context, t Transport, previous SelectorMap) (*SerializedState, error) {
	start := time.Now()

	tree, timing, err := s.buildTree(ctx, t)
	if err != nil {
		timing.Total = time.Since(start)
		s.observe(timing, 0, err)
		return nil, err
	}

	state := s.Serialize(tree, previous)
	state.Timing.Acquire = timing.Acquire
	state.Timing.Construct = timing.Construct
	state.Timing.Total = time.Since(start)

	s.log.Debug("extracted dom tree",
		zap.String("target_id", t.TargetID()),
		zap.Int("nodes", tree.Len()),
		zap.Int("selectors", len(state.SelectorMap)),
		zap.Duration("acquire", state.Timing.Acquire),
		zap.Duration("construct", state.Timing.Construct),
		zap.Duration("total", state.Timing.Total),
	)
	s.observe(state.Timing, len(state.SelectorMap), nil)

	return state, nil
}

func (s *Service) observe(timing Timing, selectors int, err error) {
	if s.observer != nil {
		s.observer.ObserveExtraction(timing, selectors, err)
	}
}

// Serialize runs simplification, occlusion, containment, index assignment
// and rendering over an already constructed tree. It does not modify tree,
// so repeated calls yield identical output.
func (s *Service) Serialize(tree *Tree, previous SelectorMap) *SerializedState {
	var timing Timing
	state := &SerializedState{
		SelectorMap: make(SelectorMap),
		Tree:        tree,
	}

	start := time.Now()
	simp := &simplifier{tree: tree}
	root := simp.build(tree.Root)
	timing.Simplify = time.Since(start)

	if root != nil && !s.cfg.DisablePaintOrderFiltering {
		start = time.Now()
		f := &paintOrderFilter{tree: tree, occlusionOpacity: s.cfg.OcclusionOpacity}
		if marked := f.apply(root); marked > 0 {
			s.log.Debug("nodes hidden by paint order", zap.Int("count", marked))
		}
		timing.PaintOrder = time.Since(start)
	}

	start = time.Now()
	root = simp.optimize(root)
	timing.Optimize = time.Since(start)

	if root != nil {
		start = time.Now()
		cf := &containmentFilter{tree: tree, threshold: s.cfg.ContainmentThreshold}
		cf.apply(root)
		timing.Containment = time.Since(start)

		start = time.Now()
		a := &indexAssigner{
			tree:       tree,
			classifier: NewClassifier(s.cfg),
			previous:   previous,
			selectors:  state.SelectorMap,
		}
		a.assign(root)
		timing.AssignIndices = time.Since(start)

		start = time.Now()
		w := &treeWriter{tree: tree, include: s.cfg.IncludeAttributes}
		w.write(root, 0)
		state.Text = w.String()
		timing.Serialize = time.Since(start)
	}

	state.Root = root
	state.Timing = timing
	return state
}
