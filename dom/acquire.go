package dom

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrTreesUnavailable is returned when a source tree could not be fetched
	// after its retry.
	ErrTreesUnavailable = errors.New("dom: trees unavailable")

	// ErrTargetNotFound is returned by Transport.FrameTarget when no browser
	// target hosts the frame.
	ErrTargetNotFound = errors.New("dom: frame target not found")
)

// Transport issues browser-protocol requests against one page or frame target.
type Transport interface {
	// GetDocument returns the full DOM tree, piercing shadow roots and iframes.
	GetDocument(ctx context.Context) (*RawNode, error)

	// CaptureSnapshot returns the layout snapshot with paint order and DOM rects.
	CaptureSnapshot(ctx context.Context, computedStyles []string) (*RawSnapshot, error)

	// ListFrames returns the ids of every frame of the target in tree order.
	ListFrames(ctx context.Context) ([]string, error)

	// GetFullAXTree returns the accessibility tree of one frame.
	GetFullAXTree(ctx context.Context, frameID string) ([]RawAXNode, error)

	// GetViewportMetrics returns CSS and device viewport sizes.
	GetViewportMetrics(ctx context.Context) (ViewportMetrics, error)

	// FrameTarget returns a transport bound to the target hosting an
	// out-of-process frame.
	FrameTarget(ctx context.Context, frameID string) (Transport, error)

	// TargetID identifies the bound target.
	TargetID() string
}

// rawTrees holds the results of one acquisition.
type rawTrees struct {
	Document *RawNode
	Snapshot *RawSnapshot
	AX       []RawAXNode
	Viewport ViewportMetrics
}

// fetchWithRetry runs fn with the primary timeout and, if it fails or is still
// pending at the deadline, once more with the retry timeout.
func (s *Service) fetchWithRetry(ctx context.Context, name string, fn func(context.Context) error) error {
	attempt := func(timeout time.Duration) error {
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(actx)
	}

	err := attempt(s.cfg.AcquireTimeout)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}

	s.log.Debug("retrying tree request",
		zap.String("request", name),
		zap.Duration("timeout", s.cfg.RetryTimeout),
		zap.Error(err),
	)
	if err := attempt(s.cfg.RetryTimeout); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// acquire fetches the document, snapshot, accessibility trees and viewport
// metrics concurrently.
func (s *Service) acquire(ctx context.Context, t Transport) (*rawTrees, error) {
	var (
		out  rawTrees
		mu   sync.Mutex
		errs *multierror.Error
		g    errgroup.Group
	)

	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			err := s.fetchWithRetry(ctx, name, fn)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
			return err
		})
	}

	run("document", func(ctx context.Context) error {
		doc, err := t.GetDocument(ctx)
		if err != nil {
			return err
		}
		if doc == nil {
			return errors.New("empty document")
		}
		out.Document = doc
		return nil
	})

	run("snapshot", func(ctx context.Context) error {
		snap, err := t.CaptureSnapshot(ctx, RequiredComputedStyles)
		if err != nil {
			return err
		}
		out.Snapshot = snap
		return nil
	})

	run("accessibility", func(ctx context.Context) error {
		nodes, err := s.fetchAXTrees(ctx, t)
		if err != nil {
			return err
		}
		out.AX = nodes
		return nil
	})

	run("viewport", func(ctx context.Context) error {
		vm, err := t.GetViewportMetrics(ctx)
		if err != nil {
			return err
		}
		out.Viewport = vm
		return nil
	})

	_ = g.Wait()
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTreesUnavailable, err)
	}

	if out.Snapshot != nil && len(out.Snapshot.Documents) > s.cfg.MaxIframes {
		s.log.Warn("too many snapshot documents, truncating",
			zap.Int("documents", len(out.Snapshot.Documents)),
			zap.Int("max_iframes", s.cfg.MaxIframes),
			zap.String("target_id", t.TargetID()),
		)
		out.Snapshot.Documents = out.Snapshot.Documents[:s.cfg.MaxIframes]
	}

	return &out, nil
}

// fetchAXTrees requests the accessibility tree of every frame and
// concatenates them in frame order.
func (s *Service) fetchAXTrees(ctx context.Context, t Transport) ([]RawAXNode, error) {
	frames, err := t.ListFrames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	perFrame := make([][]RawAXNode, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.AXConcurrency)
	for i, frameID := range frames {
		g.Go(func() error {
			nodes, err := t.GetFullAXTree(gctx, frameID)
			if err != nil {
				return fmt.Errorf("frame %s: %w", frameID, err)
			}
			perFrame[i] = nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []RawAXNode
	for _, nodes := range perFrame {
		all = append(all, nodes...)
	}
	return all, nil
}
