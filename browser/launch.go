package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config configures the launched Chrome instance.
type Config struct {
	Headless       bool          `yaml:"headless"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	BinPath        string        `yaml:"bin_path"`
	ControlURL     string        `yaml:"control_url"`
	Stealth        StealthConfig `yaml:"stealth"`
}

// DefaultConfig returns a headless 1280x720 configuration with stealth on.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		Stealth:        DefaultStealthConfig(),
	}
}

// Browser owns a Chrome process (or a connection to one) and opens pages
// as extraction transports.
type Browser struct {
	cfg      Config
	rod      *rod.Browser
	launcher *launcher.Launcher
	log      *zap.Logger
}

// Launch starts Chrome, or connects to cfg.ControlURL when set.
func Launch(ctx context.Context, cfg Config, log *zap.Logger) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}

	b := &Browser{cfg: cfg, log: log}
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.BinPath != "" {
			l = l.Bin(cfg.BinPath)
		}
		if cfg.Stealth.Enabled {
			l = applyStealthFlags(l)
		}

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		b.launcher = l
		controlURL = u
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.rod = rb

	log.Info("browser ready",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("stealth", cfg.Stealth.Enabled),
		zap.String("control_url", controlURL),
	)
	return b, nil
}

// Open creates a page, navigates to url and waits for the load event.
func (b *Browser) Open(ctx context.Context, url string) (*Transport, error) {
	page, err := b.rod.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := b.preparePage(ctx, page, url); err != nil {
		if cerr := page.Close(); cerr != nil {
			b.log.Warn("failed to close page", zap.String("target_id", string(page.TargetID)), zap.Error(cerr))
		}
		return nil, err
	}

	b.log.Debug("page opened", zap.String("url", url), zap.String("target_id", string(page.TargetID)))
	return NewTransport(b.rod, page), nil
}

// preparePage applies stealth and viewport settings to page and loads url.
func (b *Browser) preparePage(ctx context.Context, page *rod.Page, url string) error {
	if err := applyStealthMode(page, b.cfg.Stealth); err != nil {
		return err
	}

	if b.cfg.ViewportWidth > 0 && b.cfg.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             b.cfg.ViewportWidth,
			Height:            b.cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	return nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	var err error
	if b.rod != nil {
		err = b.rod.Close()
	}
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
