package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// StealthConfig configures protocol-level anti-detection measures. Nothing
// here injects page scripts.
type StealthConfig struct {
	// Enabled turns on the stealth launch flags and page overrides.
	Enabled bool `yaml:"enabled"`

	// UserAgent overrides the browser user agent.
	UserAgent string `yaml:"user_agent"`

	// Locale sets the Accept-Language header (e.g., "en-US").
	Locale string `yaml:"locale"`

	// Timezone sets the emulated timezone (e.g., "America/New_York").
	Timezone string `yaml:"timezone"`
}

// DefaultStealthConfig returns sensible stealth defaults.
func DefaultStealthConfig() StealthConfig {
	return StealthConfig{
		Enabled:   true,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Locale:    "en-US",
		Timezone:  "America/Los_Angeles",
	}
}

// Launch flags applied in stealth mode. Site isolation stays enabled so
// cross-origin iframes keep their own targets.
var stealthLaunchFlags = []string{
	"disable-blink-features=AutomationControlled",
	"disable-infobars",
	"disable-dev-shm-usage",
	"disable-renderer-backgrounding",
	"disable-backgrounding-occluded-windows",
	"disable-background-timer-throttling",
}

// StealthLaunchFlags returns Chrome flags for stealth mode.
func StealthLaunchFlags() []string {
	return append([]string(nil), stealthLaunchFlags...)
}

// applyStealthFlags sets every stealth flag on l. Flags with a value use the
// name=value form.
func applyStealthFlags(l *launcher.Launcher) *launcher.Launcher {
	for _, f := range stealthLaunchFlags {
		name, value, ok := strings.Cut(f, "=")
		if ok {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// applyStealthMode sets the user agent and timezone overrides on page.
func applyStealthMode(page *rod.Page, cfg StealthConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Locale,
		}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if cfg.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: cfg.Timezone}).Call(page); err != nil {
			return fmt.Errorf("failed to set timezone: %w", err)
		}
	}

	return nil
}
