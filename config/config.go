// Package config loads extraction, browser, logging and metrics settings
// from the environment and optional YAML files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/anxuanzi/bua-dom/browser"
	"github.com/anxuanzi/bua-dom/dom"
)

type Cfg struct {
	Extraction dom.Config     `yaml:"extraction"`
	Browser    browser.Config `yaml:"browser"`
	Logger     Logger         `yaml:"logger"`
	Metrics    Metrics        `yaml:"metrics"`
}

type Logger struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Addr      string `yaml:"addr"`
}

// Load reads .env when present, then BUA_* environment variables over the
// defaults.
func Load() (*Cfg, error) {
	_ = godotenv.Load()

	ext := dom.DefaultConfig()
	br := browser.DefaultConfig()

	cfg := &Cfg{
		Extraction: dom.Config{
			AcquireTimeout:             envDuration("BUA_ACQUIRE_TIMEOUT", ext.AcquireTimeout),
			RetryTimeout:               envDuration("BUA_RETRY_TIMEOUT", ext.RetryTimeout),
			MaxIframes:                 envInt("BUA_MAX_IFRAMES", ext.MaxIframes),
			MaxIframeDepth:             envInt("BUA_MAX_IFRAME_DEPTH", ext.MaxIframeDepth),
			CrossOriginIframes:         envBoolDefault("BUA_CROSS_ORIGIN_IFRAMES", ext.CrossOriginIframes),
			MinCrossOriginIframeSize:   envFloat("BUA_MIN_CROSS_ORIGIN_IFRAME_SIZE", ext.MinCrossOriginIframeSize),
			ViewportSlack:              envFloat("BUA_VIEWPORT_SLACK", ext.ViewportSlack),
			DisablePaintOrderFiltering: envBoolDefault("BUA_DISABLE_PAINT_ORDER_FILTERING", ext.DisablePaintOrderFiltering),
			ContainmentThreshold:       envFloat("BUA_CONTAINMENT_THRESHOLD", ext.ContainmentThreshold),
			OcclusionOpacity:           envFloat("BUA_OCCLUSION_OPACITY", ext.OcclusionOpacity),
			IconMin:                    envFloat("BUA_ICON_MIN", ext.IconMin),
			IconMax:                    envFloat("BUA_ICON_MAX", ext.IconMax),
			AXConcurrency:              envInt("BUA_AX_CONCURRENCY", ext.AXConcurrency),
			IncludeAttributes:          envList("BUA_INCLUDE_ATTRIBUTES", ext.IncludeAttributes),
		},
		Browser: browser.Config{
			Headless:       envBoolDefault("BUA_HEADLESS", br.Headless),
			ViewportWidth:  envInt("BUA_VIEWPORT_WIDTH", br.ViewportWidth),
			ViewportHeight: envInt("BUA_VIEWPORT_HEIGHT", br.ViewportHeight),
			BinPath:        env("BUA_CHROME_BIN", ""),
			ControlURL:     env("BUA_CONTROL_URL", ""),
			Stealth: browser.StealthConfig{
				Enabled:   envBoolDefault("BUA_STEALTH", br.Stealth.Enabled),
				UserAgent: env("BUA_USER_AGENT", br.Stealth.UserAgent),
				Locale:    env("BUA_LOCALE", br.Stealth.Locale),
				Timezone:  env("BUA_TIMEZONE", br.Stealth.Timezone),
			},
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Metrics: Metrics{
			Enabled:   envBool("BUA_METRICS"),
			Namespace: env("BUA_METRICS_NAMESPACE", "bua_dom"),
			Addr:      env("BUA_METRICS_ADDR", ":9090"),
		},
	}

	return cfg, nil
}

// LoadFile loads the environment configuration and overlays the YAML
// document at path. Keys absent from the file keep their loaded values.
func LoadFile(path string) (*Cfg, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, defaultValue bool) bool {
	if os.Getenv(key) == "" {
		return defaultValue
	}
	return envBool(key)
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func envList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
