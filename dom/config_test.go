package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithDefaults(t *testing.T) {
	t.Run("zero config matches defaults", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), Config{}.withDefaults())
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		cfg := Config{ViewportSlack: 250, MaxIframes: 3, DisablePaintOrderFiltering: true}.withDefaults()
		assert.Equal(t, 250.0, cfg.ViewportSlack)
		assert.Equal(t, 3, cfg.MaxIframes)
		assert.True(t, cfg.DisablePaintOrderFiltering)
	})

	t.Run("out of range values fall back", func(t *testing.T) {
		cfg := Config{ViewportSlack: -5, ContainmentThreshold: 1.5, IconMin: 20, IconMax: 10}.withDefaults()
		def := DefaultConfig()
		assert.Equal(t, def.ViewportSlack, cfg.ViewportSlack)
		assert.Equal(t, def.ContainmentThreshold, cfg.ContainmentThreshold)
		assert.Equal(t, def.IconMax, cfg.IconMax)
	})
}
