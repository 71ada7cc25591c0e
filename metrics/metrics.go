// Package metrics exports extraction measurements to Prometheus.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anxuanzi/bua-dom/dom"
)

// PrometheusObserver records pass durations, outcomes and selector map sizes.
type PrometheusObserver struct {
	passDuration  *prometheus.HistogramVec
	extractions   *prometheus.CounterVec
	selectorCount prometheus.Histogram
}

var _ dom.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the extraction metrics on reg, reusing
// collectors that are already registered.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "bua_dom"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	passDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_pass_duration_seconds",
		Help:      "Duration of each DOM extraction pass.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
	}, []string{"pass"})
	extractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "DOM extractions by outcome.",
	}, []string{"status"})
	selectorCount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "selector_map_size",
		Help:      "Interactive elements per extraction.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	var err error
	if passDuration, err = register(reg, passDuration); err != nil {
		return nil, err
	}
	if extractions, err = register(reg, extractions); err != nil {
		return nil, err
	}
	if selectorCount, err = register(reg, selectorCount); err != nil {
		return nil, err
	}

	return &PrometheusObserver{
		passDuration:  passDuration,
		extractions:   extractions,
		selectorCount: selectorCount,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register extraction metric: %w", err)
	}
	return c, nil
}

// ObserveExtraction implements dom.Observer.
func (o *PrometheusObserver) ObserveExtraction(timing dom.Timing, selectors int, err error) {
	if o == nil {
		return
	}

	for _, p := range timing.Passes() {
		if p.Duration > 0 {
			o.passDuration.WithLabelValues(p.Pass).Observe(p.Duration.Seconds())
		}
	}
	o.passDuration.WithLabelValues("total").Observe(timing.Total.Seconds())

	status := "ok"
	switch {
	case errors.Is(err, dom.ErrTreesUnavailable):
		status = "trees_unavailable"
	case err != nil:
		status = "error"
	}
	o.extractions.WithLabelValues(status).Inc()

	if err == nil {
		o.selectorCount.Observe(float64(selectors))
	}
}
