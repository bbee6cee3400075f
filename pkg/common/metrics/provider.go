/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides go-kit metric instruments backed by prometheus, or discarded.
package metrics

import (
	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/hyperledger/fabric-gateway-sdk-go/pkg/core/config"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Counter is a monotonically increasing metric
type Counter = kitmetrics.Counter

// Histogram records observations, e.g. durations in seconds
type Histogram = kitmetrics.Histogram

// CounterOpts describes a counter
type CounterOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	LabelNames []string
}

// HistogramOpts describes a histogram
type HistogramOpts struct {
	Namespace  string
	Subsystem  string
	Name       string
	Help       string
	Buckets    []float64
	LabelNames []string
}

// Provider creates metric instruments
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewHistogram(opts HistogramOpts) Histogram
}

// NewProvider returns the provider selected by the metrics configuration.
// Prometheus instruments are registered with registerer, or the default registerer when nil.
func NewProvider(cfg config.MetricsConfig, registerer prom.Registerer) (Provider, error) {
	switch cfg.Provider {
	case config.MetricsPrometheus:
		return &PrometheusProvider{Registerer: registerer}, nil
	case config.MetricsDisabled, "":
		return &DisabledProvider{}, nil
	default:
		return nil, errors.Errorf("unsupported metrics provider: %s", cfg.Provider)
	}
}

// PrometheusProvider creates instruments registered with a prometheus registry
type PrometheusProvider struct {
	Registerer prom.Registerer
	// SkipRegisterErr ignores collectors that are already registered
	SkipRegisterErr bool
}

// NewCounter creates a prometheus counter vector
func (p *PrometheusProvider) NewCounter(o CounterOpts) Counter {
	cv := prom.NewCounterVec(prom.CounterOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
	}, o.LabelNames)
	p.register(cv)
	return kitprometheus.NewCounter(cv)
}

// NewHistogram creates a prometheus histogram vector
func (p *PrometheusProvider) NewHistogram(o HistogramOpts) Histogram {
	buckets := o.Buckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}
	hv := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
		Buckets:   buckets,
	}, o.LabelNames)
	p.register(hv)
	return kitprometheus.NewHistogram(hv)
}

func (p *PrometheusProvider) register(c prom.Collector) {
	registerer := p.Registerer
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}
	if err := registerer.Register(c); err != nil && !p.SkipRegisterErr {
		panic(err)
	}
}

// DisabledProvider creates instruments that discard all observations
type DisabledProvider struct{}

// NewCounter returns a discarding counter
func (p *DisabledProvider) NewCounter(CounterOpts) Counter {
	return discard.NewCounter()
}

// NewHistogram returns a discarding histogram
func (p *DisabledProvider) NewHistogram(HistogramOpts) Histogram {
	return discard.NewHistogram()
}
