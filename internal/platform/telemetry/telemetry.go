// Package telemetry provides lightweight metrics for the pharmacy server
// using only standard library constructs. It exposes counters and gauges
// plus a Prometheus text exposition endpoint, without importing a metrics
// SDK.
package telemetry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// Metrics is a thread-safe registry of named counters and gauges. Label
// sets are encoded into the metric key at record time.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]float64
	gauges   map[string]float64
	help     map[string]string
}

// NewMetrics creates an empty registry with the pharmacy metric families
// pre-declared so the exposition lists them even before first use.
func NewMetrics() *Metrics {
	m := &Metrics{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		help:     make(map[string]string),
	}
	m.declare("pharmacy_dispense_committed_total", "Dispense transactions committed.")
	m.declare("pharmacy_dispense_rejected_total", "Dispense transactions rejected, by reason.")
	m.declare("pharmacy_dispense_retries_total", "Commit retries due to version conflicts.")
	m.declare("pharmacy_safety_findings_total", "Safety findings raised, by severity.")
	m.declare("pharmacy_safety_overrides_total", "Dispenses that proceeded despite findings.")
	m.declare("pharmacy_reorder_signals", "Medicines currently at or below reorder level.")
	m.declare("pharmacy_http_requests_total", "HTTP requests served, by status class.")
	return m
}

func (m *Metrics) declare(name, help string) {
	m.help[name] = help
}

// key encodes a metric name and its labels into a single exposition line
// prefix, with labels sorted for stable output.
func key(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// IncCounter adds 1 to a labelled counter.
func (m *Metrics) IncCounter(name string, labels map[string]string) {
	m.AddCounter(name, labels, 1)
}

// AddCounter adds v to a labelled counter.
func (m *Metrics) AddCounter(name string, labels map[string]string, v float64) {
	m.mu.Lock()
	m.counters[key(name, labels)] += v
	m.mu.Unlock()
}

// SetGauge sets a labelled gauge to v.
func (m *Metrics) SetGauge(name string, labels map[string]string, v float64) {
	m.mu.Lock()
	m.gauges[key(name, labels)] = v
	m.mu.Unlock()
}

// CounterValue reads a counter back. Intended for tests.
func (m *Metrics) CounterValue(name string, labels map[string]string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[key(name, labels)]
}

// Exposition renders the registry in Prometheus text format.
func (m *Metrics) Exposition() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	writeFamily := func(series map[string]float64, typ string) {
		keys := make([]string, 0, len(series))
		for k := range series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		seen := make(map[string]bool)
		for _, k := range keys {
			family := k
			if i := strings.IndexByte(k, '{'); i >= 0 {
				family = k[:i]
			}
			if !seen[family] {
				seen[family] = true
				if help := m.help[family]; help != "" {
					fmt.Fprintf(&b, "# HELP %s %s\n", family, help)
				}
				fmt.Fprintf(&b, "# TYPE %s %s\n", family, typ)
			}
			fmt.Fprintf(&b, "%s %g\n", k, series[k])
		}
	}
	writeFamily(m.counters, "counter")
	writeFamily(m.gauges, "gauge")
	return b.String()
}

// Handler serves the exposition for scraping.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, m.Exposition())
	}
}

// Middleware counts completed HTTP requests by status class.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			m.IncCounter("pharmacy_http_requests_total", map[string]string{
				"class": fmt.Sprintf("%dxx", status/100),
			})
			return err
		}
	}
}
