// Package monitor exposes job counters of an execution client over HTTP.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vislab/jobpool/srcs/go/job"
)

type Monitor struct {
	registry *prometheus.Registry
	jobs     *prometheus.CounterVec
	running  prometheus.Gauge

	mu     sync.RWMutex
	status func() interface{}
}

func New(host string) *Monitor {
	labels := prometheus.Labels{"host": host}
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "jobpool_jobs_total",
			Help:        "Jobs by final status.",
			ConstLabels: labels,
		}, []string{"status"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jobpool_jobs_running",
			Help:        "Jobs currently running.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.jobs, m.running)
	return m
}

// Observe records a status transition of one job.
func (m *Monitor) Observe(s job.Status) {
	switch s {
	case job.Running:
		m.running.Inc()
	case job.Succeeded, job.Failed:
		m.running.Dec()
		m.jobs.WithLabelValues(s.String()).Inc()
	case job.Skipped:
		m.jobs.WithLabelValues(s.String()).Inc()
	}
}

// SetStatus installs the function serving /status.
func (m *Monitor) SetStatus(f func() interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = f
}

func (m *Monitor) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/status", m.serveStatus)
	return r
}

func (m *Monitor) serveStatus(w http.ResponseWriter, req *http.Request) {
	m.mu.RLock()
	f := m.status
	m.mu.RUnlock()
	var v interface{}
	if f != nil {
		v = f()
	}
	w.Header().Set("Content-Type", "application/json")
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	e.Encode(v)
}
