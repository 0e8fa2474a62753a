// Package metrics exposes Prometheus counters for the capture loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors updated by the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	FramesCaptured prometheus.Counter
	ReadErrors     prometheus.Counter
	DetectErrors   prometheus.Counter
	HandsDetected  prometheus.Counter
	PayloadsSent   prometheus.Counter
	SendErrors     prometheus.Counter
	Signals        *prometheus.CounterVec
	DetectSeconds  prometheus.Histogram
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "frames_captured_total",
			Help:      "Frames read from the camera.",
		}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "frame_read_errors_total",
			Help:      "Failed or empty camera reads.",
		}),
		DetectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "detect_errors_total",
			Help:      "Hand detector failures.",
		}),
		HandsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "frames_with_hand_total",
			Help:      "Frames in which at least one hand was detected.",
		}),
		PayloadsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "payloads_sent_total",
			Help:      "Payloads handed to the transport.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "send_errors_total",
			Help:      "Transport send failures.",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handcast",
			Name:      "gesture_signals_total",
			Help:      "Gesture signals sent, by value.",
		}, []string{"signal"}),
		DetectSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "handcast",
			Name:      "detect_duration_seconds",
			Help:      "Time spent in the hand detector per frame.",
			Buckets:   prometheus.ExponentialBuckets(0.002, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.FramesCaptured,
		m.ReadErrors,
		m.DetectErrors,
		m.HandsDetected,
		m.PayloadsSent,
		m.SendErrors,
		m.Signals,
		m.DetectSeconds,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
