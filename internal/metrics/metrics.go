// Package metrics holds the Prometheus collectors for one pipeline process.
// Collectors live on a private registry so every run can dump its own
// textfile next to the rendered video.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Image outcomes.
const (
	ImageRendered    = "rendered"
	ImageReused      = "reused"
	ImagePlaceholder = "placeholder"
)

type Metrics struct {
	Registry *prometheus.Registry

	// CommandsTotal counts external commands by binary and status (success/error).
	CommandsTotal *prometheus.CounterVec
	// CommandDuration observes external command wall time in seconds.
	CommandDuration *prometheus.HistogramVec
	// StageDuration observes pipeline stage wall time in seconds.
	StageDuration *prometheus.HistogramVec
	// ImagesTotal counts images by outcome (rendered/reused/placeholder).
	ImagesTotal *prometheus.CounterVec
	// LLMRequestsTotal counts language model calls by provider and status.
	LLMRequestsTotal *prometheus.CounterVec
	// SegmentsTotal counts segments produced by the segmenter.
	SegmentsTotal prometheus.Counter
	// RunsTotal counts finished runs by status (success/error).
	RunsTotal *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pvf_commands_total",
				Help: "Total number of external commands executed",
			},
			[]string{"command", "status"},
		),
		CommandDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pvf_command_duration_seconds",
				Help:    "External command duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 900},
			},
			[]string{"command"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pvf_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: []float64{0.01, 0.1, 1, 5, 10, 30, 60, 300, 900, 1800},
			},
			[]string{"stage"},
		),
		ImagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pvf_images_total",
				Help: "Total number of segment images by outcome",
			},
			[]string{"outcome"},
		),
		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pvf_llm_requests_total",
				Help: "Total number of language model requests",
			},
			[]string{"provider", "status"},
		),
		SegmentsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pvf_segments_total",
				Help: "Total number of segments produced",
			},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pvf_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"status"},
		),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordCommand records one external command execution. Safe on a nil receiver.
func (m *Metrics) RecordCommand(command string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, status(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordImage counts one image outcome.
func (m *Metrics) RecordImage(outcome string) {
	if m == nil {
		return
	}
	m.ImagesTotal.WithLabelValues(outcome).Inc()
}

// RecordLLMRequest counts one language model call.
func (m *Metrics) RecordLLMRequest(provider string, success bool) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status(success)).Inc()
}

// AddSegments counts produced segments.
func (m *Metrics) AddSegments(n int) {
	if m == nil {
		return
	}
	m.SegmentsTotal.Add(float64(n))
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(success bool) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status(success)).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
