// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus instrumentation for imgcapt.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "imgcapt_sse_clients",
		Help: "Current number of connected SSE clients",
	})

	sseDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgcapt_sse_dropped_total",
		Help: "Total number of SSE messages dropped by event name and reason",
	}, []string{"event", "reason"})

	ssePublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgcapt_sse_published_total",
		Help: "Total number of SSE messages enqueued for delivery by event name",
	}, []string{"event"})

	stageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgcapt_stage_failures_total",
		Help: "Total number of workflow stage failures by stage",
	}, []string{"stage"}) // stage=import|caption|process

	captionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgcapt_captions_total",
		Help: "Caption generation attempts by outcome",
	}, []string{"outcome"}) // outcome=success|error|unavailable

	importedImages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcapt_imported_images_total",
		Help: "Total number of raw images imported into the workspace",
	})

	processedSets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgcapt_processed_sets_total",
		Help: "Total number of processed image/caption sets written",
	})
)

// SetSSEClients records the current live subscriber count.
func SetSSEClients(n int) { sseClients.Set(float64(n)) }

// IncSSEDrop records a dropped SSE message with a concrete reason.
func IncSSEDrop(event, reason string) {
	if event == "" {
		event = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	sseDroppedTotal.WithLabelValues(event, reason).Inc()
}

// IncSSEPublished records a successfully enqueued SSE message.
func IncSSEPublished(event string) {
	if event == "" {
		event = "unknown"
	}
	ssePublishedTotal.WithLabelValues(event).Inc()
}

// IncStageFailure records a workflow stage failure.
func IncStageFailure(stage string) { stageFailuresTotal.WithLabelValues(stage).Inc() }

// IncCaption records a caption generation attempt outcome.
func IncCaption(outcome string) { captionsTotal.WithLabelValues(outcome).Inc() }

// AddImported records n imported raw images.
func AddImported(n int) { importedImages.Add(float64(n)) }

// IncProcessed records a written processed set.
func IncProcessed() { processedSets.Inc() }
