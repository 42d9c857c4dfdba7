/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lessonboard"

var (
	// SchedulerTicksTotal counts scheduler loop invocations.
	SchedulerTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_ticks_total",
		Help:      "Scheduler loop ticks.",
	})

	// SchedulerWaitingTotal counts ticks skipped because schedule or slides were not loaded.
	SchedulerWaitingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_waiting_total",
		Help:      "Ticks skipped while waiting for schedule and slides.",
	})

	// SchedulerPanicsTotal counts ticks or queued events that panicked and were recovered.
	SchedulerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_panics_total",
		Help:      "Recovered panics inside the scheduler loop.",
	})

	// SlideChangesTotal counts deck rotations.
	SlideChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slide_changes_total",
		Help:      "Slide rotations performed by the deck.",
	})

	// AnimationsSuppressedTotal counts animation requests dropped by an in-flight guard.
	AnimationsSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "animations_suppressed_total",
		Help:      "Animation or transition requests ignored because one was already in flight.",
	}, []string{"class"})

	// ModeTransitionsTotal counts display mode state changes by destination.
	ModeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mode_transitions_total",
		Help:      "Display mode state changes.",
	}, []string{"to"})

	// DisplayMode is 1 for the current display mode and 0 for the others.
	DisplayMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "display_mode",
		Help:      "Current display mode.",
	}, []string{"mode"})

	// ScheduleLoadsTotal counts schedule load attempts by result.
	ScheduleLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_loads_total",
		Help:      "Schedule load attempts.",
	}, []string{"result"})

	// SlidesDiscovered is the size of the most recently discovered deck.
	SlidesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "slides_discovered",
		Help:      "Slides found by the last discovery run.",
	})

	// RenderCommandsTotal counts commands published to renderers.
	RenderCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "render_commands_total",
		Help:      "Render commands published.",
	}, []string{"kind"})

	// RendererClients is the number of connected renderer websockets.
	RendererClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "renderer_clients",
		Help:      "Connected renderer websocket clients.",
	})

	// RendererEvictionsTotal counts renderers disconnected for falling behind the command stream.
	RendererEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renderer_evictions_total",
		Help:      "Renderer subscriptions closed because their buffer was full.",
	})

	// APIRequestDuration tracks HTTP latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIRequestsTotal counts HTTP requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections is the number of in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "In-flight HTTP requests.",
	})
)

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
