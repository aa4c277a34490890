// Package metrics exposes prometheus counters for the streaming turn
// pipeline. Scraped via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexchat_turns_started_total",
		Help: "Streaming turns started.",
	})
	TurnsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexchat_turns_completed_total",
		Help: "Streaming turns that persisted a message and ended cleanly.",
	})
	TurnsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexchat_turns_aborted_total",
		Help: "Streaming turns aborted before persistence.",
	})
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexchat_tool_calls_total",
		Help: "Tool invocations by tool name.",
	}, []string{"tool"})
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexchat_stream_events_total",
		Help: "Stream events emitted by type.",
	}, []string{"type"})
)
