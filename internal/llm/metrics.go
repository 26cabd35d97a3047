package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyteller_llm_requests_total",
			Help: "Total number of requests to the model API.",
		},
		[]string{"model", "kind", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_llm_request_duration_seconds",
			Help:    "Histogram of model API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "kind"},
	)
	promptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_llm_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(500, 500, 20),
		},
		[]string{"model"},
	)
	completionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyteller_llm_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
)

const (
	kindComplete = "complete"
	kindStream   = "stream"
	kindImage    = "image"

	statusSuccess   = "success"
	statusError     = "error"
	statusEmpty     = "error_empty_response"
	statusCancelled = "cancelled"
)

func observeUsage(model string, u Usage) {
	if u.TotalTokens <= 0 {
		return
	}
	promptTokens.WithLabelValues(model).Observe(float64(u.PromptTokens))
	completionTokens.WithLabelValues(model).Observe(float64(u.CompletionTokens))
}
