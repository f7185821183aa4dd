package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	researchStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "research_started_total",
		Help: "Total research invocations started",
	})

	researchCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "research_completed_total",
		Help: "Total research invocations completed",
	})

	researchFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_failed_total",
		Help: "Total research invocations failed",
	}, []string{"code"})

	researchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "research_duration_seconds",
		Help:    "Research invocation duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Tokens reported by the LLM provider",
	}, []string{"model", "kind"})
)

// IncResearchStarted increments the started counter.
func IncResearchStarted() {
	researchStartedTotal.Inc()
}

// IncResearchCompleted increments the completed counter.
func IncResearchCompleted() {
	researchCompletedTotal.Inc()
}

// IncResearchFailed increments the failed counter for an error code.
func IncResearchFailed(code string) {
	researchFailedTotal.WithLabelValues(code).Inc()
}

// ObserveResearchDuration records how long an invocation took.
func ObserveResearchDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	researchDuration.Observe(d.Seconds())
}

// AddLLMTokens records prompt and completion token usage for a model.
func AddLLMTokens(model string, prompt, completion int) {
	if prompt > 0 {
		llmTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		llmTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
