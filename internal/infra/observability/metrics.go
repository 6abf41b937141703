package observability

import (
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the command engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	messagesTotal   *prometheus.CounterVec
	intentsTotal    *prometheus.CounterVec
	actionsTotal    *prometheus.CounterVec
	storyItems      *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "khata_request_duration_seconds",
				Help:    "Duration of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_external_errors_total",
				Help: "Total transport errors from external services.",
			},
			[]string{"service"},
		),
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_messages_total",
				Help: "Messages processed, by the path that answered them.",
			},
			[]string{"source"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_intents_total",
				Help: "Classifier results by intent.",
			},
			[]string{"intent"},
		),
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_actions_total",
				Help: "Executed actions by intent and outcome.",
			},
			[]string{"intent", "status"},
		),
		storyItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_story_items_total",
				Help: "Story-mode transactions by outcome.",
			},
			[]string{"status"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "khata_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// ExternalErrorCount returns the transport errors counted for service.
func (m *Metrics) ExternalErrorCount(service string) int64 {
	return int64(getCounterValue(m.externalErrors, service))
}

// IncrMessage counts a processed message by reply source.
func (m *Metrics) IncrMessage(source domain.ReplySource) {
	m.messagesTotal.WithLabelValues(string(source)).Inc()
}

// IncrIntent counts a classifier result.
func (m *Metrics) IncrIntent(intent domain.Intent) {
	m.intentsTotal.WithLabelValues(string(intent)).Inc()
}

// IncrAction counts an executed action.
func (m *Metrics) IncrAction(intent domain.Intent, success bool) {
	m.actionsTotal.WithLabelValues(string(intent), statusLabel(success)).Inc()
}

// IncrStoryItem counts one story-mode item.
func (m *Metrics) IncrStoryItem(success bool) {
	m.storyItems.WithLabelValues(statusLabel(success)).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int64) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// Snapshot returns the engine counters for GET /v1/metrics/engine.
func (m *Metrics) Snapshot() *domain.EngineMetrics {
	rule := getCounterValue(m.messagesTotal, string(domain.SourceRule))
	story := getCounterValue(m.messagesTotal, string(domain.SourceStory))
	fallback := getCounterValue(m.messagesTotal, string(domain.SourceAssistant))
	total := rule + story + fallback

	actionsOK, actionsFailed := 0.0, 0.0
	for _, intent := range []domain.Intent{
		domain.IntentAddExpense, domain.IntentAddIncome, domain.IntentAddPartyTransaction,
		domain.IntentShowBalance, domain.IntentShowBudgetStatus, domain.IntentAnalyzeSpending,
	} {
		actionsOK += getCounterValue(m.actionsTotal, string(intent), "success")
		actionsFailed += getCounterValue(m.actionsTotal, string(intent), "error")
	}

	snap := &domain.EngineMetrics{
		TotalMessages:       int64(total),
		StoryItemsSucceeded: int64(getCounterValue(m.storyItems, "success")),
		StoryItemsFailed:    int64(getCounterValue(m.storyItems, "error")),
		PromptTokens:        int64(getCounterValue(m.tokensUsed, "prompt")),
		CompletionTokens:    int64(getCounterValue(m.tokensUsed, "completion")),
		Period:              "all_time",
	}
	if total > 0 {
		snap.RuleHitRate = rule / total
		snap.StoryRate = story / total
		snap.FallbackRate = fallback / total
	}
	if actionsOK+actionsFailed > 0 {
		snap.ActionSuccessRate = actionsOK / (actionsOK + actionsFailed)
	}
	return snap
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
