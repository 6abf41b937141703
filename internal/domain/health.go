package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	TotalMessages       int64   `json:"totalMessages"`
	RuleHitRate         float64 `json:"ruleHitRate"`
	StoryRate           float64 `json:"storyRate"`
	FallbackRate        float64 `json:"fallbackRate"`
	ActionSuccessRate   float64 `json:"actionSuccessRate"`
	StoryItemsSucceeded int64   `json:"storyItemsSucceeded"`
	StoryItemsFailed    int64   `json:"storyItemsFailed"`
	PromptTokens        int64   `json:"promptTokens"`
	CompletionTokens    int64   `json:"completionTokens"`
	Period              string  `json:"period"`
}
