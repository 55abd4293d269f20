package model

// Analytics holds the per-day usage counters. Date is the natural key in
// "YYYY-MM-DD" form; counters only ever grow.
type Analytics struct {
	ID                 string  `json:"id"`
	Date               string  `json:"date"`
	TotalConversations int     `json:"total_conversations"`
	AutoResponses      int     `json:"auto_responses"`
	Handoffs           int     `json:"handoffs"`
	AvgResponseTime    float64 `json:"avg_response_time"`
	// ResponseSamples is the number of samples behind AvgResponseTime,
	// kept so the mean stays a true running mean across updates.
	ResponseSamples int `json:"response_samples"`
}

// AnalyticsDelta is an additive update applied to one day's row.
type AnalyticsDelta struct {
	TotalConversations int
	AutoResponses      int
	Handoffs           int
}
