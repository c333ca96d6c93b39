package telemetry

import (
	"math"
	"unicode/utf8"

	"github.com/pmservice/assistant-service/internal/domain/models"
)

// DefaultRatePerToken applies to models missing from the rate table.
const DefaultRatePerToken = 0.000002

// ratePerToken is the estimated USD price of one token.
var ratePerToken = map[string]float64{
	"gemini-flash-latest": 0.000002,
	"gemini-1.5-pro":      0.0000035,
	"gemini-1.5-flash":    0.000002,
	"gpt-4o":              0.000005,
	"gpt-4o-mini":         0.0000006,
}

// EstimateTokens approximates tokens as one per four characters, at least one.
func EstimateTokens(text string) int {
	n := (utf8.RuneCountInString(text) + 3) / 4
	if n < 1 {
		return 1
	}
	return n
}

// EstimateCost prices tokens for the named model.
func EstimateCost(tokens int, model string) float64 {
	rate, ok := ratePerToken[model]
	if !ok {
		rate = DefaultRatePerToken
	}
	return float64(tokens) * rate
}

// Metrics are aggregates over a set of events. All fields are zero or empty
// for an empty set.
type Metrics struct {
	TotalMessages        int            `json:"totalMessages"`
	AvgLatencyMs         float64        `json:"avgLatencyMs"`
	TotalTokens          int            `json:"totalTokens"`
	TotalCostUSD         float64        `json:"totalCostUsd"`
	SuccessRate          float64        `json:"successRate"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	ModeDistribution     map[string]int `json:"modeDistribution"`
	ErrorCount           int            `json:"errorCount"`
}

// Aggregate computes Metrics. Average latency covers successful events only.
func Aggregate(events []models.TelemetryEvent) Metrics {
	m := Metrics{
		CategoryDistribution: map[string]int{},
		ModeDistribution:     map[string]int{},
	}
	if len(events) == 0 {
		return m
	}

	var successes int
	var latency, cost float64
	for _, e := range events {
		m.TotalTokens += e.TokensUsed
		cost += e.EstimatedCostUSD
		m.CategoryDistribution[e.Category]++
		m.ModeDistribution[e.Mode]++

		if e.Status == models.StatusSuccess {
			successes++
			latency += e.LatencyMs
		} else {
			m.ErrorCount++
		}
	}

	m.TotalMessages = len(events)
	m.TotalCostUSD = round(cost, 6)
	m.SuccessRate = round(float64(successes)/float64(len(events))*100, 1)
	if successes > 0 {
		m.AvgLatencyMs = round(latency/float64(successes), 2)
	}
	return m
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
