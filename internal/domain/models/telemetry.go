package models

import "time"

// EventStatus is the outcome of one model invocation.
type EventStatus string

const (
	StatusSuccess EventStatus = "success"
	StatusError   EventStatus = "error"
)

// TelemetryEvent records one assistant invocation. It references its thread
// by identifier only and outlives thread deletion.
type TelemetryEvent struct {
	ID               string      `json:"id" bson:"_id"`
	ThreadID         string      `json:"threadId" bson:"threadId"`
	Category         string      `json:"category" bson:"category"`
	Mode             string      `json:"mode" bson:"mode"`
	LatencyMs        float64     `json:"latencyMs" bson:"latencyMs"`
	InputTokens      int         `json:"inputTokens" bson:"inputTokens"`
	OutputTokens     int         `json:"outputTokens" bson:"outputTokens"`
	TokensUsed       int         `json:"tokensUsed" bson:"tokensUsed"`
	EstimatedCostUSD float64     `json:"estimatedCostUsd" bson:"estimatedCostUsd"`
	ModelName        string      `json:"modelName" bson:"modelName"`
	Status           EventStatus `json:"status" bson:"status"`
	ErrorMessage     string      `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	Timestamp        time.Time   `json:"timestamp" bson:"timestamp"`
}
