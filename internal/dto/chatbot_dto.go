package dto

import "time"

type ChatRequest struct {
	Query     string `json:"query" validate:"required"`
	TopK      int    `json:"top_k" validate:"omitempty,min=1,max=20"`
	SessionId string `json:"session_id,omitempty"`
}

type SourceDocument struct {
	ThreadId int64    `json:"thread_id"`
	Topic    string   `json:"topic"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Date     string   `json:"date"`
	Score    *float64 `json:"score,omitempty"`
}

type ChatResponse struct {
	Response  string           `json:"response"`
	Sources   []SourceDocument `json:"sources"`
	SessionId string           `json:"session_id"`
}

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type DeleteSessionResponse struct {
	SessionId string `json:"session_id"`
	Found     bool   `json:"found"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// EventMessage is the payload carried on the in-process event bus.
type EventMessage struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

type BackfillResult struct {
	Pending int `json:"pending"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
