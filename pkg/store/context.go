package store

// RetrievedContext is one Q&A record returned by retrieval. Score is set only
// on the similarity path.
type RetrievedContext struct {
	ThreadId int64    `json:"thread_id"`
	Topic    string   `json:"topic"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Date     string   `json:"date"`
	Score    *float64 `json:"score,omitempty"`
}
