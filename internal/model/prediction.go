package model

import "time"

// Prediction is one served classification, as written to prediction outputs.
type Prediction struct {
	RequestID   string    `json:"request_id,omitempty"`
	Query       string    `json:"query"`
	Labels      []string  `json:"labels"`
	Scores      []float32 `json:"scores,omitempty"` // parallel to Labels; stripped unless verbose
	Fingerprint string    `json:"fingerprint,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
