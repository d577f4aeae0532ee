package jobs

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the job will not change any more.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type Kind string

const (
	KindDownload  Kind = "download"
	KindTranslate Kind = "translate"
)

// InterruptedError is recorded on jobs found running at startup.
const InterruptedError = "interrupted by restart"

type EnqueueRequest struct {
	Kind      Kind
	Source    string
	DedupeKey string
	Payload   any
}

type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Source     string          `json:"source"`
	DedupeKey  string          `json:"dedupe_key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     Status          `json:"status"`
	Progress   float64         `json:"progress"`
	StatusText string          `json:"status_text,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DecodePayload unmarshals the job payload into v.
func (j *Job) DecodePayload(v any) error {
	return json.Unmarshal(j.Payload, v)
}
