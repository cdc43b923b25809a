package dto

import (
	"time"

	"github.com/google/uuid"
)

type JobDTO struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"` // "queued", "processing", "completed", "failed"
	FileName     string     `json:"file_name,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResultRef    string     `json:"result_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type SubmitJobResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// BatchItemResult reports one file from a batch submission. Exactly one of
// JobID or Error is set.
type BatchItemResult struct {
	FileName string     `json:"file_name"`
	JobID    *uuid.UUID `json:"job_id,omitempty"`
	Status   string     `json:"status,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type BatchSubmitResponse struct {
	Accepted int               `json:"accepted"`
	Rejected int               `json:"rejected"`
	Items    []BatchItemResult `json:"items"`
}

type ResumeProfileDTO struct {
	ResumeID  uuid.UUID        `json:"resume_id"`
	UserID    *uuid.UUID       `json:"user_id,omitempty"`
	Skills    []string         `json:"skills"`
	Matches   []MatchCandidate `json:"matches"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type MatchCandidate struct {
	JobID uuid.UUID `json:"job_id"`
	Title string    `json:"title"`
	Score float64   `json:"score"`
}

type CreateListingRequest struct {
	Title       string `json:"title" form:"title"`
	Company     string `json:"company" form:"company"`
	Location    string `json:"location" form:"location"`
	Description string `json:"description" form:"description"`
}

type ProcessURLRequest struct {
	URL string `json:"url" form:"url"`
}
