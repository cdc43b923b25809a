package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobKindDocument JobKind = "document"
	JobKindResume   JobKind = "resume"
	JobKindWebsite  JobKind = "website"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ErrorKind classifies terminal job failures for the status API.
type ErrorKind string

const (
	ErrValidation        ErrorKind = "validation"
	ErrBackpressure      ErrorKind = "backpressure"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrExtraction        ErrorKind = "extraction"
	ErrEmbeddingProvider ErrorKind = "embedding_provider"
	ErrPersist           ErrorKind = "persist"
	ErrTimeout           ErrorKind = "timeout"
	ErrCancelled         ErrorKind = "cancelled"
)

// PipelineError carries the taxonomy kind alongside a human-readable message.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

// Job is one asynchronous unit of pipeline work tied to a single uploaded source.
// Status only ever moves queued -> processing -> completed|failed.
type Job struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind         JobKind    `gorm:"type:varchar(20)" json:"kind"`
	OwnerID      *uuid.UUID `gorm:"type:uuid" json:"owner_id,omitempty"`
	Status       JobStatus  `gorm:"type:varchar(20);index" json:"status"`
	SourcePath   string     `gorm:"type:text" json:"-"`
	SourceURL    string     `gorm:"type:text" json:"source_url,omitempty"`
	FileName     string     `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	ErrorKind    ErrorKind  `gorm:"type:varchar(30)" json:"error_kind,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	ResultRef    string     `gorm:"type:varchar(255)" json:"result_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (j *Job) TableName() string {
	return "pipeline_jobs"
}
