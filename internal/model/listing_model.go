package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JobListing is one posting in the corpus resumes are matched against.
// The listing embedding is written once when the listing is ingested; the
// matcher only ever reads it.
type JobListing struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string          `json:"title"`
	Company     string          `gorm:"type:varchar(255)" json:"company,omitempty"`
	Location    string          `gorm:"type:varchar(255)" json:"location,omitempty"`
	Description string          `gorm:"type:text" json:"description"`
	Embedding   pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	Active      bool            `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (j *JobListing) TableName() string {
	return "job_listings"
}
