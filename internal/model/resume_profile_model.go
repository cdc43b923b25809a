package model

import (
	"time"

	"github.com/google/uuid"
)

// ResumeProfile is the structured output of a resume job: normalized skills
// and ranked listing matches, both stored as jsonb.
type ResumeProfile struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeID        string     `gorm:"type:varchar(100);uniqueIndex" json:"resume_id"`
	UserID          *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Skills          string     `gorm:"type:jsonb;default:'[]'" json:"skills"`
	MatchCandidates string     `gorm:"type:jsonb;default:'[]'" json:"match_candidates"`
	RawTextRef      string     `gorm:"type:varchar(255)" json:"raw_text_ref"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (p *ResumeProfile) TableName() string {
	return "resume_profiles"
}

// MatchCandidate is one scored listing inside ResumeProfile.MatchCandidates,
// ordered descending by score.
type MatchCandidate struct {
	JobID string  `json:"job_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}
