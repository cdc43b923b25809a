package repository

import (
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResumeProfileRepository struct {
	db *gorm.DB
}

func NewResumeProfileRepository(db *gorm.DB) *ResumeProfileRepository {
	return &ResumeProfileRepository{db}
}

// UpsertProfile replaces the profile for a resume when it is reprocessed.
func (r *ResumeProfileRepository) UpsertProfile(profile *model.ResumeProfile) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resume_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "skills", "match_candidates", "raw_text_ref", "updated_at"}),
	}).Create(profile).Error
}

func (r *ResumeProfileRepository) FindByResumeID(resumeID string) (*model.ResumeProfile, error) {
	var p model.ResumeProfile
	err := r.db.First(&p, "resume_id = ?", resumeID).Error
	return &p, err
}

// LatestForUser returns the most recently processed profile for a user.
func (r *ResumeProfileRepository) LatestForUser(userID string) (*model.ResumeProfile, error) {
	var p model.ResumeProfile
	err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").First(&p).Error
	return &p, err
}
