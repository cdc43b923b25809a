package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) CreateJob(job *model.Job) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) FindJobByID(id string) (*model.Job, error) {
	var j model.Job
	err := r.db.First(&j, "id = ?", id).Error
	return &j, err
}

// MarkProcessing claims a queued job. The guarded WHERE keeps transitions
// monotonic: a job cancelled while queued is simply not claimed, and the
// caller skips it.
func (r *JobRepository) MarkProcessing(id uuid.UUID) (bool, error) {
	now := time.Now()
	res := r.db.Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobStatusQueued).
		Updates(map[string]any{
			"status":     model.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *JobRepository) MarkCompleted(id uuid.UUID, resultRef string) error {
	now := time.Now()
	return r.db.Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobStatusProcessing).
		Updates(map[string]any{
			"status":       model.JobStatusCompleted,
			"result_ref":   resultRef,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *JobRepository) MarkFailed(id uuid.UUID, kind model.ErrorKind, message string) error {
	now := time.Now()
	return r.db.Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobStatusProcessing).
		Updates(map[string]any{
			"status":        model.JobStatusFailed,
			"error_kind":    kind,
			"error_message": message,
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

// FailQueued fails a job that has not been picked up yet. Returns false if
// a worker already owns it.
func (r *JobRepository) FailQueued(id uuid.UUID, kind model.ErrorKind, message string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&model.Job{}).
		Where("id = ? AND status = ?", id, model.JobStatusQueued).
		Updates(map[string]any{
			"status":        model.JobStatusFailed,
			"error_kind":    kind,
			"error_message": message,
			"completed_at":  now,
			"updated_at":    now,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *JobRepository) CancelQueued(id uuid.UUID) (bool, error) {
	return r.FailQueued(id, model.ErrCancelled, "cancelled before processing")
}

func (r *JobRepository) ListJobs(status string, limit, offset int) ([]model.Job, int64, error) {
	query := r.db.Model(&model.Job{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []model.Job
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, total, err
}
