package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/tidwall/gjson"

	"github.com/pendo-cea/rag-pipeline/internal/analyzer"
	"github.com/pendo-cea/rag-pipeline/internal/chunker"
	"github.com/pendo-cea/rag-pipeline/internal/config"
	"github.com/pendo-cea/rag-pipeline/internal/dto"
	"github.com/pendo-cea/rag-pipeline/internal/extractor"
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"github.com/pendo-cea/rag-pipeline/internal/queue"
)

// JobStore, ChunkStore, ListingStore and ProfileStore are the repository
// slices the usecase needs, kept as interfaces so tests can fake persistence.
type JobStore interface {
	CreateJob(job *model.Job) error
	FindJobByID(id string) (*model.Job, error)
	FailQueued(id uuid.UUID, kind model.ErrorKind, message string) (bool, error)
	ListJobs(status string, limit, offset int) ([]model.Job, int64, error)
}

type ChunkStore interface {
	ReplaceForSource(sourceID string, chunks []model.DocumentChunk, dimension int) error
}

type ListingStore interface {
	CreateListing(listing *model.JobListing) error
	ActiveListings() ([]model.JobListing, error)
	SearchListings(embedding pgvector.Vector, topK int) ([]model.JobListing, error)
}

type ProfileStore interface {
	UpsertProfile(profile *model.ResumeProfile) error
	FindByResumeID(resumeID string) (*model.ResumeProfile, error)
	LatestForUser(userID string) (*model.ResumeProfile, error)
}

// TextEmbedder is the slice of EmbeddingService the pipeline needs.
type TextEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, string, error)
}

// JobQueue decouples submission from the concrete queue so handlers can be
// tested without workers.
type JobQueue interface {
	Full() bool
	Enqueue(job *model.Job) error
	Cancel(id uuid.UUID) (bool, error)
}

// PipelineUsecase orchestrates the whole pipeline: validate, queue, extract,
// chunk, embed, persist, and analyze resumes. It implements queue.Processor.
type PipelineUsecase struct {
	jobRepo     JobStore
	chunkRepo   ChunkStore
	listingRepo ListingStore
	profileRepo ProfileStore
	embedder    TextEmbedder
	extract     *extractor.Extractor
	chunks      *chunker.Chunker
	skills      *analyzer.SkillExtractor
	cfg         *config.PipelineConfig
	dimension   int
	queue       JobQueue
}

func NewPipelineUsecase(
	jobRepo JobStore,
	chunkRepo ChunkStore,
	listingRepo ListingStore,
	profileRepo ProfileStore,
	embedder TextEmbedder,
	ext *extractor.Extractor,
	ch *chunker.Chunker,
	cfg *config.PipelineConfig,
	dimension int,
) *PipelineUsecase {
	return &PipelineUsecase{
		jobRepo:     jobRepo,
		chunkRepo:   chunkRepo,
		listingRepo: listingRepo,
		profileRepo: profileRepo,
		embedder:    embedder,
		extract:     ext,
		chunks:      ch,
		skills:      analyzer.NewSkillExtractor(analyzer.DefaultVocabulary()),
		cfg:         cfg,
		dimension:   dimension,
	}
}

// AttachQueue wires the queue after construction; the queue itself needs the
// usecase as its Processor, so neither can be built first with both halves.
func (uc *PipelineUsecase) AttachQueue(q JobQueue) {
	uc.queue = q
}

// ValidateUpload runs the cheap synchronous checks so a bad upload is
// rejected at submission time instead of surfacing as a failed job.
func (uc *PipelineUsecase) ValidateUpload(fileName string, size int64) error {
	if err := uc.extract.ValidateUpload(fileName, size); err != nil {
		return model.NewPipelineError(model.ErrValidation, err)
	}
	return nil
}

// UploadDestination returns a collision-free path under the upload dir for a
// newly submitted file.
func (uc *PipelineUsecase) UploadDestination(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return filepath.Join(uc.cfg.UploadDir, uuid.New().String()+ext)
}

// SubmitFile records a queued job for an already-saved upload and hands it to
// the queue. A full queue fails the job with the backpressure kind before the
// error is returned.
func (uc *PipelineUsecase) SubmitFile(kind model.JobKind, ownerID *uuid.UUID, fileName, sourcePath string) (*model.Job, error) {
	job := &model.Job{
		ID:         uuid.New(),
		Kind:       kind,
		OwnerID:    ownerID,
		Status:     model.JobStatusQueued,
		SourcePath: sourcePath,
		FileName:   fileName,
	}
	return uc.submit(job)
}

// SubmitURL records a queued website job.
func (uc *PipelineUsecase) SubmitURL(ownerID *uuid.UUID, url string) (*model.Job, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, model.NewPipelineError(model.ErrValidation, fmt.Errorf("invalid url %q", url))
	}
	job := &model.Job{
		ID:        uuid.New(),
		Kind:      model.JobKindWebsite,
		OwnerID:   ownerID,
		Status:    model.JobStatusQueued,
		SourceURL: url,
	}
	return uc.submit(job)
}

func (uc *PipelineUsecase) submit(job *model.Job) (*model.Job, error) {
	// Backpressure is checked before anything is persisted, so a rejected
	// submission leaves no job record behind.
	if uc.queue.Full() {
		return nil, model.NewPipelineError(model.ErrBackpressure, queue.ErrQueueFull)
	}
	if err := uc.jobRepo.CreateJob(job); err != nil {
		return nil, model.NewPipelineError(model.ErrPersist, err)
	}
	if err := uc.queue.Enqueue(job); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			// Lost the capacity race; fail the already-persisted record so
			// the status API agrees with the rejection.
			if _, ferr := uc.jobRepo.FailQueued(job.ID, model.ErrBackpressure, "processing queue is full"); ferr != nil {
				log.Printf("failed to mark job %s as rejected: %v", job.ID, ferr)
			}
			return nil, model.NewPipelineError(model.ErrBackpressure, err)
		}
		return nil, err
	}
	return job, nil
}

// Process runs the stage pipeline for one claimed job. It is called from a
// queue worker and must honor ctx between stages.
func (uc *PipelineUsecase) Process(ctx context.Context, job *model.Job) (string, error) {
	text, err := uc.extract.Extract(ctx, extractor.Input{Path: job.SourcePath, URL: job.SourceURL})
	if err != nil {
		return "", model.NewPipelineError(extractionKind(err), err)
	}

	pieces := uc.chunks.Split(text)
	if len(pieces) == 0 {
		return "", model.NewPipelineError(model.ErrExtraction, errors.New("no text extracted"))
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}
	vectors, modelID, err := uc.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", model.NewPipelineError(model.ErrEmbeddingProvider, err)
	}

	sourceID := job.ID.String()
	rows := make([]model.DocumentChunk, len(pieces))
	for i, p := range pieces {
		rows[i] = model.DocumentChunk{
			SourceID:       sourceID,
			ChunkIndex:     p.Index,
			Content:        p.Content,
			CharStart:      p.CharStart,
			CharEnd:        p.CharEnd,
			Embedding:      pgvector.NewVector(vectors[i]),
			EmbeddingModel: modelID,
		}
	}
	if err := uc.chunkRepo.ReplaceForSource(sourceID, rows, uc.dimension); err != nil {
		return "", model.NewPipelineError(model.ErrPersist, err)
	}

	if job.Kind == model.JobKindResume {
		if err := uc.analyzeResume(ctx, job, text, vectors); err != nil {
			return "", err
		}
		return "resume_profile:" + sourceID, nil
	}
	return fmt.Sprintf("chunks:%s:%d", sourceID, len(rows)), nil
}

func (uc *PipelineUsecase) analyzeResume(ctx context.Context, job *model.Job, text string, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	skills := uc.skills.Extract(text)

	listings, err := uc.listingRepo.ActiveListings()
	if err != nil {
		return model.NewPipelineError(model.ErrPersist, err)
	}
	candidates := make([]analyzer.ListingCandidate, len(listings))
	for i, l := range listings {
		candidates[i] = analyzer.ListingCandidate{
			JobID:     l.ID.String(),
			Title:     l.Title,
			Embedding: l.Embedding.Slice(),
			CreatedAt: l.CreatedAt,
		}
	}
	matches := analyzer.MatchListings(vectors, candidates)

	ranked := make([]model.MatchCandidate, len(matches))
	for i, m := range matches {
		ranked[i] = model.MatchCandidate{JobID: m.JobID, Title: m.Title, Score: m.Score}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return model.NewPipelineError(model.ErrPersist, err)
	}
	matchesJSON, err := json.Marshal(ranked)
	if err != nil {
		return model.NewPipelineError(model.ErrPersist, err)
	}

	profile := &model.ResumeProfile{
		ResumeID:        job.ID.String(),
		UserID:          job.OwnerID,
		Skills:          string(skillsJSON),
		MatchCandidates: string(matchesJSON),
		RawTextRef:      job.SourcePath,
	}
	if err := uc.profileRepo.UpsertProfile(profile); err != nil {
		return model.NewPipelineError(model.ErrPersist, err)
	}
	return nil
}

// CreateListing embeds a posting and stores it for resume matching. Long
// descriptions are chunked and mean-pooled into a single vector.
func (uc *PipelineUsecase) CreateListing(ctx context.Context, req dto.CreateListingRequest) (*model.JobListing, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, model.NewPipelineError(model.ErrValidation, errors.New("title and description are required"))
	}

	pieces := uc.chunks.Split(req.Description)
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}
	vectors, _, err := uc.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, model.NewPipelineError(model.ErrEmbeddingProvider, err)
	}

	listing := &model.JobListing{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Description: req.Description,
		Embedding:   pgvector.NewVector(analyzer.MeanPool(vectors)),
		Active:      true,
	}
	if err := uc.listingRepo.CreateListing(listing); err != nil {
		return nil, model.NewPipelineError(model.ErrPersist, err)
	}
	return listing, nil
}

// SearchListings embeds a free-text query and returns the closest active
// listings by cosine distance, ranked by the database.
func (uc *PipelineUsecase) SearchListings(ctx context.Context, query string, topK int) ([]model.JobListing, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.NewPipelineError(model.ErrValidation, errors.New("query is required"))
	}
	if topK <= 0 || topK > 50 {
		topK = 10
	}
	vectors, _, err := uc.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, model.NewPipelineError(model.ErrEmbeddingProvider, err)
	}
	listings, err := uc.listingRepo.SearchListings(pgvector.NewVector(vectors[0]), topK)
	if err != nil {
		return nil, model.NewPipelineError(model.ErrPersist, err)
	}
	return listings, nil
}

// GetStatus returns the job row as a DTO. The chunk count of a completed
// document job is carried in ResultRef.
func (uc *PipelineUsecase) GetStatus(id string) (*dto.JobDTO, error) {
	job, err := uc.jobRepo.FindJobByID(id)
	if err != nil {
		return nil, err
	}
	return jobToDTO(job), nil
}

func (uc *PipelineUsecase) ListJobs(status string, limit, offset int) ([]dto.JobDTO, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	jobs, total, err := uc.jobRepo.ListJobs(status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		out[i] = *jobToDTO(&jobs[i])
	}
	return out, total, nil
}

// CancelJob cancels a queued job immediately or signals a processing one to
// stop at its next stage boundary.
func (uc *PipelineUsecase) CancelJob(id uuid.UUID) (bool, error) {
	return uc.queue.Cancel(id)
}

// GetResumeProfile returns the latest analyzed profile for a user.
func (uc *PipelineUsecase) GetResumeProfile(userID string) (*dto.ResumeProfileDTO, error) {
	profile, err := uc.profileRepo.LatestForUser(userID)
	if err != nil {
		return nil, err
	}
	return profileToDTO(profile), nil
}

func profileToDTO(p *model.ResumeProfile) *dto.ResumeProfileDTO {
	out := &dto.ResumeProfileDTO{
		UserID:    p.UserID,
		Skills:    []string{},
		Matches:   []dto.MatchCandidate{},
		UpdatedAt: p.UpdatedAt,
	}
	if id, err := uuid.Parse(p.ResumeID); err == nil {
		out.ResumeID = id
	}
	for _, s := range gjson.Parse(p.Skills).Array() {
		out.Skills = append(out.Skills, s.String())
	}
	for _, m := range gjson.Parse(p.MatchCandidates).Array() {
		jobID, err := uuid.Parse(m.Get("job_id").String())
		if err != nil {
			continue
		}
		out.Matches = append(out.Matches, dto.MatchCandidate{
			JobID: jobID,
			Title: m.Get("title").String(),
			Score: m.Get("score").Float(),
		})
	}
	return out
}

func jobToDTO(job *model.Job) *dto.JobDTO {
	return &dto.JobDTO{
		ID:           job.ID,
		Kind:         string(job.Kind),
		Status:       string(job.Status),
		FileName:     job.FileName,
		SourceURL:    job.SourceURL,
		ErrorKind:    string(job.ErrorKind),
		ErrorMessage: job.ErrorMessage,
		ResultRef:    job.ResultRef,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}

// extractionKind maps extractor sentinels onto the failure taxonomy.
func extractionKind(err error) model.ErrorKind {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedType),
		errors.Is(err, extractor.ErrTooLarge),
		errors.Is(err, extractor.ErrUnsupportedEncoding):
		return model.ErrValidation
	case errors.Is(err, extractor.ErrFetchTimeout):
		return model.ErrTimeout
	default:
		return model.ErrExtraction
	}
}
