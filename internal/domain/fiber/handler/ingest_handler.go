package handler

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pendo-cea/rag-pipeline/internal/config"
	"github.com/pendo-cea/rag-pipeline/internal/dto"
	"github.com/pendo-cea/rag-pipeline/internal/middleware"
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"github.com/pendo-cea/rag-pipeline/internal/response"
	"github.com/pendo-cea/rag-pipeline/internal/usecase"
	"github.com/pendo-cea/rag-pipeline/internal/util"
)

type IngestHandler struct {
	uc *usecase.PipelineUsecase
}

func NewIngestHandler(uc *usecase.PipelineUsecase) *IngestHandler {
	return &IngestHandler{uc: uc}
}

func (h *IngestHandler) RegisterRoutes(app *fiber.App) {
	cfg := config.LoadPipelineConfig()
	limiter := middleware.RateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)

	app.Post("/process", limiter, h.Process)
	app.Post("/batch", limiter, h.BatchProcess)
	app.Post("/resume/upload", limiter, h.UploadResume)
	app.Post("/listings", limiter, h.CreateListing)
	app.Get("/listings/search", limiter, h.SearchListings)
	app.Get("/status/:job_id", h.Status)
	app.Get("/jobs", h.ListJobs)
	app.Get("/resume/:user_id", h.ResumeProfile)
	app.Delete("/jobs/:job_id", h.CancelJob)
}

// Process accepts either a multipart "file" upload or a JSON body with a
// "url" and queues a document job. Validation failures are synchronous; the
// actual extraction happens on a worker.
func (h *IngestHandler) Process(c *fiber.Ctx) error {
	if file, err := c.FormFile("file"); err == nil {
		return h.submitFile(c, model.JobKindDocument, file.Filename, file)
	}

	var req dto.ProcessURLRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "either a file upload or a url is required",
		}, err)
	}

	job, err := h.uc.SubmitURL(ownerID(c), req.URL)
	if err != nil {
		return h.submissionError(c, err)
	}
	return accepted(c, job)
}

// BatchProcess accepts several documents under the multipart "files" field
// and queues one job per file. Each file is validated independently, so a
// bad file or a full queue rejects that item without failing the batch.
func (h *IngestHandler) BatchProcess(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "at least one file is required under the \"files\" field",
		}, err)
	}

	owner := ownerID(c)
	result := dto.BatchSubmitResponse{
		Items: make([]dto.BatchItemResult, 0, len(form.File["files"])),
	}
	for _, file := range form.File["files"] {
		item := dto.BatchItemResult{FileName: file.Filename}

		if err := h.uc.ValidateUpload(file.Filename, file.Size); err != nil {
			item.Error = err.Error()
			result.Rejected++
			result.Items = append(result.Items, item)
			continue
		}

		savePath := h.uc.UploadDestination(file.Filename)
		if err := c.SaveFile(file, savePath); err != nil {
			item.Error = "cannot save file"
			result.Rejected++
			result.Items = append(result.Items, item)
			continue
		}

		job, err := h.uc.SubmitFile(model.JobKindDocument, owner, file.Filename, savePath)
		if err != nil {
			item.Error = err.Error()
			result.Rejected++
			result.Items = append(result.Items, item)
			continue
		}
		item.JobID = &job.ID
		item.Status = string(job.Status)
		result.Accepted++
		result.Items = append(result.Items, item)
	}

	code := fiber.StatusAccepted
	if result.Accepted == 0 {
		code = fiber.StatusBadRequest
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    code,
		Message: fmt.Sprintf("Accepted %d of %d files", result.Accepted, len(result.Items)),
		Data:    result,
	})
}

// UploadResume queues a resume job; the worker additionally extracts skills
// and matches the resume against active listings.
func (h *IngestHandler) UploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is required",
		}, err)
	}
	return h.submitFile(c, model.JobKindResume, file.Filename, file)
}

func (h *IngestHandler) submitFile(c *fiber.Ctx, kind model.JobKind, fileName string, file *multipart.FileHeader) error {
	if err := h.uc.ValidateUpload(fileName, file.Size); err != nil {
		return h.submissionError(c, err)
	}

	savePath := h.uc.UploadDestination(fileName)
	if err := c.SaveFile(file, savePath); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: fmt.Sprintf("cannot save %s file", kind),
		}, err)
	}

	job, err := h.uc.SubmitFile(kind, ownerID(c), fileName, savePath)
	if err != nil {
		return h.submissionError(c, err)
	}
	return accepted(c, job)
}

func (h *IngestHandler) Status(c *fiber.Ctx) error {
	job, err := h.uc.GetStatus(c.Params("job_id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "job not found",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get job status",
		Data:    job,
	})
}

func (h *IngestHandler) ListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	status := c.Query("status")

	jobs, total, err := h.uc.ListJobs(status, limit, offset)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list jobs",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success list jobs",
		Data:       jobs,
		Pagination: paginate(limit, offset, len(jobs), total),
	})
}

func (h *IngestHandler) ResumeProfile(c *fiber.Ctx) error {
	profile, err := h.uc.GetResumeProfile(c.Params("user_id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "no analyzed resume for this user",
		}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get resume profile",
		Data:    profile,
	})
}

func (h *IngestHandler) CancelJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid job id",
		}, err)
	}
	cancelled, err := h.uc.CancelJob(id)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to cancel job",
		}, err)
	}
	if !cancelled {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "job already finished",
		}, nil)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success cancel job",
		Data:    fiber.Map{"job_id": id, "status": string(model.JobStatusFailed)},
	})
}

func (h *IngestHandler) CreateListing(c *fiber.Ctx) error {
	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid listing payload",
		}, err)
	}
	listing, err := h.uc.CreateListing(c.Context(), req)
	if err != nil {
		return h.submissionError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create listing",
		Data:    listing,
	})
}

func (h *IngestHandler) SearchListings(c *fiber.Ctx) error {
	listings, err := h.uc.SearchListings(c.Context(), c.Query("q"), c.QueryInt("k", 10))
	if err != nil {
		return h.submissionError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success search listings",
		Data:    listings,
	})
}

// submissionError maps the failure taxonomy onto HTTP statuses.
func (h *IngestHandler) submissionError(c *fiber.Ctx, err error) error {
	var perr *model.PipelineError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case model.ErrValidation:
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadRequest,
				Message: perr.Err.Error(),
			}, err)
		case model.ErrBackpressure:
			c.Set("Retry-After", "30")
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusServiceUnavailable,
				Message: "processing queue is full, retry later",
			}, err)
		case model.ErrEmbeddingProvider:
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusBadGateway,
				Message: "embedding provider unavailable",
			}, err)
		}
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Message: "submission failed",
	}, err)
}

func accepted(c *fiber.Ctx, job *model.Job) error {
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Success submit job",
		Data:    dto.SubmitJobResponse{JobID: job.ID, Status: string(job.Status)},
	})
}

func ownerID(c *fiber.Ctx) *uuid.UUID {
	if raw := c.Get("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return &id
		}
	}
	return nil
}

func paginate(limit, offset, count int, total int64) *response.Pagination {
	if limit <= 0 {
		limit = 20
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	page := offset/limit + 1
	from := 0
	to := 0
	if count > 0 {
		from = offset + 1
		to = offset + count
	}
	return &response.Pagination{
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(offset+count) < total,
		From:       from,
		To:         to,
	}
}
