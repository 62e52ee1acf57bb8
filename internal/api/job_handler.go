package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/api/shared"
	"github.com/wrenhall/warbler-api/internal/service"
)

// CreateJobRequest is the request body for creating a transcription job.
type CreateJobRequest struct {
	OwnerEmail    string `json:"owner_email" validate:"required,email"`
	ObservationID string `json:"observation_id" validate:"required,uuid"`
	ResourceKey   string `json:"resource_key" validate:"required"`
	Prompt        string `json:"prompt" validate:"required,min=1"`
}

// CreateJobResponse is returned on successful job creation.
type CreateJobResponse struct {
	JobID                string `json:"job_id"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

// JobStatusResponse is the collaborator-facing view of a job.
type JobStatusResponse struct {
	Status       string `json:"status"`
	TranscriptID string `json:"transcript_id,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// JobHandler handles transcription-job HTTP requests.
type JobHandler struct {
	jobService service.JobService
	validator  *validator.Validate
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validator.New(),
	}
}

// CreateJob handles POST /api/transcriptions requests.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	observationID, err := uuid.Parse(req.ObservationID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid observation ID")
		return
	}

	result, err := h.jobService.CreateTranscriptionJob(
		r.Context(), req.OwnerEmail, observationID, req.ResourceKey, req.Prompt)
	if err != nil {
		h.respondCreateError(w, r, err)
		return
	}

	// 202: the work happens asynchronously on later scheduler ticks.
	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateJobResponse{
		JobID:                result.JobID.String(),
		EstimatedWaitMinutes: result.EstimatedWaitMinutes,
	})
}

// GetJobStatus handles GET /api/transcriptions/{id} requests.
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	result, err := h.jobService.GetJobStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		slog.Error("failed to get job status", "error", err, "job_id", jobID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	resp := JobStatusResponse{
		Status:    string(result.Status),
		LastError: result.LastError,
	}
	if result.TranscriptID != nil {
		resp.TranscriptID = result.TranscriptID.String()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// respondCreateError maps service errors onto HTTP status codes.
func (h *JobHandler) respondCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrResourceNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Media resource not found")
	case errors.Is(err, service.ErrResourceTooLarge):
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Media resource exceeds size limit")
	case errors.Is(err, service.ErrPermissionDenied):
		shared.RespondWithError(w, r, http.StatusForbidden, "Permission denied")
	default:
		slog.Error("failed to create transcription job", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create transcription job")
	}
}
