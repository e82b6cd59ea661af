package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/influence-spread-service/pkg/layout"
	"github.com/gilchrisn/influence-spread-service/pkg/models"
	"github.com/gilchrisn/influence-spread-service/pkg/pipeline"
	"github.com/gilchrisn/influence-spread-service/pkg/service"
	"github.com/gilchrisn/influence-spread-service/pkg/submission"
)

const defaultMaxUploadSize = 100 << 20 // 100MB

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService    *service.DatasetService
	jobService        *service.JobService
	simulationService *service.SimulationService
	config            *pipeline.Config
	maxUploadSize     int64
}

// NewHandlers creates new API handlers. config carries the search defaults,
// notably the budget submissions are checked against.
func NewHandlers(datasetService *service.DatasetService, jobService *service.JobService, simulationService *service.SimulationService, config *pipeline.Config) *Handlers {
	if config == nil {
		config = pipeline.NewConfig()
	}
	return &Handlers{
		datasetService:    datasetService,
		jobService:        jobService,
		simulationService: simulationService,
		config:            config,
		maxUploadSize:     defaultMaxUploadSize,
	}
}

// WithMaxUploadSize limits the size of dataset uploads
func (h *Handlers) WithMaxUploadSize(size int64) *Handlers {
	if size > 0 {
		h.maxUploadSize = size
	}
	return h
}

// writeServiceError maps service errors to HTTP responses
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var ve models.ValidationErrors
	var single models.ValidationError

	switch {
	case errors.As(err, &ve):
		WriteValidationErrorResponse(w, message, ve)
	case errors.As(err, &single):
		WriteValidationErrorResponse(w, message, models.ValidationErrors{single})
	case errors.Is(err, service.ErrDatasetNotLoaded):
		WriteErrorResponse(w, http.StatusConflict, message, err)
	case errors.Is(err, service.ErrJobNotFound):
		WriteErrorResponse(w, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrResultNotReady):
		WriteErrorResponse(w, http.StatusConflict, message, err)
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, message, err)
	}
}

// decodeJSON decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HealthCheck returns server health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.datasetService.Get()
	health := map[string]interface{}{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"datasetLoaded": err == nil,
	}
	WriteSuccessResponse(w, "Service is healthy", health)
}

// GetDataset describes the served dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.datasetService.Info()
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "No dataset loaded", err)
		return
	}
	WriteSuccessResponse(w, "Dataset retrieved successfully", info)
}

// UploadDataset replaces the dataset with three uploaded CSV files
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Dataset upload request received")

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Error().Err(err).Msg("Failed to parse multipart form")
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	files := make(map[string]*multipart.FileHeader)
	for _, fieldName := range []string{service.FriendshipsFile, service.HatersFile, service.CostsFile} {
		file, header, err := r.FormFile(fieldName)
		if err != nil {
			log.Error().
				Str("field", fieldName).
				Err(err).
				Msg("Missing required file")
			WriteErrorResponse(w, http.StatusBadRequest, "Missing required file: "+fieldName, err)
			return
		}
		file.Close() // reopened by the service
		files[fieldName] = header
	}

	info, err := h.datasetService.Upload(files)
	if err != nil {
		log.Error().Err(err).Msg("Dataset upload failed")
		WriteErrorResponse(w, http.StatusBadRequest, "Dataset upload failed", err)
		return
	}

	WriteSuccessResponse(w, "Dataset uploaded successfully", info)
}

// Simulate estimates the expected spread of a seed set
func (h *Handlers) Simulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.simulationService.Simulate(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Int("seeds", len(req.Seeds)).Msg("Simulation rejected")
		writeServiceError(w, "Simulation failed", err)
		return
	}

	WriteSuccessResponse(w, "Simulation completed", result)
}

// StartSelection queues a seed selection job
func (h *Handlers) StartSelection(w http.ResponseWriter, r *http.Request) {
	var params models.JobParameters
	if err := decodeJSON(r, &params); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.Submit(params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start selection job")
		writeServiceError(w, "Failed to start selection", err)
		return
	}

	WriteAcceptedResponse(w, "Selection job started", models.SelectionResponse{
		JobID: job.ID,
		Job:   *job,
	})
}

// ListJobs lists every known job
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Jobs retrieved successfully", h.jobService.List())
}

// GetJob gets job status
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}

	WriteSuccessResponse(w, "Job status retrieved", job)
}

// CancelJob cancels a job
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	if err := h.jobService.Cancel(jobID); err != nil {
		log.Error().
			Str("job_id", jobID).
			Err(err).
			Msg("Failed to cancel job")
		writeServiceError(w, "Failed to cancel job", err)
		return
	}

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	WriteSuccessResponse(w, "Job cancelled successfully", job)
}

// GetJobLayout returns a 2D layout of the selected seed set
func (h *Handlers) GetJobLayout(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	result, dataset, err := h.jobService.GetResult(jobID)
	if err != nil {
		writeServiceError(w, "Result not available", err)
		return
	}
	if len(result.Selected) == 0 {
		WriteErrorResponse(w, http.StatusNotFound, "Job selected no seeds", nil)
		return
	}

	l, err := layout.Compute(dataset.Graph, result.Selected, layout.DefaultOptions())
	if err != nil {
		log.Error().Str("job_id", jobID).Err(err).Msg("Layout computation failed")
		WriteErrorResponse(w, http.StatusInternalServerError, "Layout computation failed", err)
		return
	}

	WriteSuccessResponse(w, "Layout computed", l)
}

// GetJobSubmission downloads the selected seed set as a submission file.
// The optional id1 and id2 query parameters name the file.
func (h *Handlers) GetJobSubmission(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	result, dataset, err := h.jobService.GetResult(jobID)
	if err != nil {
		writeServiceError(w, "Result not available", err)
		return
	}

	budget := h.config.Budget()
	if job.Parameters.Budget != nil {
		budget = *job.Parameters.Budget
	}

	var buf bytes.Buffer
	if err := submission.WriteTo(&buf, result.Selected, dataset.Costs, dataset.Haters, budget); err != nil {
		writeServiceError(w, "Selection is not a valid submission", err)
		return
	}

	filename := "submission.csv"
	if id1, id2 := r.URL.Query().Get("id1"), r.URL.Query().Get("id2"); id1 != "" && id2 != "" {
		filename = submission.DefaultFilename(id1, id2)
	}

	WriteCSVResponse(w, filename, buf.Bytes())
}

// ValidateSeeds checks a seed set against the dataset and the budget
func (h *Handlers) ValidateSeeds(w http.ResponseWriter, r *http.Request) {
	var req models.ValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dataset, _, err := h.datasetService.Get()
	if err != nil {
		writeServiceError(w, "Validation failed", err)
		return
	}

	seeds := models.NewSeedSet(req.Seeds)
	response := models.ValidationResponse{
		Valid:     true,
		Seeds:     seeds,
		TotalCost: seeds.TotalCost(dataset.Costs),
	}

	if err := h.simulationService.Validate(req.Seeds); err != nil {
		var ve models.ValidationErrors
		var single models.ValidationError
		switch {
		case errors.As(err, &ve):
			response.Errors = ve
		case errors.As(err, &single):
			response.Errors = models.ValidationErrors{single}
		default:
			writeServiceError(w, "Validation failed", err)
			return
		}
		response.Valid = false
	}

	WriteSuccessResponse(w, "Validation completed", response)
}
