package notebook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/notebook-api/internal/httputil"
	"github.com/redmonkez12/notebook-api/internal/logging"
)

// Handler contains HTTP handlers for notebook endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// SaveRequest represents the notebook save request body
type SaveRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}

// UpdateRequest represents the notebook update request body
type UpdateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SaveResponse represents a successful save
type SaveResponse struct {
	Success    bool      `json:"success"`
	NotebookID uuid.UUID `json:"notebook_id"`
}

// ListResponse represents a notebook listing
type ListResponse struct {
	Success   bool        `json:"success"`
	Notebooks []*Notebook `json:"notebooks"`
}

// Save handles notebook creation
// @Summary      Save a notebook
// @Description  Persist a notebook document; embedded base64 images are moved to object storage
// @Tags         notebooks
// @Accept       json
// @Produce      json
// @Param        request body SaveRequest true "Notebook fields"
// @Success      201 {object} SaveResponse
// @Failure      400 {object} httputil.Envelope "Missing fields"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /notebooks [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid save notebook request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.UserID == uuid.Nil || req.Title == "" {
		httputil.RespondErrorWithCode(w, "user_id and title are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Save(r.Context(), req.UserID, req.Title, req.Content)
	if err != nil {
		logger.Error("failed to save notebook", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to save notebook", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("notebook saved", "notebook_id", created.ID, "user_id", req.UserID)

	httputil.RespondJSON(w, SaveResponse{
		Success:    true,
		NotebookID: created.ID,
	}, http.StatusCreated)
}

// Update handles notebook updates
// @Summary      Update a notebook
// @Description  Replace a notebook's title and content
// @Tags         notebooks
// @Accept       json
// @Produce      json
// @Param        notebookID path string true "Notebook ID"
// @Param        request body UpdateRequest true "Notebook fields"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Invalid request"
// @Failure      404 {object} httputil.Envelope "Unknown notebook"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /notebooks/{notebookID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	notebookID, err := uuid.Parse(chi.URLParam(r, "notebookID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid notebook id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update notebook request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.Update(r.Context(), notebookID, req.Title, req.Content); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("update failed: notebook not found", "notebook_id", notebookID)
			httputil.RespondErrorWithCode(w, "notebook not found", httputil.CodeNotebookNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update notebook", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update notebook", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("notebook updated", "notebook_id", notebookID)

	httputil.RespondSuccess(w, "notebook updated", http.StatusOK)
}

// List handles notebook listing for a user
// @Summary      List notebooks
// @Description  Return all notebooks belonging to a user, newest first
// @Tags         notebooks
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200 {object} ListResponse
// @Failure      400 {object} httputil.Envelope "Missing or invalid user_id"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /notebooks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "valid user_id query parameter required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	notebooks, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list notebooks", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list notebooks", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{
		Success:   true,
		Notebooks: notebooks,
	}, http.StatusOK)
}
