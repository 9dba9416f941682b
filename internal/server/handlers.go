package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/internal/jobs"
	"github.com/Aleph-Alpha/bookrag/internal/rag"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgWelcome          = "Welcome to the AI Native Book RAG API."
	msgIngestScheduled  = "Content ingestion has been scheduled to run in the background."
	msgEmbeddingFailed  = "Failed to generate query embedding."
	msgGenerationFailed = "Failed to generate a response from the language model."
	msgScheduleFailed   = "Failed to schedule content ingestion."
	msgRunNotFound      = "Ingest run not found."
	msgInternal         = "Internal server error."

	listRunsLimit = 20
)

// Answerer answers a question about the book.
type Answerer interface {
	Answer(ctx context.Context, question, selectedText string) (string, error)
}

type ChatRequest struct {
	Question     string `json:"question"`
	SelectedText string `json:"selected_text,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type IngestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// ErrorResponse mirrors the {"detail": ...} shape clients already parse.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	answerer   Answerer
	tracker    ingest.Tracker
	dispatcher jobs.Dispatcher
	logger     Logger
}

func NewHandler(answerer Answerer, tracker ingest.Tracker, dispatcher jobs.Dispatcher, logger Logger) *Handler {
	return &Handler{answerer: answerer, tracker: tracker, dispatcher: dispatcher, logger: logger}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": msgWelcome})
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Request body must be a JSON object with a question."})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Question must not be empty."})
		return
	}

	answer, err := h.answerer.Answer(c.Request.Context(), req.Question, req.SelectedText)
	if err != nil {
		_ = c.Error(err)
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ChatResponse{Response: answer})
	case errors.Is(err, rag.ErrEmbedding):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgEmbeddingFailed})
	case errors.Is(err, rag.ErrGeneration):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgGenerationFailed})
	default:
		h.logger.ErrorWithContext(c.Request.Context(), "chat failed", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgInternal})
	}
}

// scheduleIngest registers a run and hands it to the dispatcher. A run that
// cannot be dispatched is marked failed right away.
func (h *Handler) scheduleIngest(c *gin.Context) {
	ctx := c.Request.Context()
	runID := uuid.NewString()

	if _, err := h.tracker.Create(ctx, runID); err != nil {
		h.logger.ErrorWithContext(ctx, "failed to register ingest run", err, map[string]interface{}{"run_id": runID})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgScheduleFailed})
		return
	}

	if err := h.dispatcher.Dispatch(ctx, runID); err != nil {
		h.logger.ErrorWithContext(ctx, "failed to dispatch ingest run", err, map[string]interface{}{"run_id": runID})
		if ferr := h.tracker.Finish(context.WithoutCancel(ctx), runID, ingest.Report{}, err); ferr != nil {
			h.logger.ErrorWithContext(ctx, "failed to mark ingest run failed", ferr, map[string]interface{}{"run_id": runID})
		}
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Detail: msgScheduleFailed})
		return
	}

	h.logger.InfoWithContext(ctx, "ingestion scheduled as a background task", nil, map[string]interface{}{"run_id": runID})
	c.JSON(http.StatusOK, IngestResponse{Status: "success", Message: msgIngestScheduled, RunID: runID})
}

func (h *Handler) getIngestRun(c *gin.Context) {
	run, err := h.tracker.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ingest.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: msgRunNotFound})
		return
	}
	if err != nil {
		h.logger.ErrorWithContext(c.Request.Context(), "failed to load ingest run", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgInternal})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) listIngestRuns(c *gin.Context) {
	runs, err := h.tracker.List(c.Request.Context(), listRunsLimit)
	if err != nil {
		h.logger.ErrorWithContext(c.Request.Context(), "failed to list ingest runs", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: msgInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
