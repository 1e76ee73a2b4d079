// Package http exposes the ingestion pipeline over a request/response
// boundary with CORS preflight support, plus a client for invoking it.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/domain"
)

// Handler wires the pipeline and document read endpoints into an HTTP mux.
type Handler struct {
	ingest    *app.IngestService
	documents *app.DocumentService
	questions app.QuestionSource
	log       *zap.Logger
}

func NewHandler(ingest *app.IngestService, documents *app.DocumentService, questions app.QuestionSource, log *zap.Logger) *Handler {
	return &Handler{ingest: ingest, documents: documents, questions: questions, log: log}
}

// Routes mounts all endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/functions/generate-quiz", h.handleGenerate)
	mux.HandleFunc("/questions", h.handleQuestions)
	mux.HandleFunc("/attempts", h.handleAttempts)
	return mux
}

type generateResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	QuestionsCount int    `json:"questionsCount,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.Write([]byte("ok"))
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req app.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.DocumentPath == "" || req.DocumentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing documentPath or documentId parameter"})
		return
	}

	result, err := h.ingest.GenerateQuiz(r.Context(), req)
	if err != nil {
		h.log.Error("generate quiz failed", zap.String("document_id", req.DocumentID), zap.Error(err))
		writeJSON(w, statusFor(err), errorResponse{Error: domain.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success:        true,
		Message:        "questions generated successfully",
		QuestionsCount: result.QuestionsCount,
	})
}

// handleQuestions returns a document's question batch in creation order,
// which client quiz sessions load from.
func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.Write([]byte("ok"))
		return
	}
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing documentId parameter"})
		return
	}
	questions, err := h.questions.QuestionsByDocument(r.Context(), documentID)
	if err != nil {
		h.log.Error("load questions failed", zap.String("document_id", documentID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.UserMessage(err)})
		return
	}
	if len(questions) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: domain.UserMessage(domain.ErrNoQuestionsAvailable)})
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleAttempts(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.Write([]byte("ok"))
		return
	}
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing documentId parameter"})
		return
	}
	attempts, err := h.documents.ListAttempts(r.Context(), documentID)
	if err != nil {
		h.log.Error("list attempts failed", zap.String("document_id", documentID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// statusFor maps the typed error taxonomy onto HTTP statuses. Document
// problems are the caller's to fix (400), provider throttling is 429,
// upstream trouble is 502, and everything configuration- or storage-shaped
// stays 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnreadableDocument),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInsufficientContent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrModelRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrMalformedModelOutput),
		errors.Is(err, domain.ErrInvalidQuestionShape):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
