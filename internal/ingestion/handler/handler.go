package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/logger"
)

type Handler struct {
	publisher    *publisher.Publisher
	maxBodyBytes int64
	logger       *slog.Logger
}

func New(pub *publisher.Publisher, maxBodyBytes int64) *Handler {
	return &Handler{
		publisher:    pub,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "ingestion-handler"),
	}
}

// RegisterDocument handles POST /api/v1/documents.
func (h *Handler) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, store.KindDocument)
}

// RegisterCertificate handles POST /api/v1/certificates.
func (h *Handler) RegisterCertificate(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, store.KindCertificate)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, kind store.Kind) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	var req ingestion.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.publisher.Register(ctx, kind, &req)
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		status := apperrors.HTTPStatusCode(err)
		log.Error("registration failed", "kind", kind, "error", err, "status_code", status)
		h.writeError(w, status, err.Error())
		return
	}
	log.Info("reference registered", "kind", kind, "id", resp.ID, "published", resp.Published)
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
