package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"earshot/internal/catalog"
	"earshot/internal/index"
	"earshot/internal/store"
	"earshot/pkg/record"
	"earshot/pkg/types"
)

// Catalog defines the record operations the HTTP layer exposes.
type Catalog interface {
	Save(ctx context.Context, rec record.UntypedRecord) (record.UntypedRecord, error)
	Get(ctx context.Context, guid string) (record.UntypedRecord, error)
	ByType(ctx context.Context, typ string) ([]record.UntypedRecord, error)
	Patch(ctx context.Context, guid string, patch json.RawMessage) (record.UntypedRecord, error)
	Resolved(ctx context.Context, guid string) (record.TypedRecord[types.Post], error)
	Search(ctx context.Context, query string) ([]index.Hit, error)
}

// FeedRegistry defines the feed registration operation the HTTP layer exposes.
type FeedRegistry interface {
	RegisterFeed(ctx context.Context, url string) (record.UntypedRecord, error)
}

// Handler is the thin HTTP layer over the catalog and ingestion services.
type Handler struct {
	catalog Catalog
	feeds   FeedRegistry
	logger  *slog.Logger
}

func NewHandler(cat Catalog, feeds FeedRegistry, logger *slog.Logger) *Handler {
	return &Handler{catalog: cat, feeds: feeds, logger: logger}
}

// Register registers the record routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.handleListRecords)
		r.Post("/", h.handleSaveRecord)
		r.Get("/{guid}", h.handleGetRecord)
		r.Patch("/{guid}", h.handlePatchRecord)
		r.Get("/{guid}/resolved", h.handleGetResolved)
	})
	r.Get("/search", h.handleSearch)
	r.Post("/feeds", h.handleRegisterFeed)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typ := r.URL.Query().Get("type")
	if typ == "" {
		h.writeJSON(ctx, w, http.StatusBadRequest, errorBody("a type query parameter is required"))
		return
	}
	recs, err := h.catalog.ByType(ctx, typ)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if recs == nil {
		recs = []record.UntypedRecord{}
	}
	h.writeJSON(ctx, w, http.StatusOK, recs)
}

func (h *Handler) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec record.UntypedRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		h.writeError(ctx, w, record.NewDecodingError(err))
		return
	}

	stored, err := h.catalog.Save(ctx, rec)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusCreated, stored)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.catalog.Get(ctx, chi.URLParam(r, "guid"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, rec)
}

func (h *Handler) handlePatchRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	patch, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(ctx, w, record.NewDecodingError(err))
		return
	}

	rec, err := h.catalog.Patch(ctx, chi.URLParam(r, "guid"), patch)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, rec)
}

func (h *Handler) handleGetResolved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.catalog.Resolved(ctx, chi.URLParam(r, "guid"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, post)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hits, err := h.catalog.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	h.writeJSON(ctx, w, http.StatusOK, hits)
}

func (h *Handler) handleRegisterFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		h.writeJSON(ctx, w, http.StatusBadRequest, errorBody("a feed url is required"))
		return
	}

	rec, err := h.feeds.RegisterFeed(ctx, req.URL)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusCreated, rec)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "write response failed", "err", err)
	}
}

// writeError maps domain errors onto HTTP statuses: malformed or mistyped
// records are client errors, unknown guids are 404, unresolvable references
// are a bad gateway, everything else, encoding failures included, is a 500.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		decErr  *record.DecodingError
		missing *record.MissingRefsError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &decErr),
		errors.Is(err, catalog.ErrUnknownType):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, record.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &missing):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", "err", err)
	} else {
		h.logger.WarnContext(ctx, "request rejected", "status", status, "err", err)
	}
	h.writeJSON(ctx, w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
