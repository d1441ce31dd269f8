package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/pdfquiz/internal/generate"
	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/intake"
	"github.com/pavelanni/pdfquiz/internal/llm"
	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/store"
)

// maxRequestBytes bounds a generation request body: one base64 document at
// the intake ceiling plus room for the JSON envelope.
const maxRequestBytes = intake.MaxDocumentBytes/3*4 + 64<<10

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	pipeline *generate.Pipeline
	titles   llm.TitleGenerator
	store    *store.Store
	timeout  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithTitles enables the title endpoint's model call. Without it every title is the default.
func WithTitles(g llm.TitleGenerator) Option {
	return func(h *Handler) { h.titles = g }
}

// WithStore exposes the generation log.
func WithStore(s *store.Store) Option {
	return func(h *Handler) { h.store = s }
}

// WithRequestTimeout bounds each generation request. Zero means no limit
// beyond the client connection.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New creates a new Handler.
func New(p *generate.Pipeline, opts ...Option) *Handler {
	h := &Handler{pipeline: p}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/api/quiz", h.handleGenerateQuiz)
	r.Post("/api/title", h.handleTitle)
	r.Get("/api/generations", h.handleGenerations)
}

type fileUpload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type quizRequest struct {
	Files      []fileUpload `json:"files"`
	Difficulty string       `json:"difficulty"`
}

// streamEvent is one NDJSON line of a generation response.
type streamEvent struct {
	Type       string                  `json:"type"`
	ID         string                  `json:"id,omitempty"`
	Progress   float64                 `json:"progress"`
	Difficulty model.Difficulty        `json:"difficulty,omitempty"`
	Questions  []model.PartialQuestion `json:"questions,omitempty"`
	Quiz       []model.Question        `json:"quiz,omitempty"`
	Kind       generate.Kind           `json:"kind,omitempty"`
	Detail     string                  `json:"detail,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

type rejection struct {
	Kind    generate.Kind `json:"kind"`
	Reason  intake.Reason `json:"reason,omitempty"`
	Detail  string        `json:"detail"`
	Message string        `json:"message"`
}

func (h *Handler) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, r, &intake.RejectedError{Reason: intake.ReasonTooLarge, Detail: "request body exceeds the document limit"})
			return
		}
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	docs := make([]intake.Document, 0, len(req.Files))
	for _, f := range req.Files {
		doc, err := intake.Decode(f.Name, f.Type, f.Data)
		if err != nil {
			h.reject(w, r, err)
			return
		}
		docs = append(docs, doc)
	}
	doc, err := intake.Single(docs)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	stream := h.pipeline.Generate(ctx, generate.Request{Document: doc, Difficulty: req.Difficulty})
	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Generation-ID", stream.ID())
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	send := func(ev streamEvent) bool {
		if err := enc.Encode(ev); err != nil {
			slog.Debug("client went away", "id", stream.ID(), "error", err)
			return false
		}
		flusher.Flush()
		return true
	}

	for stream.Next() {
		p := stream.Partial()
		if !send(streamEvent{Type: "partial", ID: stream.ID(), Progress: p.Progress(), Questions: p.Questions}) {
			return
		}
	}

	quiz, err := stream.Result()
	if err != nil {
		kind := generate.KindOf(err)
		detail := err.Error()
		var ge *generate.Error
		if errors.As(err, &ge) {
			detail = ge.Detail
		}
		send(streamEvent{
			Type:    "error",
			ID:      stream.ID(),
			Kind:    kind,
			Detail:  detail,
			Message: appI18n.T(r.Context(), string(kind)),
		})
		return
	}
	send(streamEvent{
		Type:       "quiz",
		ID:         stream.ID(),
		Progress:   100,
		Difficulty: stream.Difficulty(),
		Quiz:       quiz.Questions,
	})
}

// reject answers an intake failure before any streaming starts.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	rej := rejection{Kind: generate.KindInputRejected, Detail: err.Error()}
	status := http.StatusBadRequest

	var re *intake.RejectedError
	if errors.As(err, &re) {
		rej.Reason = re.Reason
		rej.Detail = re.Detail
		if re.Reason == intake.ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
	}
	rej.Message = appI18n.Rejection(r.Context(), string(rej.Reason))

	slog.Info("document rejected", "reason", rej.Reason, "detail", rej.Detail)
	writeJSON(w, status, rej)
}

type titleRequest struct {
	Filename string `json:"filename"`
}

func (h *Handler) handleTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	title := llm.TitleOrDefault(r.Context(), h.titles, req.Filename)
	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}
