// Package http provides the service HTTP surface: the trigger webhook the
// telephony platform posts to, and the signed listen-link redirect endpoint.
package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/observability/metrics"
	"voicemail-notify-service/internal/service/pipeline"
	"voicemail-notify-service/internal/signing"
	"voicemail-notify-service/internal/storage"
)

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	cfg        *config.Config
	controller *pipeline.Controller
	store      storage.ObjectStore
	signer     *signing.Signer
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(cfg *config.Config, controller *pipeline.Controller, store storage.ObjectStore, signer *signing.Signer, log zerolog.Logger) http.Handler {
	h := &Handler{
		cfg:        cfg,
		controller: controller,
		store:      store,
		signer:     signer,
		metrics:    metrics.DefaultMetrics,
		log:        log.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Trigger webhook: one voicemail processing invocation per request.
	r.Post("/v1/voicemails", h.handleTrigger)

	// Signed listen-link redirect.
	r.Get("/voicemail/{bucket}/{key}", h.handleRedirect)

	return r
}

// handleTrigger decodes the trigger event and runs the pipeline
// synchronously, mirroring the invocation model of the telephony platform.
func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var trigger models.TriggerEvent
	if err := json.NewDecoder(r.Body).Decode(&trigger); err != nil {
		h.log.Warn().Err(err).Msg("malformed trigger payload")
		writeJSON(w, http.StatusBadRequest, pipeline.Result{
			Code:    400,
			Message: "malformed trigger payload",
		})
		return
	}

	result := h.controller.Process(r.Context(), trigger)

	status := result.Code
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// handleRedirect validates a signed listen link and exchanges it for a
// short-lived storage URL.
func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	keyEncoded := chi.URLParam(r, "key")

	key, err := url.QueryUnescape(keyEncoded)
	if err != nil || bucket == "" || key == "" {
		h.metrics.RecordRedirect("bad_request")
		writeHTMLError(w, http.StatusBadRequest, "400 Bad Request", "Missing bucket or key")
		return
	}

	expires := r.URL.Query().Get("expires")
	sig := r.URL.Query().Get("signature")
	if expires == "" || sig == "" {
		h.metrics.RecordRedirect("bad_request")
		writeHTMLError(w, http.StatusBadRequest, "400 Bad Request", "Missing required parameters")
		return
	}

	if signing.Expired(expires, time.Now()) {
		h.log.Warn().Str("bucket", bucket).Str("key", key).Msg("expired listen link")
		h.metrics.RecordRedirect("expired")
		writeHTMLError(w, http.StatusForbidden, "403 Forbidden",
			"This link has expired. Please contact support for a new link.")
		return
	}

	if !h.signer.Verify(bucket, key, expires, sig) {
		h.log.Warn().Str("bucket", bucket).Str("key", key).Msg("invalid listen link signature")
		h.metrics.RecordRedirect("invalid_signature")
		writeHTMLError(w, http.StatusForbidden, "403 Forbidden",
			"Invalid signature. This link may have been tampered with.")
		return
	}

	// The recording may have been deleted since the link was issued.
	ok, err := h.store.Exists(r.Context(), bucket, key)
	if err != nil {
		h.log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("storage check failed")
		h.metrics.RecordRedirect("error")
		writeHTMLError(w, http.StatusInternalServerError, "500 Internal Server Error", "Failed to generate URL")
		return
	}
	if !ok {
		h.metrics.RecordRedirect("not_found")
		writeHTMLError(w, http.StatusNotFound, "404 Not Found", "Recording not found. It may have been deleted.")
		return
	}

	signedURL, err := h.store.SignedURL(bucket, key, h.cfg.Link.ListenWindow)
	if err != nil {
		h.log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("signed URL generation failed")
		h.metrics.RecordRedirect("error")
		writeHTMLError(w, http.StatusInternalServerError, "500 Internal Server Error", "Failed to generate URL")
		return
	}

	h.metrics.RecordRedirect("redirected")
	w.Header().Set("Location", signedURL)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTMLError(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<h1>" + title + "</h1><p>" + detail + "</p>"))
}
