// Package transport provides the HTTP handlers of the push endpoints.
package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paritytech/push-release/internal/observability/metrics"
	"github.com/paritytech/push-release/internal/release/domain"
)

// Service defines the release service interface for HTTP transport.
type Service interface {
	PushRelease(ctx context.Context, req domain.ReleaseRequest) (*domain.ReleaseResult, error)
	PushBuild(ctx context.Context, req domain.BuildRequest) (*domain.BuildResult, error)
}

// Handler handles the push requests.
type Handler struct {
	svc Service
}

// NewHandler creates a new push HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the push routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/push-release/{tag}/{commit}", h.handlePushRelease)
	r.Post("/push-build/{tag}/{platform}", h.handlePushBuild)
}

func (h *Handler) handlePushRelease(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	result, err := h.svc.PushRelease(r.Context(), domain.ReleaseRequest{
		Tag:    chi.URLParam(r, "tag"),
		Commit: chi.URLParam(r, "commit"),
		Secret: r.PostFormValue("secret"),
	})
	if err != nil {
		metrics.Push("release", domain.KindOf(err).String())
		writeError(w, err)
		return
	}

	metrics.Push("release", "ok")
	writeText(w, http.StatusOK, result.Summary())
}

func (h *Handler) handlePushBuild(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	result, err := h.svc.PushBuild(r.Context(), domain.BuildRequest{
		Tag:      chi.URLParam(r, "tag"),
		Platform: chi.URLParam(r, "platform"),
		Commit:   r.PostFormValue("commit"),
		Filename: r.PostFormValue("filename"),
		SHA3:     r.PostFormValue("sha3"),
		Secret:   r.PostFormValue("secret"),
	})
	if err != nil {
		metrics.Push("build", domain.KindOf(err).String())
		writeError(w, err)
		return
	}

	metrics.Push("build", "ok")
	writeText(w, http.StatusOK, result.Summary())
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeText(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// StatusFor maps a pipeline error to its response status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindDeclined:
		return http.StatusAccepted
	case domain.KindInvalid, domain.KindUpstream:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func writeError(w http.ResponseWriter, err error) {
	writeText(w, StatusFor(err), err.Error())
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
