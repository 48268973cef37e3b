package webhook

import (
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/transport"
	"github.com/frahmantamala/giving-api/pkg/logger"
	"github.com/go-chi/chi"
)

// maxPayloadBytes bounds webhook bodies; provider events are small.
const maxPayloadBytes = 1 << 20

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// HandleProviderEvent receives POST /donate/webhook/{provider}?churchId=.
// The body must reach the verifier byte-for-byte, so it is read raw and
// never decoded here.
func (h *Handler) HandleProviderEvent(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	churchID := r.URL.Query().Get("churchId")
	if churchID == "" {
		h.WriteError(w, http.StatusBadRequest, "churchId is required")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.Logger.Error("failed to read webhook body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")

	if err := h.Service.HandleEvent(r.Context(), provider, churchID, payload, sigHeader); err != nil {
		h.Logger.Error("webhook processing failed",
			"provider", provider, "church_id", churchID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

// GetFailures lists unresolved failure events for the tenant.
func (h *Handler) GetFailures(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	logs, err := h.Service.Failures(r.Context(), churchID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, logs)
}

// ResolveFailure marks a failure event as handled.
func (h *Handler) ResolveFailure(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Resolve(r.Context(), churchID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
