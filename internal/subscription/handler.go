package subscription

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/transport"
	"github.com/frahmantamala/giving-api/pkg/logger"
	"github.com/go-chi/chi"
)

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

func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateSubscriptionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateSubscription: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.Service.Create(r.Context(), churchID, dto)
	if err != nil {
		h.Logger.Error("CreateSubscription: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.Service.Load(r.Context(), churchID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) GetPersonSubscriptions(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subs, err := h.Service.LoadByPerson(r.Context(), churchID, chi.URLParam(r, "personId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, subs)
}

func (h *Handler) GetCustomerSubscriptions(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subs, err := h.Service.LoadByCustomer(r.Context(), churchID, chi.URLParam(r, "customerId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, subs)
}

func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdatePaymentMethodDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.UpdatePaymentMethod(r.Context(), churchID, id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Cancel(r.Context(), churchID, id); err != nil {
		h.Logger.Error("CancelSubscription: service error", "error", err, "subscription_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
