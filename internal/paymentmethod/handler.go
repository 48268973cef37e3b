package paymentmethod

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

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

func (h *Handler) AddCard(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AddCardDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pm, err := h.Service.AddCard(r.Context(), churchID, dto)
	if err != nil {
		h.Logger.Error("AddCard: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, pm)
}

func (h *Handler) AddBank(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto AddBankDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pm, err := h.Service.AddBank(r.Context(), churchID, dto)
	if err != nil {
		h.Logger.Error("AddBank: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, pm)
}

// UpdatePaymentMethod routes by id prefix: "ba_" edits a bank account,
// anything else edits a card.
func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if strings.HasPrefix(id, "ba_") {
		var dto UpdateBankDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.Service.UpdateBank(r.Context(), churchID, id, dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	} else {
		var dto UpdateCardDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.Service.UpdateCard(r.Context(), churchID, id, dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) VerifyBank(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto VerifyBankDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.VerifyBank(r.Context(), churchID, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) DetachPaymentMethod(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Detach(r.Context(), churchID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) GetPersonPaymentMethods(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	methods, err := h.Service.LoadByPerson(r.Context(), churchID, chi.URLParam(r, "personId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, methods)
}
