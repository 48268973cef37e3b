package fund

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

func (h *Handler) GetFunds(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	funds, err := h.Service.LoadAll(r.Context(), churchID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, funds)
}

func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	fund, err := h.Service.Load(r.Context(), churchID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) SaveFund(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SaveFundDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SaveFund: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fund, err := h.Service.Save(r.Context(), churchID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, fund)
}

func (h *Handler) DeleteFund(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), churchID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
