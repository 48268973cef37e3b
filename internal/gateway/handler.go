package gateway

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

func (h *Handler) ListGateways(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	gateways, err := h.Service.List(r.Context(), churchID)
	if err != nil {
		h.Logger.Error("ListGateways: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gateways)
}

func (h *Handler) SaveGateway(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SaveGatewayDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SaveGateway: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gw, err := h.Service.Save(r.Context(), churchID, dto)
	if err != nil {
		h.Logger.Error("SaveGateway: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SaveGateway: gateway saved", "gateway_id", gw.ID, "church_id", churchID)
	h.WriteJSON(w, http.StatusOK, toDTO(gw))
}

func (h *Handler) DeleteGateway(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid gateway ID")
		return
	}

	if err := h.Service.Delete(r.Context(), churchID, id); err != nil {
		h.Logger.Error("DeleteGateway: service error", "error", err, "gateway_id", id, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}
