package donation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/fees"
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

func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ChargeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Charge: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	donation, err := h.Service.Charge(r.Context(), churchID, dto)
	if err != nil {
		h.Logger.Error("Charge: service error", "error", err, "church_id", churchID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, donation)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionURL, err := h.Service.Checkout(r.Context(), churchID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"url": sessionURL})
}

func (h *Handler) EstimateFee(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto FeeEstimateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.Kind == "" {
		dto.Kind = fees.KindCard
	}

	fee, err := h.Service.EstimateFee(r.Context(), churchID, dto.Kind, dto.Amount)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, FeeEstimateResponse{
		Amount: dto.Amount,
		Kind:   dto.Kind,
		Fee:    fee,
		Total:  dto.Amount + fee,
	})
}

func (h *Handler) RecordDonation(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto RecordDonationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RecordDonation: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	donation, err := h.Service.Record(r.Context(), churchID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, donation)
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	donation, err := h.Service.Load(r.Context(), churchID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, donation)
}

func (h *Handler) GetPersonDonations(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	donations, err := h.Service.LoadByPerson(r.Context(), churchID, chi.URLParam(r, "personId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, donations)
}

// GetSummary reports weekly giving totals per fund. The range defaults to
// the trailing twelve weeks when the query carries no dates.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	const dateLayout = "2006-01-02"
	to := time.Now().UTC()
	if v := r.URL.Query().Get("endDate"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "endDate must be formatted YYYY-MM-DD")
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -84)
	if v := r.URL.Query().Get("startDate"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "startDate must be formatted YYYY-MM-DD")
			return
		}
		from = parsed
	}

	summary, err := h.Service.Summary(r.Context(), churchID, from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetBatches(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	batches, err := h.Service.LoadBatches(r.Context(), churchID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, batches)
}

func (h *Handler) GetBatchDonations(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	donations, err := h.Service.LoadByBatch(r.Context(), churchID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) GetBatchSummary(w http.ResponseWriter, r *http.Request) {
	churchID := apperrors.ChurchIDFromContext(r.Context())
	if churchID == "" {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.Service.BatchSummary(r.Context(), churchID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
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
