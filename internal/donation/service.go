package donation

import (
	"context"
	"log/slog"
	"math"
	"time"

	apperrors "github.com/frahmantamala/giving-api/internal"
	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	"github.com/frahmantamala/giving-api/internal/core/events"
	"github.com/frahmantamala/giving-api/internal/fees"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

type Service struct {
	batches  BatchRepositoryAPI
	repo     RepositoryAPI
	fundRepo FundDonationRepositoryAPI
	funds    FundAPI
	gateways GatewayAPI
	provider ProviderAPI
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(
	batches BatchRepositoryAPI,
	repo RepositoryAPI,
	fundRepo FundDonationRepositoryAPI,
	funds FundAPI,
	gateways GatewayAPI,
	provider ProviderAPI,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		batches:  batches,
		repo:     repo,
		fundRepo: fundRepo,
		funds:    funds,
		gateways: gateways,
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// GetOrCreateCurrentBatch returns the tenant's most recent batch, creating
// the default online batch when none exists. Lookup and insert are separate
// statements, so concurrent first-time callers can each create one.
func (s *Service) GetOrCreateCurrentBatch(ctx context.Context, churchID string) (*donationdm.DonationBatch, error) {
	current, err := s.batches.LoadCurrent(churchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load current batch", err)
	}
	if current != nil {
		return current, nil
	}

	batch := &donationdm.DonationBatch{
		ChurchID:  churchID,
		Name:      donationdm.DefaultBatchName,
		BatchDate: time.Now().UTC(),
	}
	if err := s.batches.Save(batch); err != nil {
		return nil, apperrors.NewInternalError("failed to create batch", err)
	}

	s.logger.Info("donation batch created", "batch_id", batch.ID, "church_id", churchID)
	return batch, nil
}

// Record writes a donation header and its fund allocations. Rows are written
// sequentially without a wrapping transaction; a failed allocation leaves the
// header and earlier allocations in place. Empty allocations fall back to the
// tenant's General Fund for the full amount.
func (s *Service) Record(ctx context.Context, churchID string, dto RecordDonationDTO) (*donationdm.Donation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	batchID := dto.BatchID
	if batchID == "" {
		batch, err := s.GetOrCreateCurrentBatch(ctx, churchID)
		if err != nil {
			return nil, err
		}
		batchID = batch.ID
	}

	donationDate := dto.DonationDate
	if donationDate.IsZero() {
		donationDate = time.Now().UTC()
	}

	d := &donationdm.Donation{
		ChurchID:      churchID,
		BatchID:       batchID,
		PersonID:      dto.PersonID,
		DonationDate:  donationDate,
		Amount:        dto.Amount,
		Method:        dto.Method,
		MethodDetails: dto.MethodDetails,
		Notes:         dto.Notes,
	}
	if err := s.repo.Save(d); err != nil {
		return nil, apperrors.NewInternalError("failed to save donation", err)
	}

	allocations := dto.Funds
	if len(allocations) == 0 {
		general, err := s.funds.GetOrCreateGeneral(ctx, churchID)
		if err != nil {
			return nil, err
		}
		allocations = []FundAllocationDTO{{FundID: general.ID, Amount: dto.Amount}}
	}

	var allocated float64
	for _, alloc := range allocations {
		fd := &donationdm.FundDonation{
			ChurchID:   churchID,
			DonationID: d.ID,
			FundID:     alloc.FundID,
			Amount:     alloc.Amount,
		}
		if err := s.fundRepo.Save(fd); err != nil {
			s.logger.Error("failed to save fund allocation",
				"donation_id", d.ID, "fund_id", alloc.FundID, "error", err)
			return nil, apperrors.NewInternalError("failed to save fund allocation", err)
		}
		allocated += alloc.Amount
	}

	// A gap up to the card fee on the allocated amount is a donor covering
	// processing fees; anything larger is worth flagging. The tolerance uses
	// the tenant's own fee schedule, not the defaults.
	if delta := d.Amount - allocated; delta != 0 {
		overrides, oerr := s.gateways.FeeOverrides(ctx, churchID, fees.KindCard)
		if oerr != nil {
			overrides = fees.Overrides{}
		}
		tolerance, _ := fees.Estimate(fees.KindCard, allocated, overrides)
		if math.Abs(delta) > tolerance+0.01 {
			s.logger.Warn("donation amount does not match fund allocations",
				"donation_id", d.ID, "amount", d.Amount, "allocated", allocated)
		}
	}

	s.logger.Info("donation recorded",
		"donation_id", d.ID, "church_id", churchID, "batch_id", batchID, "amount", d.Amount)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewDonationRecordedEvent(d.ID, churchID, d.PersonID, d.Amount, d.Method))
	}
	return d, nil
}

// Charge executes a one-time gift against the tenant's gateway and records it.
func (s *Service) Charge(ctx context.Context, churchID string, dto ChargeDTO) (*donationdm.Donation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	secretKey, err := s.gateways.LoadPrivateKey(ctx, churchID)
	if err != nil {
		return nil, err
	}
	if secretKey == "" {
		return nil, apperrors.ErrGatewayNotConfigured
	}

	amount := dto.Amount
	method := donationdm.MethodCard
	if isBankRef(dto.PaymentMethodID) {
		method = donationdm.MethodACH
	}

	if dto.CoverFees {
		fee, err := s.EstimateFee(ctx, churchID, feeKindForMethod(method), dto.Amount)
		if err != nil {
			return nil, err
		}
		amount += fee
	}

	req := stripe.ChargeRequest{
		Amount:     amount,
		CustomerID: dto.CustomerID,
		Metadata:   map[string]string{"churchId": churchID},
	}
	if isBankRef(dto.PaymentMethodID) {
		req.SourceID = dto.PaymentMethodID
	} else {
		req.PaymentMethodID = dto.PaymentMethodID
	}

	result, err := s.provider.Donate(ctx, secretKey, req)
	if err != nil {
		return nil, err
	}

	record := RecordDonationDTO{
		PersonID:      dto.PersonID,
		Amount:        amount,
		Method:        method,
		MethodDetails: result.ID,
		Notes:         dto.Notes,
		Funds:         dto.Funds,
	}
	return s.Record(ctx, churchID, record)
}

// Checkout starts a hosted checkout session; the resulting donation arrives
// later through the webhook.
func (s *Service) Checkout(ctx context.Context, churchID string, dto CheckoutDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		return "", err
	}

	secretKey, err := s.gateways.LoadPrivateKey(ctx, churchID)
	if err != nil {
		return "", err
	}
	if secretKey == "" {
		return "", apperrors.ErrGatewayNotConfigured
	}

	return s.provider.CreateCheckoutSession(ctx, secretKey, dto.Amount, dto.SuccessURL, dto.CancelURL)
}

// EstimateFee computes the donor-facing fee for a gross amount, honoring the
// tenant's gateway fee overrides.
func (s *Service) EstimateFee(ctx context.Context, churchID, kind string, amount float64) (float64, error) {
	overrides, err := s.gateways.FeeOverrides(ctx, churchID, kind)
	if err != nil {
		return 0, err
	}

	return fees.Estimate(kind, amount, overrides)
}

func (s *Service) Load(ctx context.Context, churchID, id string) (*donationdm.Donation, error) {
	d, err := s.repo.Load(churchID, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load donation", err)
	}
	if d == nil {
		return nil, apperrors.ErrDonationNotFound
	}
	return d, nil
}

func (s *Service) LoadByPerson(ctx context.Context, churchID, personID string) ([]*donationdm.Donation, error) {
	donations, err := s.repo.LoadByPerson(churchID, personID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load donations", err)
	}
	return donations, nil
}

func (s *Service) LoadByBatch(ctx context.Context, churchID, batchID string) ([]*donationdm.Donation, error) {
	batch, err := s.batches.Load(churchID, batchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load batch", err)
	}
	if batch == nil {
		return nil, apperrors.ErrBatchNotFound
	}

	donations, err := s.repo.LoadByBatch(churchID, batchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load donations", err)
	}
	return donations, nil
}

func (s *Service) LoadBatches(ctx context.Context, churchID string) ([]*donationdm.DonationBatch, error) {
	batches, err := s.batches.LoadAll(churchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load batches", err)
	}
	return batches, nil
}

// BatchSummary aggregates a batch's donations by fund.
func (s *Service) BatchSummary(ctx context.Context, churchID, batchID string) ([]BatchSummaryEntry, error) {
	donations, err := s.LoadByBatch(ctx, churchID, batchID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*BatchSummaryEntry)
	order := make([]string, 0)
	for _, d := range donations {
		allocations, err := s.fundRepo.LoadByDonation(churchID, d.ID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load fund allocations", err)
		}
		for _, fd := range allocations {
			entry, ok := totals[fd.FundID]
			if !ok {
				entry = &BatchSummaryEntry{FundID: fd.FundID, FundName: fd.FundName}
				totals[fd.FundID] = entry
				order = append(order, fd.FundID)
			}
			entry.Total += fd.Amount
		}
	}

	result := make([]BatchSummaryEntry, 0, len(order))
	for _, fundID := range order {
		result = append(result, *totals[fundID])
	}
	return result, nil
}

// Summary aggregates giving over a date range by week and fund. Weeks start
// on Monday UTC, keyed by the donation date.
func (s *Service) Summary(ctx context.Context, churchID string, from, to time.Time) ([]SummaryEntry, error) {
	donations, err := s.repo.LoadByDateRange(churchID, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load donations", err)
	}

	totals := make(map[string]*SummaryEntry)
	order := make([]string, 0)
	for _, d := range donations {
		week := weekStart(d.DonationDate)
		allocations, err := s.fundRepo.LoadByDonation(churchID, d.ID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load fund allocations", err)
		}
		for _, fd := range allocations {
			key := week.Format("2006-01-02") + "/" + fd.FundID
			entry, ok := totals[key]
			if !ok {
				entry = &SummaryEntry{WeekStart: week, FundID: fd.FundID, FundName: fd.FundName}
				totals[key] = entry
				order = append(order, key)
			}
			entry.Total += fd.Amount
		}
	}

	result := make([]SummaryEntry, 0, len(order))
	for _, key := range order {
		result = append(result, *totals[key])
	}
	return result, nil
}

func weekStart(t time.Time) time.Time {
	t = t.UTC()
	days := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
}

// Delete removes a donation and its allocations. Allocations go first so a
// failure cannot orphan them.
func (s *Service) Delete(ctx context.Context, churchID, id string) error {
	d, err := s.repo.Load(churchID, id)
	if err != nil {
		return apperrors.NewInternalError("failed to load donation", err)
	}
	if d == nil {
		return apperrors.ErrDonationNotFound
	}

	if err := s.fundRepo.DeleteByDonation(churchID, id); err != nil {
		return apperrors.NewInternalError("failed to delete fund allocations", err)
	}
	if err := s.repo.Delete(churchID, id); err != nil {
		return apperrors.NewInternalError("failed to delete donation", err)
	}

	s.logger.Info("donation deleted", "donation_id", id, "church_id", churchID)
	return nil
}

func isBankRef(id string) bool {
	return len(id) >= 3 && id[:3] == "ba_"
}

func feeKindForMethod(method string) string {
	if method == donationdm.MethodACH {
		return fees.KindACH
	}
	return fees.KindCard
}
