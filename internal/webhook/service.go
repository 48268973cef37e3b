package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	apperrors "github.com/frahmantamala/giving-api/internal"
	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	eventlogdm "github.com/frahmantamala/giving-api/internal/core/datamodel/eventlog"
	"github.com/frahmantamala/giving-api/internal/core/events"
	"github.com/frahmantamala/giving-api/internal/donation"
)

// Provider event types the service acts on. Everything else is acknowledged
// and ignored.
const (
	EventChargeSucceeded     = "charge.succeeded"
	EventInvoicePaid         = "invoice.paid"
	EventChargeFailed        = "charge.failed"
	EventChargeDisputed      = "charge.dispute.created"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

type Service struct {
	verifier      VerifierAPI
	eventLogs     EventLogRepositoryAPI
	gateways      GatewayAPI
	donations     DonationRecorderAPI
	subscriptions SubscriptionSyncAPI
	customers     CustomerLookupAPI
	bus           *events.EventBus
	logger        *slog.Logger
}

func NewService(
	verifier VerifierAPI,
	eventLogs EventLogRepositoryAPI,
	gateways GatewayAPI,
	donations DonationRecorderAPI,
	subscriptions SubscriptionSyncAPI,
	customers CustomerLookupAPI,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		verifier:      verifier,
		eventLogs:     eventLogs,
		gateways:      gateways,
		donations:     donations,
		subscriptions: subscriptions,
		customers:     customers,
		bus:           bus,
		logger:        logger,
	}
}

// chargeObject is the slice of a provider charge the service reads. Amounts
// arrive in minor units.
type chargeObject struct {
	ID                   string            `json:"id"`
	Customer             string            `json:"customer"`
	Invoice              string            `json:"invoice"`
	Amount               int64             `json:"amount"`
	Metadata             map[string]string `json:"metadata"`
	FailureMessage       string            `json:"failure_message"`
	PaymentMethodDetails struct {
		Type string `json:"type"`
	} `json:"payment_method_details"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

type disputeObject struct {
	ID     string `json:"id"`
	Charge string `json:"charge"`
	Reason string `json:"reason"`
}

// HandleEvent verifies, deduplicates and processes one provider delivery.
// The event log row is written before any side effect, so a crash mid-way
// surfaces as a logged event without a donation rather than a double charge
// on redelivery.
func (s *Service) HandleEvent(ctx context.Context, provider, churchID string, payload []byte, sigHeader string) error {
	secret, err := s.gateways.LoadWebhookSecret(ctx, churchID, provider)
	if err != nil {
		return err
	}
	if secret == "" {
		return apperrors.ErrGatewayNotConfigured
	}

	event, err := s.verifier.Verify(payload, sigHeader, secret)
	if err != nil {
		return err
	}

	existing, err := s.eventLogs.Load(event.ID)
	if err != nil {
		return apperrors.NewInternalError("failed to load event log", err)
	}
	if existing != nil {
		s.logger.Info("duplicate event delivery ignored",
			"event_id", event.ID, "event_type", event.Type, "church_id", churchID)
		return nil
	}

	logEntry := &eventlogdm.EventLog{
		ID:        event.ID,
		ChurchID:  churchID,
		Provider:  provider,
		EventType: event.Type,
		Status:    eventlogdm.StatusSuccess,
		Created:   time.Now().UTC(),
	}
	s.enrich(ctx, logEntry, event)

	if event.Type == EventChargeFailed || event.Type == EventChargeDisputed {
		logEntry.Status = eventlogdm.StatusFailed
	}

	if err := s.eventLogs.Save(logEntry); err != nil {
		return apperrors.NewInternalError("failed to save event log", err)
	}

	var dispatchErr error
	switch event.Type {
	case EventChargeSucceeded:
		dispatchErr = s.handleChargeSucceeded(ctx, churchID, logEntry, event)
	case EventInvoicePaid:
		dispatchErr = s.handleInvoicePaid(ctx, churchID, logEntry, event)
	case EventSubscriptionDeleted:
		dispatchErr = s.handleSubscriptionDeleted(ctx, churchID, event)
	case EventChargeFailed, EventChargeDisputed:
		dispatchErr = s.handleFailure(ctx, churchID, logEntry, event)
	default:
		s.logger.Debug("event type not handled", "event_id", event.ID, "event_type", event.Type)
		return nil
	}

	// The log row was written optimistically as success. A dispatch failure
	// must flip it to failed, or redelivery dedup would bury the event with
	// no trace on the failures endpoint.
	if dispatchErr != nil {
		logEntry.Status = eventlogdm.StatusFailed
		logEntry.Message = dispatchErr.Error()
		if err := s.eventLogs.Save(logEntry); err != nil {
			s.logger.Error("failed to mark event log failed",
				"event_id", event.ID, "error", err)
		}
	}
	return dispatchErr
}

// enrich pulls customer and person ids off the payload for the event log.
// Best effort: a payload shape we do not recognize still gets logged.
func (s *Service) enrich(ctx context.Context, logEntry *eventlogdm.EventLog, event *VerifiedEvent) {
	var obj struct {
		Customer string            `json:"customer"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := event.DecodeObject(&obj); err != nil {
		return
	}

	logEntry.CustomerID = obj.Customer
	if personID := obj.Metadata["personId"]; personID != "" {
		logEntry.PersonID = personID
	} else if obj.Customer != "" && s.customers != nil {
		if personID, err := s.customers.LookupPerson(ctx, logEntry.ChurchID, obj.Customer); err == nil {
			logEntry.PersonID = personID
		}
	}
}

// handleChargeSucceeded records a one-time gift. Fund allocations travel in
// the charge metadata as a JSON array; absent or malformed metadata falls
// back to the General Fund via the recorder.
func (s *Service) handleChargeSucceeded(ctx context.Context, churchID string, logEntry *eventlogdm.EventLog, event *VerifiedEvent) error {
	var charge chargeObject
	if err := event.DecodeObject(&charge); err != nil {
		return apperrors.NewValidationError("malformed charge object", apperrors.ErrCodeValidationFailed).WithCause(err)
	}

	// Recurring charges also emit charge.succeeded; the paired invoice.paid
	// event carries the subscription allocations, so skip those here. The
	// top-level invoice field is the provider's own marker; the metadata keys
	// cover charges tagged by older endpoint registrations.
	if charge.Invoice != "" || charge.Metadata["subscription"] == "true" || charge.Metadata["invoiceId"] != "" {
		return nil
	}

	amount := fromMinorUnits(charge.Amount)
	method := donationdm.MethodCard
	if charge.PaymentMethodDetails.Type == "ach_debit" {
		method = donationdm.MethodACH
	}

	var personID *string
	if logEntry.PersonID != "" {
		p := logEntry.PersonID
		personID = &p
	}

	dto := donation.RecordDonationDTO{
		PersonID:      personID,
		Amount:        amount,
		Method:        method,
		MethodDetails: charge.ID,
		Funds:         parseFundsMetadata(charge.Metadata["funds"]),
	}

	if _, err := s.donations.Record(ctx, churchID, dto); err != nil {
		s.logger.Error("failed to record donation for charge",
			"event_id", event.ID, "charge_id", charge.ID, "error", err)
		return err
	}
	return nil
}

// handleInvoicePaid records a recurring gift using the subscription's
// allocation template.
func (s *Service) handleInvoicePaid(ctx context.Context, churchID string, logEntry *eventlogdm.EventLog, event *VerifiedEvent) error {
	var invoice invoiceObject
	if err := event.DecodeObject(&invoice); err != nil {
		return apperrors.NewValidationError("malformed invoice object", apperrors.ErrCodeValidationFailed).WithCause(err)
	}
	if invoice.Subscription == "" {
		return nil
	}

	amount := fromMinorUnits(invoice.AmountPaid)
	allocations, err := s.subscriptions.ResolveAllocationsForCharge(ctx, churchID, invoice.Subscription, amount)
	if err != nil {
		s.logger.Error("failed to resolve subscription allocations",
			"event_id", event.ID, "subscription_id", invoice.Subscription, "error", err)
		return err
	}

	var personID *string
	if logEntry.PersonID != "" {
		p := logEntry.PersonID
		personID = &p
	}

	dto := donation.RecordDonationDTO{
		PersonID:      personID,
		Amount:        amount,
		Method:        donationdm.MethodCard,
		MethodDetails: invoice.ID,
		Notes:         "Recurring donation",
		Funds:         allocations,
	}

	if _, err := s.donations.Record(ctx, churchID, dto); err != nil {
		s.logger.Error("failed to record recurring donation",
			"event_id", event.ID, "invoice_id", invoice.ID, "error", err)
		return err
	}
	return nil
}

// handleSubscriptionDeleted tears down the local mirror of a provider-side
// cancellation. A subscription we never knew about is a no-op.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, churchID string, event *VerifiedEvent) error {
	var sub subscriptionObject
	if err := event.DecodeObject(&sub); err != nil {
		return apperrors.NewValidationError("malformed subscription object", apperrors.ErrCodeValidationFailed).WithCause(err)
	}

	if err := s.subscriptions.CancelLocal(ctx, churchID, sub.ID); err != nil {
		s.logger.Error("failed to cancel local subscription",
			"event_id", event.ID, "subscription_id", sub.ID, "error", err)
		return err
	}
	return nil
}

// handleFailure annotates the already-written log row and flags it for
// follow-up.
func (s *Service) handleFailure(ctx context.Context, churchID string, logEntry *eventlogdm.EventLog, event *VerifiedEvent) error {
	message := ""
	switch event.Type {
	case EventChargeFailed:
		var charge chargeObject
		if err := event.DecodeObject(&charge); err == nil {
			message = charge.FailureMessage
		}
	case EventChargeDisputed:
		var dispute disputeObject
		if err := event.DecodeObject(&dispute); err == nil {
			message = dispute.Reason
		}
	}

	if message != "" {
		logEntry.Message = message
		if err := s.eventLogs.Save(logEntry); err != nil {
			return apperrors.NewInternalError("failed to update event log", err)
		}
	}

	s.logger.Warn("provider reported payment failure",
		"event_id", event.ID, "event_type", event.Type, "church_id", churchID, "message", message)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewEventLogFailureEvent(logEntry.ID, churchID, event.Type, message))
	}
	return nil
}

// Failures lists unresolved failure events for the tenant.
func (s *Service) Failures(ctx context.Context, churchID string) ([]*eventlogdm.EventLog, error) {
	logs, err := s.eventLogs.LoadUnresolvedFailures(churchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load event logs", err)
	}
	return logs, nil
}

// Resolve marks a failure event as handled.
func (s *Service) Resolve(ctx context.Context, churchID, id string) error {
	if err := s.eventLogs.Resolve(churchID, id); err != nil {
		return apperrors.NewInternalError("failed to resolve event log", err)
	}
	return nil
}

// parseFundsMetadata decodes the "funds" metadata entry, a JSON array of
// fund id and amount pairs. Anything unparseable yields nil, which the
// recorder treats as a full General Fund allocation.
func parseFundsMetadata(raw string) []donation.FundAllocationDTO {
	if raw == "" {
		return nil
	}

	var entries []struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}

	allocations := make([]donation.FundAllocationDTO, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Amount <= 0 {
			continue
		}
		allocations = append(allocations, donation.FundAllocationDTO{FundID: e.ID, Amount: e.Amount})
	}
	if len(allocations) == 0 {
		return nil
	}
	return allocations
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
