package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	DonationRecordedEventType     = "giving.donation.recorded"
	SubscriptionCreatedEventType  = "giving.subscription.created"
	SubscriptionCanceledEventType = "giving.subscription.canceled"
	EventLogFailureEventType      = "giving.eventlog.failure"
)

// NewDonationRecordedEvent is published after a donation and its allocations
// are persisted. Subscribers (receipt email, reporting) are best-effort.
func NewDonationRecordedEvent(donationID, churchID string, personID *string, amount float64, method string) BaseEvent {
	data := map[string]interface{}{
		"donation_id": donationID,
		"church_id":   churchID,
		"amount":      amount,
		"method":      method,
	}
	if personID != nil {
		data["person_id"] = *personID
	}
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      DonationRecordedEventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewSubscriptionCreatedEvent(subscriptionID, churchID, personID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      SubscriptionCreatedEventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"subscription_id": subscriptionID,
			"church_id":       churchID,
			"person_id":       personID,
		},
	}
}

func NewSubscriptionCanceledEvent(subscriptionID, churchID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      SubscriptionCanceledEventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"subscription_id": subscriptionID,
			"church_id":       churchID,
		},
	}
}

// NewEventLogFailureEvent flags a provider event recorded with a failure
// status (failed or disputed charge) for manual follow-up.
func NewEventLogFailureEvent(eventLogID, churchID, eventType, message string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventLogFailureEventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"event_log_id": eventLogID,
			"church_id":    churchID,
			"event_type":   eventType,
			"message":      message,
		},
	}
}
