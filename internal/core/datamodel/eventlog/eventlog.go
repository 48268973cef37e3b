package eventlog

import "time"

// EventLog records every inbound provider event. ID is the provider's
// globally unique event id and doubles as the idempotency key: a second
// delivery of the same id must be treated as a replay, never reprocessed.
type EventLog struct {
	ID         string    `gorm:"primaryKey"`
	ChurchID   string    `gorm:"column:church_id;not null;index"`
	CustomerID string    `gorm:"column:customer_id"`
	PersonID   string    `gorm:"column:person_id"`
	Provider   string    `gorm:"column:provider"`
	EventType  string    `gorm:"column:event_type"`
	Status     string    `gorm:"column:status"`
	Message    string    `gorm:"column:message"`
	Resolved   bool      `gorm:"column:resolved;default:false"`
	Created    time.Time `gorm:"column:created"`
}

func (EventLog) TableName() string {
	return "event_logs"
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
