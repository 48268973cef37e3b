package postgres

import (
	"errors"
	"time"

	eventlogdm "github.com/frahmantamala/giving-api/internal/core/datamodel/eventlog"
	webhookpkg "github.com/frahmantamala/giving-api/internal/webhook"
	"gorm.io/gorm"
)

type EventLogRepository struct {
	db *gorm.DB
}

func NewEventLogRepository(db *gorm.DB) webhookpkg.EventLogRepositoryAPI {
	return &EventLogRepository{db: db}
}

// Save upserts on the provider event id. The id comes from the provider, so
// create-vs-update is decided by row existence, not id presence.
func (r *EventLogRepository) Save(log *eventlogdm.EventLog) error {
	existing, err := r.Load(log.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		if log.Created.IsZero() {
			log.Created = time.Now()
		}
		return r.db.Create(log).Error
	}

	return r.db.Model(&eventlogdm.EventLog{}).
		Where("id = ?", log.ID).
		Updates(map[string]interface{}{
			"status":   log.Status,
			"message":  log.Message,
			"resolved": log.Resolved,
		}).Error
}

func (r *EventLogRepository) Load(id string) (*eventlogdm.EventLog, error) {
	var log eventlogdm.EventLog
	err := r.db.Where("id = ?", id).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *EventLogRepository) LoadByChurch(churchID string) ([]*eventlogdm.EventLog, error) {
	var logs []*eventlogdm.EventLog
	err := r.db.Where("church_id = ?", churchID).
		Order("created DESC").
		Find(&logs).Error
	return logs, err
}

func (r *EventLogRepository) LoadUnresolvedFailures(churchID string) ([]*eventlogdm.EventLog, error) {
	var logs []*eventlogdm.EventLog
	err := r.db.Where("church_id = ? AND status = ? AND resolved = ?",
		churchID, eventlogdm.StatusFailed, false).
		Order("created DESC").
		Find(&logs).Error
	return logs, err
}

func (r *EventLogRepository) Resolve(churchID, id string) error {
	return r.db.Model(&eventlogdm.EventLog{}).
		Where("id = ? AND church_id = ?", id, churchID).
		Update("resolved", true).Error
}
