package postgres

import (
	"errors"
	"time"

	subscriptiondm "github.com/frahmantamala/giving-api/internal/core/datamodel/subscription"
	subscriptionpkg "github.com/frahmantamala/giving-api/internal/subscription"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) subscriptionpkg.RepositoryAPI {
	return &SubscriptionRepository{db: db}
}

// Save inserts the mirror row. The id is provider-assigned and immutable,
// and mirrors are never updated in place, only created and deleted.
func (r *SubscriptionRepository) Save(sub *subscriptiondm.Subscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	return r.db.Create(sub).Error
}

func (r *SubscriptionRepository) Load(churchID, id string) (*subscriptiondm.Subscription, error) {
	var sub subscriptiondm.Subscription
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) LoadByPerson(churchID, personID string) ([]*subscriptiondm.Subscription, error) {
	var subs []*subscriptiondm.Subscription
	err := r.db.Where("church_id = ? AND person_id = ?", churchID, personID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) LoadByCustomer(churchID, customerID string) ([]*subscriptiondm.Subscription, error) {
	var subs []*subscriptiondm.Subscription
	err := r.db.Where("church_id = ? AND customer_id = ?", churchID, customerID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).
		Delete(&subscriptiondm.Subscription{}).Error
}
