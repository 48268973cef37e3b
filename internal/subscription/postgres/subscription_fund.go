package postgres

import (
	"time"

	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	subscriptiondm "github.com/frahmantamala/giving-api/internal/core/datamodel/subscription"
	subscriptionpkg "github.com/frahmantamala/giving-api/internal/subscription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionFundRepository struct {
	db *gorm.DB
}

func NewSubscriptionFundRepository(db *gorm.DB) subscriptionpkg.FundRepositoryAPI {
	return &SubscriptionFundRepository{db: db}
}

func (r *SubscriptionFundRepository) Save(sf *subscriptiondm.SubscriptionFund) error {
	if sf.ID == "" {
		sf.ID = uuid.NewString()
		sf.CreatedAt = time.Now()
		sf.UpdatedAt = sf.CreatedAt
		return r.db.Create(sf).Error
	}

	sf.UpdatedAt = time.Now()
	return r.db.Model(&subscriptiondm.SubscriptionFund{}).
		Where("id = ? AND church_id = ?", sf.ID, sf.ChurchID).
		Updates(map[string]interface{}{
			"fund_id":    sf.FundID,
			"amount":     sf.Amount,
			"updated_at": sf.UpdatedAt,
		}).Error
}

// LoadBySubscription returns the allocation template with each fund's name
// and removed flag resolved, so charge-time resolution can redirect removed
// funds without extra queries.
func (r *SubscriptionFundRepository) LoadBySubscription(churchID, subscriptionID string) ([]*subscriptiondm.SubscriptionFund, error) {
	var template []*subscriptiondm.SubscriptionFund
	err := r.db.Where("church_id = ? AND subscription_id = ?", churchID, subscriptionID).
		Order("created_at").
		Find(&template).Error
	if err != nil {
		return nil, err
	}
	r.attachFunds(churchID, template)
	return template, nil
}

func (r *SubscriptionFundRepository) DeleteBySubscription(churchID, subscriptionID string) error {
	return r.db.Where("church_id = ? AND subscription_id = ?", churchID, subscriptionID).
		Delete(&subscriptiondm.SubscriptionFund{}).Error
}

func (r *SubscriptionFundRepository) attachFunds(churchID string, template []*subscriptiondm.SubscriptionFund) {
	if len(template) == 0 {
		return
	}

	fundIDs := make([]string, 0, len(template))
	for _, sf := range template {
		fundIDs = append(fundIDs, sf.FundID)
	}

	var funds []*funddm.Fund
	if err := r.db.Where("church_id = ? AND id IN ?", churchID, fundIDs).Find(&funds).Error; err != nil {
		return
	}

	byID := make(map[string]*funddm.Fund, len(funds))
	for _, f := range funds {
		byID[f.ID] = f
	}
	for _, sf := range template {
		if f, ok := byID[sf.FundID]; ok {
			sf.FundName = f.Name
			sf.FundRemoved = f.Removed
		} else {
			// No fund row at all is treated like a removed fund.
			sf.FundRemoved = true
		}
	}
}
