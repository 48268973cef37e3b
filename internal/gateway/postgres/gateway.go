package postgres

import (
	"errors"
	"time"

	gatewaydm "github.com/frahmantamala/giving-api/internal/core/datamodel/gateway"
	gatewaypkg "github.com/frahmantamala/giving-api/internal/gateway"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GatewayRepository struct {
	db *gorm.DB
}

func NewGatewayRepository(db *gorm.DB) gatewaypkg.RepositoryAPI {
	return &GatewayRepository{db: db}
}

// Save dispatches on id presence: create when empty, update otherwise.
// Creation deletes sibling rows to keep one gateway per tenant; the delete
// and insert are separate statements, so concurrent creates race.
func (r *GatewayRepository) Save(gw *gatewaydm.Gateway) error {
	if gw.ID == "" {
		gw.ID = uuid.NewString()
		gw.CreatedAt = time.Now()
		gw.UpdatedAt = gw.CreatedAt
		if err := r.db.Where("church_id = ? AND id <> ?", gw.ChurchID, gw.ID).
			Delete(&gatewaydm.Gateway{}).Error; err != nil {
			return err
		}
		return r.db.Create(gw).Error
	}

	gw.UpdatedAt = time.Now()
	return r.db.Model(&gatewaydm.Gateway{}).
		Where("id = ? AND church_id = ?", gw.ID, gw.ChurchID).
		Updates(map[string]interface{}{
			"provider":        gw.Provider,
			"public_key":      gw.PublicKey,
			"private_key":     gw.PrivateKey,
			"webhook_key":     gw.WebhookKey,
			"product_id":      gw.ProductID,
			"pay_fees":        gw.PayFees,
			"fee_fixed":       gw.FeeFixed,
			"fee_percent":     gw.FeePercent,
			"ach_fee_percent": gw.ACHFeePercent,
			"ach_fee_max":     gw.ACHFeeMax,
			"updated_at":      gw.UpdatedAt,
		}).Error
}

func (r *GatewayRepository) Load(churchID, id string) (*gatewaydm.Gateway, error) {
	var gw gatewaydm.Gateway
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&gw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gw, nil
}

func (r *GatewayRepository) LoadAll(churchID string) ([]*gatewaydm.Gateway, error) {
	var gateways []*gatewaydm.Gateway
	err := r.db.Where("church_id = ?", churchID).Order("created_at").Find(&gateways).Error
	return gateways, err
}

func (r *GatewayRepository) LoadByProvider(churchID, provider string) (*gatewaydm.Gateway, error) {
	var gw gatewaydm.Gateway
	err := r.db.Where("church_id = ? AND provider = ?", churchID, provider).First(&gw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gw, nil
}

func (r *GatewayRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).Delete(&gatewaydm.Gateway{}).Error
}
