package postgres

import (
	"errors"
	"time"

	customerdm "github.com/frahmantamala/giving-api/internal/core/datamodel/customer"
	paymentmethodpkg "github.com/frahmantamala/giving-api/internal/paymentmethod"
	"gorm.io/gorm"
)

type PaymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) paymentmethodpkg.RepositoryAPI {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) Save(pm *customerdm.PaymentMethod) error {
	if pm.CreatedAt.IsZero() {
		pm.CreatedAt = time.Now()
	}
	return r.db.Create(pm).Error
}

func (r *PaymentMethodRepository) Load(churchID, id string) (*customerdm.PaymentMethod, error) {
	var pm customerdm.PaymentMethod
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&pm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *PaymentMethodRepository) LoadByPerson(churchID, personID string) ([]*customerdm.PaymentMethod, error) {
	var methods []*customerdm.PaymentMethod
	err := r.db.Where("church_id = ? AND person_id = ?", churchID, personID).
		Order("created_at").
		Find(&methods).Error
	return methods, err
}

func (r *PaymentMethodRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).
		Delete(&customerdm.PaymentMethod{}).Error
}
