package postgres

import (
	"errors"
	"time"

	customerdm "github.com/frahmantamala/giving-api/internal/core/datamodel/customer"
	paymentmethodpkg "github.com/frahmantamala/giving-api/internal/paymentmethod"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) paymentmethodpkg.CustomerRepositoryAPI {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Save(c *customerdm.Customer) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return r.db.Create(c).Error
}

func (r *CustomerRepository) Load(churchID, id string) (*customerdm.Customer, error) {
	var c customerdm.Customer
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) LoadByPerson(churchID, personID string) (*customerdm.Customer, error) {
	var c customerdm.Customer
	err := r.db.Where("church_id = ? AND person_id = ?", churchID, personID).
		Order("created_at").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).
		Delete(&customerdm.Customer{}).Error
}
