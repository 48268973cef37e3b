package postgres

import (
	"errors"
	"time"

	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	fundpkg "github.com/frahmantamala/giving-api/internal/fund"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FundRepository struct {
	db *gorm.DB
}

func NewFundRepository(db *gorm.DB) fundpkg.RepositoryAPI {
	return &FundRepository{db: db}
}

// Save creates when the id is empty and updates otherwise.
func (r *FundRepository) Save(fund *funddm.Fund) error {
	if fund.ID == "" {
		fund.ID = uuid.NewString()
		fund.CreatedAt = time.Now()
		fund.UpdatedAt = fund.CreatedAt
		return r.db.Create(fund).Error
	}

	fund.UpdatedAt = time.Now()
	return r.db.Model(&funddm.Fund{}).
		Where("id = ? AND church_id = ?", fund.ID, fund.ChurchID).
		Updates(map[string]interface{}{
			"name":           fund.Name,
			"tax_deductible": fund.TaxDeductible,
			"product_id":     fund.ProductID,
			"updated_at":     fund.UpdatedAt,
		}).Error
}

func (r *FundRepository) Load(churchID, id string) (*funddm.Fund, error) {
	var fund funddm.Fund
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&fund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fund, nil
}

// LoadByName resolves a visible fund by exact name, skipping removed rows.
func (r *FundRepository) LoadByName(churchID, name string) (*funddm.Fund, error) {
	var fund funddm.Fund
	err := r.db.Where("church_id = ? AND name = ? AND removed = ?", churchID, name, false).
		Order("created_at").
		First(&fund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fund, nil
}

func (r *FundRepository) LoadAll(churchID string) ([]*funddm.Fund, error) {
	var funds []*funddm.Fund
	err := r.db.Where("church_id = ? AND removed = ?", churchID, false).
		Order("name").
		Find(&funds).Error
	return funds, err
}

func (r *FundRepository) MarkRemoved(churchID, id string) error {
	return r.db.Model(&funddm.Fund{}).
		Where("id = ? AND church_id = ?", id, churchID).
		Updates(map[string]interface{}{
			"removed":    true,
			"updated_at": time.Now(),
		}).Error
}
