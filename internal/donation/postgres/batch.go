package postgres

import (
	"errors"
	"time"

	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	donationpkg "github.com/frahmantamala/giving-api/internal/donation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) donationpkg.BatchRepositoryAPI {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Save(batch *donationdm.DonationBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
		batch.CreatedAt = time.Now()
		batch.UpdatedAt = batch.CreatedAt
		return r.db.Create(batch).Error
	}

	batch.UpdatedAt = time.Now()
	return r.db.Model(&donationdm.DonationBatch{}).
		Where("id = ? AND church_id = ?", batch.ID, batch.ChurchID).
		Updates(map[string]interface{}{
			"name":       batch.Name,
			"batch_date": batch.BatchDate,
			"updated_at": batch.UpdatedAt,
		}).Error
}

func (r *BatchRepository) Load(churchID, id string) (*donationdm.DonationBatch, error) {
	var batch donationdm.DonationBatch
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.attachTotals(&batch)
	return &batch, nil
}

// LoadCurrent returns the batch with the latest batch date, or nil.
func (r *BatchRepository) LoadCurrent(churchID string) (*donationdm.DonationBatch, error) {
	var batch donationdm.DonationBatch
	err := r.db.Where("church_id = ?", churchID).
		Order("batch_date DESC").
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *BatchRepository) LoadAll(churchID string) ([]*donationdm.DonationBatch, error) {
	var batches []*donationdm.DonationBatch
	err := r.db.Where("church_id = ?", churchID).
		Order("batch_date DESC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	for _, batch := range batches {
		r.attachTotals(batch)
	}
	return batches, nil
}

func (r *BatchRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).
		Delete(&donationdm.DonationBatch{}).Error
}

// attachTotals fills the derived count and total columns. Aggregation errors
// leave the zero values in place rather than failing the load.
func (r *BatchRepository) attachTotals(batch *donationdm.DonationBatch) {
	type totals struct {
		Count int64
		Sum   float64
	}
	var t totals
	err := r.db.Model(&donationdm.Donation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS sum").
		Where("batch_id = ? AND church_id = ?", batch.ID, batch.ChurchID).
		Scan(&t).Error
	if err != nil {
		return
	}
	batch.DonationCount = t.Count
	batch.TotalAmount = t.Sum
}
