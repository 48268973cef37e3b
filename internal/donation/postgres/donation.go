package postgres

import (
	"errors"
	"time"

	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	donationpkg "github.com/frahmantamala/giving-api/internal/donation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) donationpkg.RepositoryAPI {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Save(donation *donationdm.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
		donation.CreatedAt = time.Now()
		donation.UpdatedAt = donation.CreatedAt
		return r.db.Create(donation).Error
	}

	donation.UpdatedAt = time.Now()
	return r.db.Model(&donationdm.Donation{}).
		Where("id = ? AND church_id = ?", donation.ID, donation.ChurchID).
		Updates(map[string]interface{}{
			"batch_id":       donation.BatchID,
			"person_id":      donation.PersonID,
			"donation_date":  donation.DonationDate,
			"amount":         donation.Amount,
			"method":         donation.Method,
			"method_details": donation.MethodDetails,
			"notes":          donation.Notes,
			"updated_at":     donation.UpdatedAt,
		}).Error
}

func (r *DonationRepository) Load(churchID, id string) (*donationdm.Donation, error) {
	var donation donationdm.Donation
	err := r.db.Where("id = ? AND church_id = ?", id, churchID).First(&donation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *DonationRepository) LoadByPerson(churchID, personID string) ([]*donationdm.Donation, error) {
	var donations []*donationdm.Donation
	err := r.db.Where("church_id = ? AND person_id = ?", churchID, personID).
		Order("donation_date DESC").
		Find(&donations).Error
	return donations, err
}

func (r *DonationRepository) LoadByBatch(churchID, batchID string) ([]*donationdm.Donation, error) {
	var donations []*donationdm.Donation
	err := r.db.Where("church_id = ? AND batch_id = ?", churchID, batchID).
		Order("donation_date DESC").
		Find(&donations).Error
	return donations, err
}

func (r *DonationRepository) LoadByDateRange(churchID string, from, to time.Time) ([]*donationdm.Donation, error) {
	var donations []*donationdm.Donation
	err := r.db.Where("church_id = ? AND donation_date >= ? AND donation_date <= ?", churchID, from, to).
		Order("donation_date DESC").
		Find(&donations).Error
	return donations, err
}

func (r *DonationRepository) Delete(churchID, id string) error {
	return r.db.Where("id = ? AND church_id = ?", id, churchID).
		Delete(&donationdm.Donation{}).Error
}
