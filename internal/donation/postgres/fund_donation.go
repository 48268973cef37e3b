package postgres

import (
	"time"

	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	donationpkg "github.com/frahmantamala/giving-api/internal/donation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FundDonationRepository struct {
	db *gorm.DB
}

func NewFundDonationRepository(db *gorm.DB) donationpkg.FundDonationRepositoryAPI {
	return &FundDonationRepository{db: db}
}

func (r *FundDonationRepository) Save(fd *donationdm.FundDonation) error {
	if fd.ID == "" {
		fd.ID = uuid.NewString()
		fd.CreatedAt = time.Now()
		fd.UpdatedAt = fd.CreatedAt
		return r.db.Create(fd).Error
	}

	fd.UpdatedAt = time.Now()
	return r.db.Model(&donationdm.FundDonation{}).
		Where("id = ? AND church_id = ?", fd.ID, fd.ChurchID).
		Updates(map[string]interface{}{
			"fund_id":    fd.FundID,
			"amount":     fd.Amount,
			"updated_at": fd.UpdatedAt,
		}).Error
}

// LoadByDonation returns a donation's allocations with fund names resolved.
func (r *FundDonationRepository) LoadByDonation(churchID, donationID string) ([]*donationdm.FundDonation, error) {
	var allocations []*donationdm.FundDonation
	err := r.db.Where("church_id = ? AND donation_id = ?", churchID, donationID).
		Order("created_at").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	r.attachFundNames(churchID, allocations)
	return allocations, nil
}

func (r *FundDonationRepository) LoadByFund(churchID, fundID string) ([]*donationdm.FundDonation, error) {
	var allocations []*donationdm.FundDonation
	err := r.db.Where("church_id = ? AND fund_id = ?", churchID, fundID).
		Order("created_at").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	r.attachFundNames(churchID, allocations)
	return allocations, nil
}

func (r *FundDonationRepository) DeleteByDonation(churchID, donationID string) error {
	return r.db.Where("church_id = ? AND donation_id = ?", churchID, donationID).
		Delete(&donationdm.FundDonation{}).Error
}

func (r *FundDonationRepository) attachFundNames(churchID string, allocations []*donationdm.FundDonation) {
	if len(allocations) == 0 {
		return
	}

	fundIDs := make([]string, 0, len(allocations))
	for _, fd := range allocations {
		fundIDs = append(fundIDs, fd.FundID)
	}

	var funds []*funddm.Fund
	if err := r.db.Where("church_id = ? AND id IN ?", churchID, fundIDs).Find(&funds).Error; err != nil {
		return
	}

	names := make(map[string]string, len(funds))
	for _, f := range funds {
		names[f.ID] = f.Name
	}
	for _, fd := range allocations {
		fd.FundName = names[fd.FundID]
	}
}
