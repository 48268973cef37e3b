package donation

import (
	"time"

	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
)

// DonationBatch groups donations by date for reporting. DonationCount and
// TotalAmount are derived at read time, never stored.
type DonationBatch struct {
	ID        string    `gorm:"primaryKey"`
	ChurchID  string    `gorm:"column:church_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	BatchDate time.Time `gorm:"column:batch_date;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	DonationCount int64   `gorm:"-"`
	TotalAmount   float64 `gorm:"-"`
}

func (DonationBatch) TableName() string {
	return "donation_batches"
}

// DefaultBatchName is used when a batch is auto-created for online donations.
const DefaultBatchName = "Online Donation"

// Donation is the ledger header row for a single gift. Amount is in major
// currency units; minor-unit conversion happens at the provider boundary.
// PersonID is nil for anonymous gifts. BatchID is frozen at creation time.
type Donation struct {
	ID            string    `gorm:"primaryKey"`
	ChurchID      string    `gorm:"column:church_id;not null;index"`
	BatchID       string    `gorm:"column:batch_id;not null"`
	PersonID      *string   `gorm:"column:person_id"`
	DonationDate  time.Time `gorm:"column:donation_date;not null"`
	Amount        float64   `gorm:"column:amount;not null"`
	Method        string    `gorm:"column:method"`
	MethodDetails string    `gorm:"column:method_details"`
	Notes         string    `gorm:"column:notes"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`

	// Populated by single-fund loads that join through fund_donations.
	Fund *funddm.Fund `gorm:"-"`
}

func (Donation) TableName() string {
	return "donations"
}

const (
	MethodCard = "Card"
	MethodACH  = "ACH"
)

// FundDonation is one allocation of a donation's amount to a fund. The sum of
// a donation's allocations should equal Donation.Amount by construction.
type FundDonation struct {
	ID         string    `gorm:"primaryKey"`
	ChurchID   string    `gorm:"column:church_id;not null;index"`
	DonationID string    `gorm:"column:donation_id;not null;index"`
	FundID     string    `gorm:"column:fund_id;not null"`
	Amount     float64   `gorm:"column:amount;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`

	Donation *Donation `gorm:"-"`
	FundName string    `gorm:"-"`
}

func (FundDonation) TableName() string {
	return "fund_donations"
}
