package gateway

import "time"

// Gateway is a tenant's payment-provider credential set. PrivateKey and
// WebhookKey are stored encrypted; only PublicKey ever leaves the API.
type Gateway struct {
	ID         string `gorm:"primaryKey"`
	ChurchID   string `gorm:"column:church_id;not null;index"`
	Provider   string `gorm:"column:provider;not null"`
	PublicKey  string `gorm:"column:public_key"`
	PrivateKey string `gorm:"column:private_key"`
	WebhookKey string `gorm:"column:webhook_key"`
	ProductID  string `gorm:"column:product_id"`
	PayFees    bool   `gorm:"column:pay_fees;default:false"`

	// Optional per-tenant fee schedule overrides; nil means provider default.
	FeeFixed      *float64 `gorm:"column:fee_fixed"`
	FeePercent    *float64 `gorm:"column:fee_percent"`
	ACHFeePercent *float64 `gorm:"column:ach_fee_percent"`
	ACHFeeMax     *float64 `gorm:"column:ach_fee_max"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Gateway) TableName() string {
	return "gateways"
}

const ProviderStripe = "Stripe"
