package subscription

import "time"

// Subscription mirrors a provider-side recurring payment schedule. ID is the
// provider-assigned subscription id. The row is deleted when the plan is
// canceled, paired with the provider-side delete.
type Subscription struct {
	ID         string    `gorm:"primaryKey"`
	ChurchID   string    `gorm:"column:church_id;not null;index"`
	PersonID   string    `gorm:"column:person_id"`
	CustomerID string    `gorm:"column:customer_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionFund is the allocation template applied to every future charge a
// subscription generates. If the fund is later removed, charge-time resolution
// falls back to the tenant's General Fund.
type SubscriptionFund struct {
	ID             string    `gorm:"primaryKey"`
	ChurchID       string    `gorm:"column:church_id;not null;index"`
	SubscriptionID string    `gorm:"column:subscription_id;not null;index"`
	FundID         string    `gorm:"column:fund_id;not null"`
	Amount         float64   `gorm:"column:amount;not null"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`

	FundName    string `gorm:"-"`
	FundRemoved bool   `gorm:"-"`
}

func (SubscriptionFund) TableName() string {
	return "subscription_funds"
}
