package customer

import "time"

// Customer maps a local person to a provider-side payer record. ID is the
// provider-assigned customer id; rows are created lazily on first
// payment-method addition.
type Customer struct {
	ID        string    `gorm:"primaryKey"`
	ChurchID  string    `gorm:"column:church_id;not null;index"`
	PersonID  string    `gorm:"column:person_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// PaymentMethod tracks a stored payment instrument by its provider id
// ("pm_..." cards, "ba_..." bank accounts).
type PaymentMethod struct {
	ID         string    `gorm:"primaryKey"`
	ChurchID   string    `gorm:"column:church_id;not null;index"`
	PersonID   string    `gorm:"column:person_id;index"`
	CustomerID string    `gorm:"column:customer_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
