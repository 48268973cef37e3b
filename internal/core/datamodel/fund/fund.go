package fund

import "time"

// Fund is a named bucket donations are allocated to. Funds are never hard
// deleted because historical fund donations reference them by id.
type Fund struct {
	ID            string    `gorm:"primaryKey"`
	ChurchID      string    `gorm:"column:church_id;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	TaxDeductible bool      `gorm:"column:tax_deductible;default:true"`
	ProductID     string    `gorm:"column:product_id"`
	Removed       bool      `gorm:"column:removed;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (Fund) TableName() string {
	return "funds"
}

// GeneralFundName is the canonical default fund every tenant gets on first use.
const GeneralFundName = "General Fund"
