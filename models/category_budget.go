package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryBudget caps one category's monthly spending. AlertSent is the
// idempotency guard: set once per billing period when the threshold is
// breached, cleared at period start by the reset job.
type CategoryBudget struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CategoryID     uint            `gorm:"uniqueIndex;not null"` // one-to-one with Category
	Category       Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	MonthlyLimit   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	AlertThreshold int             `gorm:"not null;default:80"` // percent of the limit, 0-100
	AlertSent      bool            `gorm:"not null;default:false"`
}
