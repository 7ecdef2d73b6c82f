package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted on an expense.
const (
	PaymentCash       = "CASH"
	PaymentCard       = "CARD"
	PaymentUPI        = "UPI"
	PaymentNetBanking = "NET_BANKING"
	PaymentOther      = "OTHER"
)

// Expense is a single spending record. Records are never physically removed;
// Deleted marks them out of every query and aggregation.
type Expense struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	UserID        uint      `gorm:"index:idx_expense_user_date;not null"`
	User          User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CategoryID    *uint     `gorm:"index"` // nullable: uncategorized when absent
	Category      *Category `gorm:"foreignKey:CategoryID;references:ID"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Description   string          `gorm:"size:500"`
	Date          time.Time       `gorm:"type:date;index:idx_expense_user_date;not null"`
	PaymentMethod string          `gorm:"size:20"`
	Notes         string          `gorm:"size:500"`
	Deleted       bool            `gorm:"default:false;not null;index"`
}

// ValidPaymentMethod reports whether m is one of the accepted enum values.
// Empty is allowed (method unspecified).
func ValidPaymentMethod(m string) bool {
	switch m {
	case "", PaymentCash, PaymentCard, PaymentUPI, PaymentNetBanking, PaymentOther:
		return true
	}
	return false
}
