package models

import "time"

// Receipt is an uploaded proof-of-purchase file, one per expense.
type Receipt struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpenseID   uint    `gorm:"uniqueIndex;not null"`
	Expense     Expense `gorm:"foreignKey:ExpenseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FileName    string  `gorm:"size:255;not null"`
	StorePath   string  `gorm:"column:store_path;size:512;not null"` // path relative to the upload base
	ThumbPath   string  `gorm:"column:thumb_path;size:512"`          // empty for PDFs
	FileSize    int64   `gorm:"not null"`
	ContentType string  `gorm:"size:50;not null"`
}
