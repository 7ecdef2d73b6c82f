package models

import "time"

// Category groups a user's expenses. Name is unique per owner.
type Category struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint   `gorm:"index;not null;uniqueIndex:idx_user_category_name"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name        string `gorm:"size:50;not null;uniqueIndex:idx_user_category_name"`
	Description string `gorm:"size:500"`
	ColorCode   string `gorm:"size:7"` // e.g. #AABBCC
	Budget      *CategoryBudget
}
