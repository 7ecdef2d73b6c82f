package models

import (
	"time"
)

// User model. Email is the login identifier.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Email          string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	FullName       string     `gorm:"size:100"`
	Active         bool       `gorm:"default:true;not null"`
	Expenses       []Expense
	Categories     []Category
	RoleID         *uint `gorm:"index"`
	Role           Role  `gorm:"foreignKey:RoleID;references:ID"`
}

// DisplayName is used in outgoing mail; falls back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
