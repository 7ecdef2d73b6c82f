package main

import (
	"errors"

	"spendtrack/models"
	"spendtrack/pkg/budget"

	"gorm.io/gorm"
)

// gormDirectory resolves categories and their owners for the alert evaluator.
type gormDirectory struct {
	db *gorm.DB
}

func (d *gormDirectory) CategoryByID(id uint) (*budget.CategoryInfo, error) {
	var cat models.Category
	err := d.db.Preload("User").First(&cat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &budget.CategoryInfo{
		ID:         cat.ID,
		Name:       cat.Name,
		OwnerID:    cat.UserID,
		OwnerName:  cat.User.DisplayName(),
		OwnerEmail: cat.User.Email,
	}, nil
}

// gormBudgetStore implements budget.Store on the category_budgets table.
type gormBudgetStore struct {
	db *gorm.DB
}

func (s *gormBudgetStore) ByCategory(categoryID uint) (*models.CategoryBudget, error) {
	var b models.CategoryBudget
	err := s.db.Where("category_id = ?", categoryID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MarkAlertSent flips the flag only when it is still clear. The conditional
// UPDATE makes the check-and-set atomic even across processes; RowsAffected
// tells the caller whether this evaluation won.
func (s *gormBudgetStore) MarkAlertSent(budgetID uint) (bool, error) {
	res := s.db.Model(&models.CategoryBudget{}).
		Where("id = ? AND alert_sent = false", budgetID).
		Update("alert_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormBudgetStore) ClearAlert(budgetID uint) error {
	return s.db.Model(&models.CategoryBudget{}).
		Where("id = ?", budgetID).
		Update("alert_sent", false).Error
}

func (s *gormBudgetStore) All() ([]models.CategoryBudget, error) {
	var budgets []models.CategoryBudget
	if err := s.db.Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}
