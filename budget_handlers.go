package main

import (
	"net/http"

	"spendtrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type budgetRequest struct {
	MonthlyLimit   decimal.Decimal `json:"monthly_limit"`
	AlertThreshold *int            `json:"alert_threshold"` // percent, default 80
}

// upsertBudgetHandler creates or replaces the one budget a category can have.
// A changed limit or threshold restarts alerting for the current period, and
// an immediate evaluation is dispatched so an already-breached budget alerts
// without waiting for the next expense.
func upsertBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.MonthlyLimit.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthly_limit must be positive"})
		return
	}
	threshold := 80
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}
	if threshold < 0 || threshold > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alert_threshold must be between 0 and 100"})
		return
	}

	var b models.CategoryBudget
	err := db.Where("category_id = ?", cat.ID).First(&b).Error
	if err == nil {
		b.MonthlyLimit = req.MonthlyLimit
		b.AlertThreshold = threshold
		b.AlertSent = false
		if err := db.Save(&b).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	} else {
		b = models.CategoryBudget{CategoryID: cat.ID, MonthlyLimit: req.MonthlyLimit, AlertThreshold: threshold}
		if err := db.Create(&b).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
	}
	alerts.Dispatch(cat.ID)
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "category_id": cat.ID, "monthly_limit": b.MonthlyLimit, "alert_threshold": b.AlertThreshold})
}

func getBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	var b models.CategoryBudget
	if err := db.Where("category_id = ?", cat.ID).First(&b).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func deleteBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	res := db.Where("category_id = ?", cat.ID).Delete(&models.CategoryBudget{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "budget deleted"})
}
