package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"spendtrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type expenseRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    *uint           `json:"category_id"`
	Description   string          `json:"description"`
	Date          string          `json:"date"` // YYYY-MM-DD
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
}

// validate checks the write-side rules shared by create and update and
// resolves the date string. Category ownership is checked separately.
func (r *expenseRequest) validate() (time.Time, error) {
	if !r.Amount.IsPositive() {
		return time.Time{}, fmt.Errorf("amount must be positive")
	}
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return time.Time{}, fmt.Errorf("amount must have at most 2 decimal places")
	}
	d, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return time.Time{}, fmt.Errorf("date cannot be in the future")
	}
	if !models.ValidPaymentMethod(r.PaymentMethod) {
		return time.Time{}, fmt.Errorf("invalid payment method")
	}
	return d, nil
}

// ownedCategory verifies the category exists and belongs to ownerID.
func ownedCategory(ownerID, categoryID uint) (*models.Category, error) {
	var cat models.Category
	if err := db.Where("id = ? AND user_id = ?", categoryID, ownerID).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func createExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := req.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CategoryID != nil {
		if _, err := ownedCategory(user.ID, *req.CategoryID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category not found"})
			return
		}
	}
	exp := models.Expense{
		UserID:        user.ID,
		CategoryID:    req.CategoryID,
		Amount:        req.Amount,
		Description:   req.Description,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if err := db.Create(&exp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	analyticsCache.Clear()
	if exp.CategoryID != nil {
		alerts.Dispatch(*exp.CategoryID)
	}
	c.JSON(http.StatusOK, gin.H{"id": exp.ID})
}

// listExpensesHandler supports filtering by category, date range and amount
// range, plus pagination and sorting. Soft-deleted rows never appear.
func listExpensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.Expense{}).Where("user_id = ? AND deleted = false", user.ID)

	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		q = q.Where("category_id = ?", uint(id))
	}
	if v := c.Query("from"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		q = q.Where("date >= ?", d)
	}
	if v := c.Query("to"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		q = q.Where("date <= ?", d)
	}
	if v := c.Query("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_amount"})
			return
		}
		q = q.Where("amount >= ?", d)
	}
	if v := c.Query("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_amount"})
			return
		}
		q = q.Where("amount <= ?", d)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	sortField := c.DefaultQuery("sort", "date")
	switch sortField {
	case "date", "amount", "created_at":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort field"})
		return
	}
	dir := c.DefaultQuery("dir", "desc")
	if dir != "asc" && dir != "desc" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort direction"})
		return
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var items []models.Expense
	err := q.Preload("Category").
		Order(sortField + " " + dir).Order("id desc").
		Offset((page - 1) * size).Limit(size).
		Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "page": page, "size": size, "total": total})
}

// ownedExpense loads a non-deleted expense belonging to the user, from the :id param.
func ownedExpense(c *gin.Context, user *models.User) (*models.Expense, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return nil, false
	}
	var exp models.Expense
	if err := db.Where("id = ? AND user_id = ? AND deleted = false", uint(id), user.ID).First(&exp).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return nil, false
	}
	return &exp, true
}

func getExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	exp, ok := ownedExpense(c, user)
	if !ok {
		return
	}
	if exp.CategoryID != nil {
		db.Preload("Category").First(exp, exp.ID)
	}
	c.JSON(http.StatusOK, exp)
}

func updateExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	exp, ok := ownedExpense(c, user)
	if !ok {
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := req.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CategoryID != nil {
		if _, err := ownedCategory(user.ID, *req.CategoryID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category not found"})
			return
		}
	}
	oldCategory := exp.CategoryID
	exp.Amount = req.Amount
	exp.CategoryID = req.CategoryID
	exp.Description = req.Description
	exp.Date = date
	exp.PaymentMethod = req.PaymentMethod
	exp.Notes = req.Notes
	if err := db.Save(exp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	analyticsCache.Clear()
	// re-evaluate both sides of a category move
	if exp.CategoryID != nil {
		alerts.Dispatch(*exp.CategoryID)
	}
	if oldCategory != nil && (exp.CategoryID == nil || *oldCategory != *exp.CategoryID) {
		alerts.Dispatch(*oldCategory)
	}
	c.JSON(http.StatusOK, gin.H{"id": exp.ID})
}

// deleteExpenseHandler soft-deletes: the row stays but drops out of every
// listing and aggregation.
func deleteExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	exp, ok := ownedExpense(c, user)
	if !ok {
		return
	}
	if err := db.Model(exp).Update("deleted", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	analyticsCache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
}
