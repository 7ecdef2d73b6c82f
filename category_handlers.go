package main

import (
	"net/http"
	"strconv"
	"strings"

	"spendtrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ColorCode   string `json:"color_code"`
}

func (r *categoryRequest) validate() (string, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" || len(name) > 50 {
		return "name must be 1-50 characters", false
	}
	if r.ColorCode != "" && (len(r.ColorCode) != 7 || r.ColorCode[0] != '#') {
		return "color_code must look like #RRGGBB", false
	}
	return "", true
}

func createCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := req.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	name := strings.TrimSpace(req.Name)
	var existing models.Category
	if err := db.Where("user_id = ? AND name = ?", user.ID, name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "category name already in use"})
		return
	}
	cat := models.Category{UserID: user.ID, Name: name, Description: req.Description, ColorCode: req.ColorCode}
	if err := db.Create(&cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "category name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cat.ID})
}

func listCategoriesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var cats []models.Category
	if err := db.Preload("Budget").Where("user_id = ?", user.ID).Order("name asc").Find(&cats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, cats)
}

// ownedCategoryParam loads the category named by :id scoped to the user.
func ownedCategoryParam(c *gin.Context, user *models.User) (*models.Category, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return nil, false
	}
	cat, err := ownedCategory(user.ID, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return nil, false
	}
	return cat, true
}

func getCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	db.Preload("Budget").First(cat, cat.ID)
	c.JSON(http.StatusOK, cat)
}

func updateCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := req.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	name := strings.TrimSpace(req.Name)
	var clash models.Category
	if err := db.Where("user_id = ? AND name = ? AND id <> ?", user.ID, name, cat.ID).First(&clash).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "category name already in use"})
		return
	}
	cat.Name = name
	cat.Description = req.Description
	cat.ColorCode = req.ColorCode
	if err := db.Save(cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "category name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	analyticsCache.Clear()
	c.JSON(http.StatusOK, gin.H{"id": cat.ID})
}

// deleteCategoryHandler refuses while live expenses still reference the
// category; soft-deleted references are detached instead.
func deleteCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cat, ok := ownedCategoryParam(c, user)
	if !ok {
		return
	}
	var live int64
	if err := db.Model(&models.Expense{}).Where("category_id = ? AND deleted = false", cat.ID).Count(&live).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if live > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "category still has expenses"})
		return
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Expense{}).Where("category_id = ?", cat.ID).Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", cat.ID).Delete(&models.CategoryBudget{}).Error; err != nil {
			return err
		}
		return tx.Delete(cat).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	analyticsCache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
