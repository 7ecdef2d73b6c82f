package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"spendtrack/models"
	"spendtrack/pkg/scan"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

const (
	maxReceiptSize = 5 * 1024 * 1024
	thumbWidth     = 320
)

var receiptContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// uploadReceiptHandler attaches one proof-of-purchase file to an expense.
// Images get a thumbnail; PDFs are stored as-is.
func uploadReceiptHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	exp, ok := ownedExpense(c, user)
	if !ok {
		return
	}
	var existing models.Receipt
	if err := db.Where("expense_id = ?", exp.ID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "expense already has a receipt"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxReceiptSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	ct := file.Header.Get("Content-Type")
	if !receiptContentTypes[ct] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type (jpeg, png or pdf)"})
		return
	}

	ownerDir := filepath.Join(uploadBaseDir(), "receipts", fmt.Sprint(user.ID))
	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	storedName := fmt.Sprintf("%d_%s", exp.ID, filepath.Base(file.Filename))
	fullPath := filepath.Join(ownerDir, storedName)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	relPath := filepath.ToSlash(filepath.Join("receipts", fmt.Sprint(user.ID), storedName))

	thumbRel := ""
	if strings.HasPrefix(ct, "image/") {
		if tp, err := makeThumbnail(fullPath); err == nil {
			thumbRel = filepath.ToSlash(filepath.Join("receipts", fmt.Sprint(user.ID), filepath.Base(tp)))
		}
	}

	rec := models.Receipt{
		ExpenseID:   exp.ID,
		FileName:    filepath.Base(file.Filename),
		StorePath:   relPath,
		ThumbPath:   thumbRel,
		FileSize:    file.Size,
		ContentType: ct,
	}
	if err := db.Create(&rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "expense already has a receipt"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "store_path": rec.StorePath, "thumb_path": rec.ThumbPath})
}

// makeThumbnail writes a 320px-wide JPEG next to the source image.
func makeThumbnail(src string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + "_thumb.jpg"
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return dst, nil
}

// ownedReceipt loads the receipt of the expense named by :id, owner-scoped.
func ownedReceipt(c *gin.Context, user *models.User) (*models.Receipt, bool) {
	exp, ok := ownedExpense(c, user)
	if !ok {
		return nil, false
	}
	var rec models.Receipt
	if err := db.Where("expense_id = ?", exp.ID).First(&rec).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		return nil, false
	}
	return &rec, true
}

func getReceiptHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	rec, ok := ownedReceipt(c, user)
	if !ok {
		return
	}
	fullPath := filepath.Join(uploadBaseDir(), filepath.FromSlash(rec.StorePath))
	if _, err := os.Stat(fullPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "receipt file missing"})
		return
	}
	c.Header("Content-Type", rec.ContentType)
	c.File(fullPath)
}

// scanReceiptHandler runs OCR over an image receipt and returns a suggested
// amount. The expense itself is never mutated here.
func scanReceiptHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	rec, ok := ownedReceipt(c, user)
	if !ok {
		return
	}
	if !strings.HasPrefix(rec.ContentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scan supports image receipts only"})
		return
	}
	fullPath := filepath.Join(uploadBaseDir(), filepath.FromSlash(rec.StorePath))
	amount, matched, err := scan.ExtractAmount(fullPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	if amount.IsZero() {
		c.JSON(http.StatusOK, gin.H{"suggested_amount": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggested_amount": amount, "matched_text": matched})
}
