package main

import (
	"log"
	"os"
	"strings"

	"spendtrack/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This service requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Roles master table first and seeded so the users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Category{}); err != nil {
			log.Printf("migration warning (categories): %v", err)
		}
		if err := db.AutoMigrate(&models.Expense{}); err != nil {
			log.Printf("migration warning (expenses): %v", err)
		}
		if err := db.AutoMigrate(&models.CategoryBudget{}); err != nil {
			log.Printf("migration warning (category_budgets): %v", err)
		}
		if err := db.AutoMigrate(&models.Receipt{}); err != nil {
			log.Printf("migration warning (receipts): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}
	seedDB()
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Seed an administrator account on first boot
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		adminPassword := os.Getenv("ADMIN_PASSWORD")
		if adminPassword == "" {
			adminPassword = "admin123!"
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		rid := role.ID
		admin := models.User{Email: adminEmail, FullName: "Administrator", HashedPassword: hashedPassword, Active: true, RoleID: &rid}
		if err := db.Create(&admin).Error; err != nil {
			log.Printf("failed to seed admin user: %v", err)
		} else {
			log.Printf("Seeded admin user: email=%s", adminEmail)
			seedDefaultCategories(admin.ID)
		}
	}
	ensureUploadBase()
}

// defaultCategories are created for every new account so analytics and
// budgets have something to attach to from day one.
var defaultCategories = []models.Category{
	{Name: "Food", Description: "Groceries and dining", ColorCode: "#FF6B6B"},
	{Name: "Transportation", Description: "Fuel, transit and rides", ColorCode: "#4ECDC4"},
	{Name: "Entertainment", Description: "Movies, games and events", ColorCode: "#FFD93D"},
	{Name: "Utilities", Description: "Power, water and internet", ColorCode: "#6C5CE7"},
	{Name: "Healthcare", Description: "Medical and pharmacy", ColorCode: "#00B894"},
	{Name: "Shopping", Description: "Clothing and household", ColorCode: "#E17055"},
	{Name: "Others", Description: "Everything else", ColorCode: "#95A5A6"},
}

func seedDefaultCategories(userID uint) {
	for _, c := range defaultCategories {
		cat := models.Category{UserID: userID, Name: c.Name, Description: c.Description, ColorCode: c.ColorCode}
		var cnt int64
		db.Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, c.Name).Count(&cnt)
		if cnt == 0 {
			if err := db.Create(&cat).Error; err != nil {
				log.Printf("failed to seed category %q for user %d: %v", c.Name, userID, err)
			}
		}
	}
}

// ensureUploadBase creates the base directory for receipt storage.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for stored receipts (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
