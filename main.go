package main

import (
	"fmt"
	"os"
	"time"

	"spendtrack/pkg/analytics"
	"spendtrack/pkg/budget"
	"spendtrack/pkg/cache"
	"spendtrack/pkg/mailer"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

// Shared wiring, built once in initCore after the DB is up.
var (
	aggregator     *analytics.Aggregator
	insightEngine  *analytics.Engine
	budgetStore    *gormBudgetStore
	alerts         *budget.Dispatcher
	mail           *mailer.Mailer
	analyticsCache *cache.Cache[gin.H]
)

const (
	analyticsCacheTTL  = 60 * time.Minute
	analyticsCacheSize = 512
	alertWorkers       = 4
)

func main() {
	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Lightweight migrate command: `./spendtrack migrate` runs AutoMigrate and
	// seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()
	initCore()

	cr := startScheduler()
	defer cr.Stop()

	r := gin.Default()
	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	r.Run(":" + port)
}

func initCore() {
	aggregator = analytics.NewAggregator(db)
	insightEngine = analytics.NewEngine(aggregator)
	budgetStore = &gormBudgetStore{db: db}
	mail = mailer.FromEnv()
	eval := budget.NewEvaluator(&gormDirectory{db: db}, budgetStore, aggregator, mail)
	alerts = budget.NewDispatcher(eval, alertWorkers)
	analyticsCache = cache.New[gin.H](analyticsCacheSize, analyticsCacheTTL)
}
