package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// monthYearParams reads optional month= and year= query params, defaulting to
// the current calendar month.
func monthYearParams(c *gin.Context) (time.Month, int, bool) {
	now := time.Now()
	month := int(now.Month())
	year := now.Year()
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be 1-12"})
			return 0, 0, false
		}
		month = m
	}
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 2999 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, 0, false
		}
		year = y
	}
	return time.Month(month), year, true
}

// analyticsSummaryHandler returns the month's total and count. Responses are
// memoized per owner+month and invalidated by every expense write.
func analyticsSummaryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	month, year, ok := monthYearParams(c)
	if !ok {
		return
	}
	key := fmt.Sprintf("summary:%d:%04d-%02d", user.ID, year, month)
	if cached, ok := analyticsCache.Get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	total, count, err := aggregator.MonthlyTotal(user.ID, month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	resp := gin.H{"month": int(month), "year": year, "total": total, "count": count}
	analyticsCache.Set(key, resp)
	c.JSON(http.StatusOK, resp)
}

func analyticsBreakdownHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	month, year, ok := monthYearParams(c)
	if !ok {
		return
	}
	key := fmt.Sprintf("breakdown:%d:%04d-%02d", user.ID, year, month)
	if cached, ok := analyticsCache.Get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	entries, err := aggregator.CategoryBreakdown(user.ID, month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	resp := gin.H{"month": int(month), "year": year, "breakdown": entries}
	analyticsCache.Set(key, resp)
	c.JSON(http.StatusOK, resp)
}

func analyticsDailyHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	month, year, ok := monthYearParams(c)
	if !ok {
		return
	}
	points, err := aggregator.DailyTrend(user.ID, month, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": int(month), "year": year, "daily": points})
}

// analyticsHighestHandler returns the single largest expense, or a null body
// when the user has none. Absence of data is not an error.
func analyticsHighestHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	info, err := aggregator.HighestExpense(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"highest": info})
}

func analyticsInsightsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	insights, err := insightEngine.ComputeInsights(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, insights)
}
