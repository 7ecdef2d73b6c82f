package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"spendtrack/models"
	"spendtrack/pkg/analytics"
	"spendtrack/pkg/budget"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const reportWorkers = 4

// startScheduler wires the two recurring jobs: the alert-flag reset at the
// start of each billing period and the monthly spending report mail.
// SkipIfStillRunning guarantees reset runs never overlap.
func startScheduler() *cron.Cron {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	if _, err := c.AddFunc("@monthly", func() {
		if err := budget.ResetAlerts(budgetStore); err != nil {
			log.Printf("scheduler: alert reset: %v", err)
		}
	}); err != nil {
		log.Printf("scheduler: failed to register alert reset: %v", err)
	}
	if _, err := c.AddFunc("0 6 1 * *", sendMonthlyReports); err != nil {
		log.Printf("scheduler: failed to register monthly reports: %v", err)
	}
	c.Start()
	return c
}

// sendMonthlyReports mails every active user a summary of the month that just
// ended. One user's failure never blocks the rest.
func sendMonthlyReports() {
	var users []models.User
	if err := db.Where("active = true").Find(&users).Error; err != nil {
		log.Printf("monthly report: load users: %v", err)
		return
	}
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, 0, -1)
	month, year := prev.Month(), prev.Year()

	g := new(errgroup.Group)
	g.SetLimit(reportWorkers)
	for _, u := range users {
		u := u
		g.Go(func() error {
			total, count, err := aggregator.MonthlyTotal(u.ID, month, year)
			if err != nil {
				log.Printf("monthly report: user %d totals: %v", u.ID, err)
				return nil
			}
			if count == 0 {
				return nil
			}
			breakdown, err := aggregator.CategoryBreakdown(u.ID, month, year)
			if err != nil {
				log.Printf("monthly report: user %d breakdown: %v", u.ID, err)
				return nil
			}
			subject := fmt.Sprintf("Your %s %d spending report", month, year)
			if err := mail.Send(u.Email, subject, reportBody(u.DisplayName(), month, year, total, count, breakdown)); err != nil {
				log.Printf("monthly report: user %d send: %v", u.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("monthly report: finished for %s %d (%d users considered)", month, year, len(users))
}

func reportBody(name string, month time.Month, year int, total decimal.Decimal, count int64, breakdown []analytics.BreakdownEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Here is your spending report for %s %d.\n\n", month, year)
	fmt.Fprintf(&b, "Total spent: $%s across %d expense(s).\n\n", total.StringFixed(2), count)
	if len(breakdown) > 0 {
		b.WriteString("By category:\n")
		for _, e := range breakdown {
			fmt.Fprintf(&b, "  %-20s $%s\n", e.CategoryName, e.Total.StringFixed(2))
		}
		b.WriteString("\n")
	}
	b.WriteString("Best regards,\nSpendtrack Team")
	return b.String()
}
