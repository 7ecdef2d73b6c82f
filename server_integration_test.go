package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"spendtrack/models"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	initDB()
	initCore()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func postJSON(t *testing.T, r http.Handler, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	return performRequest(r, http.MethodPost, path, bytes.NewBuffer(body), token, "application/json")
}

func putJSON(t *testing.T, r http.Handler, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	return performRequest(r, http.MethodPut, path, bytes.NewBuffer(body), token, "application/json")
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)
	email := fmt.Sprintf("flow+%d@example.com", time.Now().UnixNano())

	// 1. Register
	resp := postJSON(t, r, "/register", "", map[string]string{"email": email, "password": "password1", "full_name": "Flow Tester"})
	if resp.Code != 200 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	resp = postJSON(t, r, "/login", "", map[string]string{"email": email, "password": "password1"})
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Registration seeds default categories
	resp = performRequest(r, http.MethodGet, "/categories", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list categories failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var cats []models.Category
	_ = json.Unmarshal(resp.Body.Bytes(), &cats)
	if len(cats) == 0 {
		t.Fatalf("expected seeded categories, got none")
	}
	catID := cats[0].ID

	// 4. Create expenses in the category
	today := time.Now().UTC().Format("2006-01-02")
	for _, amount := range []string{"120.00", "80.50"} {
		resp = postJSON(t, r, "/expenses", token, map[string]any{
			"amount": amount, "category_id": catID, "date": today,
			"description": "integration " + amount, "payment_method": "CARD",
		})
		if resp.Code != 200 {
			t.Fatalf("create expense failed status=%d body=%s", resp.Code, resp.Body.String())
		}
	}

	// 5. Validation: future date and bad amount rejected
	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	resp = postJSON(t, r, "/expenses", token, map[string]any{"amount": "5.00", "date": future})
	if resp.Code != 400 {
		t.Fatalf("future-dated expense accepted status=%d", resp.Code)
	}
	resp = postJSON(t, r, "/expenses", token, map[string]any{"amount": "5.123", "date": today})
	if resp.Code != 400 {
		t.Fatalf("3dp amount accepted status=%d", resp.Code)
	}

	// 6. Summary reflects the writes
	resp = performRequest(r, http.MethodGet, "/analytics/summary", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("summary failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var summary map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &summary)
	if summary["total"] != "200.5" && summary["total"] != "200.50" {
		t.Fatalf("summary total = %v, want 200.5", summary["total"])
	}

	// 7. Breakdown and insights respond with data
	resp = performRequest(r, http.MethodGet, "/analytics/breakdown", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("breakdown failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/analytics/insights", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("insights failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Budget alert fires once and the flag records it
	resp = putJSON(t, r, fmt.Sprintf("/categories/%d/budget", catID), token, map[string]any{
		"monthly_limit": "250.00", "alert_threshold": 80,
	})
	if resp.Code != 200 {
		t.Fatalf("upsert budget failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	alerts.Wait() // spending 200.50 >= threshold 200.00
	b, err := budgetStore.ByCategory(catID)
	if err != nil || b == nil {
		t.Fatalf("budget not found after upsert: %v", err)
	}
	if !b.AlertSent {
		t.Fatalf("alert flag not set after breaching threshold")
	}

	// 9. Reset restores alerting for the next period
	if err := budgetStore.ClearAlert(b.ID); err != nil {
		t.Fatalf("clear alert: %v", err)
	}
	resp = postJSON(t, r, "/expenses", token, map[string]any{"amount": "10.00", "category_id": catID, "date": today})
	if resp.Code != 200 {
		t.Fatalf("post-reset expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	alerts.Wait()
	b, _ = budgetStore.ByCategory(catID)
	if b == nil || !b.AlertSent {
		t.Fatalf("alert did not fire again after reset")
	}

	// 10. Unauthorized access to a protected endpoint is 401
	unauth := performRequest(r, http.MethodGet, "/expenses", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list expenses got %d", unauth.Code)
	}
}

func TestExpenseFiltersAndSoftDelete(t *testing.T) {
	r := setupTestServer(t)
	email := fmt.Sprintf("filters+%d@example.com", time.Now().UnixNano())

	resp := postJSON(t, r, "/register", "", map[string]string{"email": email, "password": "password1"})
	if resp.Code != 200 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = postJSON(t, r, "/login", "", map[string]string{"email": email, "password": "password1"})
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)

	today := time.Now().UTC().Format("2006-01-02")
	var firstID float64
	for i, amount := range []string{"10.00", "20.00", "30.00"} {
		resp = postJSON(t, r, "/expenses", token, map[string]any{"amount": amount, "date": today, "description": fmt.Sprintf("e%d", i)})
		if resp.Code != 200 {
			t.Fatalf("create expense failed status=%d body=%s", resp.Code, resp.Body.String())
		}
		if i == 0 {
			var created map[string]any
			_ = json.Unmarshal(resp.Body.Bytes(), &created)
			firstID, _ = created["id"].(float64)
		}
	}

	// amount filter
	resp = performRequest(r, http.MethodGet, "/expenses?min_amount=15", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("filtered list failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var page map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if int(page["total"].(float64)) != 2 {
		t.Fatalf("min_amount filter total = %v, want 2", page["total"])
	}

	// size cap
	resp = performRequest(r, http.MethodGet, "/expenses?size=500", nil, token, "")
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if int(page["size"].(float64)) != 100 {
		t.Fatalf("size cap = %v, want 100", page["size"])
	}

	// soft delete removes from listings but keeps the row
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/expenses/%d", int(firstID)), nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/expenses", nil, token, "")
	_ = json.Unmarshal(resp.Body.Bytes(), &page)
	if int(page["total"].(float64)) != 2 {
		t.Fatalf("total after soft delete = %v, want 2", page["total"])
	}
	var row models.Expense
	if err := db.First(&row, uint(firstID)).Error; err != nil {
		t.Fatalf("soft-deleted row physically removed: %v", err)
	}
	if !row.Deleted {
		t.Fatalf("deleted flag not set on soft-deleted row")
	}

	// highest-expense tie: equal amounts resolve to the most recent date
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	resp = postJSON(t, r, "/expenses", token, map[string]any{"amount": "30.00", "date": yesterday, "description": "tie-old"})
	if resp.Code != 200 {
		t.Fatalf("create tie expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/analytics/highest", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("highest failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var highest struct {
		Highest struct {
			Description string `json:"description"`
		} `json:"highest"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &highest)
	if highest.Highest.Description != "e2" {
		t.Fatalf("highest tie-break picked %q, want the more recent e2", highest.Highest.Description)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
