//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canteenhq/api/internal/config"
	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/router"
	"github.com/canteenhq/api/internal/ws"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full ordering lifecycle against a real
// PostgreSQL database: register, order within the session window, complete
// the order as an administrator, and verify the payroll deduction.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	// Run migrations
	runMigrations(t, connStr)

	// Create pgxpool connection
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	// Initialize dependencies
	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
		CORSOrigins: "http://localhost:5173",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	// Build router
	r := router.New(cfg, queries, pool, hub)

	// Create HTTP test server
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Create admin account (manual DB insert to bootstrap) ---
	adminID := createAdminUser(t, ctx, pool)

	// --- 2. Login as admin ---
	adminToken := login(t, server, "admin@test.com", "password123")

	// --- 3. Register employee through API, then login ---
	registerEmployee(t, server, "asha@test.com", "password123")
	employeeToken := login(t, server, "asha@test.com", "password123")

	// --- 4. Admin creates a meal session whose window is open right now ---
	sessionResp := createSession(t, server, adminToken)
	sessionID := uuid.MustParse(sessionResp["id"].(string))

	// --- 5. Admin creates a menu item ---
	menuResp := createMenuItem(t, server, adminToken)
	menuItemID := uuid.MustParse(menuResp["id"].(string))

	// --- 6. Employee places an order inside the window ---
	orderResp := createOrder(t, server, sessionID, menuItemID, employeeToken)
	orderID := uuid.MustParse(orderResp["id"].(string))

	// Price snapshot: 2 x 120.00 from the catalog, never from the request
	if got := orderResp["total_amount"].(string); got != "240.00" {
		t.Fatalf("order total_amount: got %s, want 240.00", got)
	}
	if orderResp["order_number"].(string) == "" {
		t.Fatalf("order_number missing from response")
	}

	// --- 7. Admin completes the order; deduction fires ---
	completeResp := completeOrder(t, server, orderID, adminToken)
	deduction, ok := completeResp["deduction"].(map[string]interface{})
	if !ok {
		t.Fatalf("completion response missing 'deduction' field: %+v", completeResp)
	}
	if got := deduction["amount"].(string); got != "240.00" {
		t.Fatalf("deduction amount: got %s, want 240.00", got)
	}
	wantMonth := time.Now().Format("2006-01") + "-01"
	if got := deduction["deduction_month"].(string); got != wantMonth {
		t.Fatalf("deduction_month: got %s, want %s", got, wantMonth)
	}

	// --- 8. Completing again must not create a second deduction ---
	repeatResp := completeOrder(t, server, orderID, adminToken)
	if _, ok := repeatResp["deduction"]; ok {
		t.Fatalf("repeated completion created a second deduction: %+v", repeatResp)
	}

	// --- 9. Employee sees exactly one deduction on the billing page ---
	deductions := listDeductions(t, server, employeeToken)
	if len(deductions) != 1 {
		t.Fatalf("billing deductions: got %d rows, want 1", len(deductions))
	}
	if got := deductions[0]["amount"].(string); got != "240.00" {
		t.Fatalf("billing deduction amount: got %s, want 240.00", got)
	}

	t.Logf("Integration test passed: container=%s, admin=%s, session=%s, order=%s",
		pgContainer.GetContainerID(), adminID, sessionID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("canteen_test"),
		tcpostgres.WithUsername("canteen"),
		tcpostgres.WithPassword("canteen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO profiles (email, hashed_password, full_name, employee_id, is_admin)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING id`,
		"admin@test.com", string(hashedPassword), "Test Admin", "EMP-0001",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
	return id
}

// --- API call helpers ---

func registerEmployee(t *testing.T, server *httptest.Server, email, password string) {
	t.Helper()
	body := map[string]interface{}{
		"email":       email,
		"password":    password,
		"full_name":   "Asha Nair",
		"employee_id": "EMP-1001",
	}
	httpJSON(t, server, "POST", "/auth/register", body, "")
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	resp := httpJSON(t, server, "POST", "/auth/login", body, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// createSession makes a session spanning the whole day with no cutoff, so
// the ordering window is open whenever the test runs.
func createSession(t *testing.T, server *httptest.Server, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"name":                        "All Day",
		"start_time":                  "00:00",
		"end_time":                    "23:59",
		"order_cutoff_minutes_before": 0,
	}
	return httpJSON(t, server, "POST", "/admin/sessions", body, token)
}

func createMenuItem(t *testing.T, server *httptest.Server, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"name":      "Veg Thali",
		"category":  "main",
		"price":     "120.00",
		"available": true,
	}
	return httpJSON(t, server, "POST", "/admin/menu", body, token)
}

func createOrder(t *testing.T, server *httptest.Server, sessionID, menuItemID uuid.UUID, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"session_id": sessionID.String(),
		"items": []map[string]interface{}{
			{
				"menu_item_id": menuItemID.String(),
				"quantity":     2,
			},
		},
	}
	return httpJSON(t, server, "POST", "/orders", body, token)
}

func completeOrder(t *testing.T, server *httptest.Server, orderID uuid.UUID, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{"status": "completed"}
	return httpJSON(t, server, "PATCH", fmt.Sprintf("/admin/orders/regular/%s/status", orderID), body, token)
}

func listDeductions(t *testing.T, server *httptest.Server, token string) []map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+"/billing/deductions", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /billing/deductions: status %d", resp.StatusCode)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

// --- HTTP helpers ---

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("%s %s: status %d, body: %v", method, path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
