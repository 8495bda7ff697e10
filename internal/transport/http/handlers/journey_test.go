package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"dhanix/internal/app/server"
	"dhanix/internal/domain/org"
	"dhanix/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		Environment:        "test",
		RunMigrations:      true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		PayslipDir:         os.TempDir(),
		MetricsEnabled:     true,
	}
}

func TestPayrollRunJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	token := register(t, client, ts.URL, "owner-"+suffix+"@example.com")

	orgID := createJSON(t, client, ts.URL+"/api/v1/orgs", token, map[string]any{
		"name": "Journey Org " + suffix,
	})
	companyID := createJSON(t, client, ts.URL+"/api/v1/orgs/"+orgID+"/companies", token, map[string]any{
		"name": "Journey Mills Pvt Ltd",
		"pan":  "AAACJ1234E",
	})

	emp1ID := createJSON(t, client, ts.URL+"/api/v1/companies/"+companyID+"/employees", token, map[string]any{
		"employeeCode":          "EMP001",
		"firstName":             "Ravi",
		"lastName":              "Kumar",
		"uan":                   "100200300400",
		"isPfApplicable":        true,
		"isEsiApplicable":       false,
		"fixedBasicSalary":      18000,
		"fixedHra":              7200,
		"fixedSpecialAllowance": 4800,
	})
	createJSON(t, client, ts.URL+"/api/v1/companies/"+companyID+"/employees", token, map[string]any{
		"employeeCode":          "EMP002",
		"firstName":             "Priya",
		"lastName":              "Sharma",
		"uan":                   "100200300401",
		"esicIpNumber":          "3100200300",
		"isPfApplicable":        true,
		"isEsiApplicable":       true,
		"fixedBasicSalary":      9000,
		"fixedHra":              3600,
		"fixedSpecialAllowance": 2400,
	})

	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, postJSON(t, client, ts.URL+"/api/v1/companies/"+companyID+"/payroll-runs", token, map[string]any{
		"month": "2026-01",
	}), &run)
	if run.Status != "DRAFT" {
		t.Fatalf("expected new run status DRAFT, got %s", run.Status)
	}

	attendance := strings.Join([]string{
		"employee_code,paid_days,lop_days,other_deductions",
		"EMP001,30,0,0",
		"EMP002,15,15,0",
		"UNKNOWN,30,0,0",
		"EMP001,not-a-number,0,0",
	}, "\n")
	var imported struct {
		Matched int `json:"matched"`
		Skipped int `json:"skipped"`
		Errors  int `json:"errors"`
	}
	decodeData(t, postCSV(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/attendance/import", token, attendance), &imported)
	if imported.Matched != 2 || imported.Skipped != 1 || imported.Errors != 1 {
		t.Fatalf("unexpected import summary: %+v", imported)
	}

	var processed struct {
		Status string `json:"status"`
	}
	decodeData(t, postJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/process", token, map[string]any{}), &processed)
	if processed.Status != "COMPLETED" {
		t.Fatalf("expected status COMPLETED after processing, got %s", processed.Status)
	}

	var detail struct {
		Items []struct {
			ID       string `json:"id"`
			Employee struct {
				EmployeeCode string `json:"employeeCode"`
			} `json:"employee"`
			BasicSalary float64 `json:"basicSalary"`
			GrossSalary float64 `json:"grossSalary"`
			PFEmployee  float64 `json:"pfEmployee"`
			ESIEmployee float64 `json:"esiEmployee"`
			NetSalary   float64 `json:"netSalary"`
		} `json:"items"`
	}
	decodeData(t, getJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID, token), &detail)
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 payroll items, got %d", len(detail.Items))
	}
	var emp1ItemID string
	for _, item := range detail.Items {
		switch item.Employee.EmployeeCode {
		case "EMP001":
			emp1ItemID = item.ID
			if item.GrossSalary != 30000 || item.PFEmployee != 1800 || item.NetSalary != 28200 {
				t.Fatalf("unexpected EMP001 amounts: %+v", item)
			}
		case "EMP002":
			if item.GrossSalary != 7500 || item.ESIEmployee != 56.25 {
				t.Fatalf("unexpected EMP002 amounts: %+v", item)
			}
		}
	}
	if emp1ItemID == "" {
		t.Fatal("expected an item for EMP001")
	}

	// A raise granted after the run was created must not leak into the run:
	// items keep the salary snapshotted at creation, even through a recalculation.
	patchJSONStatus(t, client, ts.URL+"/api/v1/employees/"+emp1ID, token, map[string]any{
		"fixedBasicSalary": 99999,
	}, http.StatusOK)
	postJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/calculate", token, map[string]any{})
	decodeData(t, getJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID, token), &detail)
	for _, item := range detail.Items {
		if item.Employee.EmployeeCode != "EMP001" {
			continue
		}
		if item.BasicSalary != 18000 {
			t.Fatalf("expected snapshotted basic salary 18000 after employee update, got %v", item.BasicSalary)
		}
		if item.GrossSalary != 30000 {
			t.Fatalf("expected gross 30000 from snapshotted salary, got %v", item.GrossSalary)
		}
	}

	ecr := getRaw(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/reports/pf-ecr.csv", token, http.StatusOK)
	if !strings.Contains(ecr, "100200300400") {
		t.Fatalf("expected UAN in ECR export, got: %s", ecr)
	}
	esi := getRaw(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/reports/esi.csv", token, http.StatusOK)
	if !strings.Contains(esi, "3100200300") {
		t.Fatalf("expected IP number in ESI export, got: %s", esi)
	}

	var locked struct {
		Status string `json:"status"`
	}
	decodeData(t, postJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/lock", token, map[string]any{}), &locked)
	if locked.Status != "LOCKED" {
		t.Fatalf("expected status LOCKED, got %s", locked.Status)
	}

	postJSONStatus(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/process", token, map[string]any{}, http.StatusConflict)
	patchJSONStatus(t, client, ts.URL+"/api/v1/payroll-items/"+emp1ItemID, token, map[string]any{
		"daysWorked": 20,
	}, http.StatusConflict)

	// Locking again is a no-op, not an error.
	decodeData(t, postJSON(t, client, ts.URL+"/api/v1/payroll-runs/"+run.ID+"/lock", token, map[string]any{}), &locked)
	if locked.Status != "LOCKED" {
		t.Fatalf("expected repeated lock to report LOCKED, got %s", locked.Status)
	}
}

func TestStaffCannotMutatePayroll(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	ownerToken := register(t, client, ts.URL, "owner-"+suffix+"@example.com")
	orgID := createJSON(t, client, ts.URL+"/api/v1/orgs", ownerToken, map[string]any{
		"name": "Staff Org " + suffix,
	})
	companyID := createJSON(t, client, ts.URL+"/api/v1/orgs/"+orgID+"/companies", ownerToken, map[string]any{
		"name": "Staff Test Pvt Ltd",
	})

	staffEmail := "staff-" + suffix + "@example.com"
	staffToken := register(t, client, ts.URL, staffEmail)
	postJSON(t, client, ts.URL+"/api/v1/orgs/"+orgID+"/members", ownerToken, map[string]any{
		"email": staffEmail,
		"role":  org.RoleStaff,
	})

	getRaw(t, client, ts.URL+"/api/v1/companies/"+companyID+"/payroll-runs", staffToken, http.StatusOK)
	postJSONStatus(t, client, ts.URL+"/api/v1/companies/"+companyID+"/payroll-runs", staffToken, map[string]any{
		"month": "2026-02",
	}, http.StatusForbidden)
}

func register(t *testing.T, client *http.Client, baseURL, email string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": "Journey123!",
		"fullName": "Journey Tester",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

// createJSON posts the body and returns the created resource id.
func createJSON(t *testing.T, client *http.Client, url, token string, body any) string {
	t.Helper()
	resp := postJSON(t, client, url, token, body)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected id in create response for %s", url)
	}
	return id
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to decode response data: %v", err)
	}
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(payload))
	}
}

func patchJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewBuffer(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(payload))
	}
}

func postCSV(t *testing.T, client *http.Client, url, token, body string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getRaw(t *testing.T, client *http.Client, url, token string, want int) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
	return string(raw)
}
