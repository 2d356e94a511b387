package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/renewabletx/gridmix/internal/dashboard"
	"github.com/renewabletx/gridmix/internal/ingest"
	"github.com/renewabletx/gridmix/internal/logger"
	"github.com/renewabletx/gridmix/internal/store"
	"github.com/renewabletx/gridmix/internal/store/storetest"
)

func newTestApp(t *testing.T) (*fiber.App, *ingest.Service) {
	t.Helper()

	db := storetest.DB(t)
	log := logger.NewNop()

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Dashboard: dashboard.NewService(db, log),
		Sources:   store.NewSourceRepo(db),
		Snapshots: store.NewSnapshotRepo(db),
	})
	return app, ingest.NewService(db, log)
}

// TestDailyDaysValidation verifies that the daily generation endpoint
// enforces the expected 1-365 range for the `days` query parameter.
func TestDailyDaysValidation(t *testing.T) {
	app, _ := newTestApp(t)

	for _, days := range []string{"0", "-1", "366", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/generation/daily?days="+days, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("days=%s: expected status %d, got %d", days, http.StatusBadRequest, resp.StatusCode)
		}
	}

	// Missing days falls back to the default window and succeeds.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/generation/daily", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

// TestDashboardForgivingTimespan verifies that a malformed timespan never
// fails the request; it degrades to the default window.
func TestDashboardForgivingTimespan(t *testing.T) {
	app, ingestor := newTestApp(t)

	if _, err := ingestor.Ingest("2025-05-01 12:00:00", map[string]float64{"Wind": 100}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	for _, timespan := range []string{"5D", "bogus", ""} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?timespan="+timespan, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("timespan=%q: expected status %d, got %d", timespan, http.StatusOK, resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?timespan=5D", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Labels   []string            `json:"labels"`
		Datasets []dashboard.Dataset `json:"datasets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Labels) != 1 || len(body.Datasets) != 1 {
		t.Fatalf("expected 1 label and 1 dataset, got %d/%d", len(body.Labels), len(body.Datasets))
	}
	if body.Datasets[0].Label != "wind" {
		t.Fatalf("expected wind dataset, got %q", body.Datasets[0].Label)
	}
}

func TestLatestSnapshotNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestLatestSnapshotSummary(t *testing.T) {
	app, ingestor := newTestApp(t)

	if _, err := ingestor.Ingest("2025-05-01 12:00:00", map[string]float64{
		"Nuclear":          10,
		"Coal and Lignite": 30,
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Timestamp    string  `json:"timestamp"`
		TotalMW      float64 `json:"totalMw"`
		RenewablePct float64 `json:"renewablePct"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Timestamp != "2025-05-01 12:00:00" {
		t.Errorf("timestamp = %q", body.Timestamp)
	}
	if body.TotalMW != 40 || body.RenewablePct != 25 {
		t.Errorf("totals = %v MW, %v%%, want 40 MW, 25%%", body.TotalMW, body.RenewablePct)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	app, ingestor := newTestApp(t)

	if _, err := ingestor.Ingest("2025-05-01 12:00:00", map[string]float64{"Wind": 100}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Sources []store.Source `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Sources) != 1 || body.Sources[0].Name != "wind" {
		t.Fatalf("unexpected sources: %+v", body.Sources)
	}
}
