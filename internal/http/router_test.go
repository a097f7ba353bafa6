package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raphiebot/go-discord-relay/internal/config"
	"github.com/raphiebot/go-discord-relay/internal/domain"
	"github.com/raphiebot/go-discord-relay/internal/http/handlers"
	"github.com/raphiebot/go-discord-relay/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		RateRPS:   1000,
		RateBurst: 1000,
		OTEL:      config.OTELConfig{ServiceName: "go-discord-relay"},
	}
}

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, []domain.ModelTier{
		{ModelID: "free-a", Kind: domain.TierFree, DailyLimit: 600},
		{ModelID: "paid", Kind: domain.TierPaid},
	}, testConfig())
	return r, db
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := testRouter(t)

	for _, path := range []string{"/", "/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, w.Code)
		}
		var body handlers.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
		if body.Status != "ok" || body.Bot != "alive" {
			t.Errorf("GET %s: body = %+v", path, body)
		}

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodHead, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("HEAD %s: status %d", path, w.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != handlers.ErrCodeNotFound {
		t.Errorf("code = %q", body.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, db := testRouter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.IncrementUsage(ctx, db, "free-a", false); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.IncrementUsage(ctx, db, "paid", true); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var stats domain.UsageStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.FreeCount != 3 || stats.PaidCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.EstimatedCost < repo.PaidCallCost-1e-9 {
		t.Errorf("cost = %v", stats.EstimatedCost)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_") {
		t.Error("metrics body missing runtime collectors")
	}
}
