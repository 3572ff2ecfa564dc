package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/config"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/domain"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/cache"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/persistence"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/pkg/logger"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8000",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		RateLimit: config.RateLimitConfig{PerIP: 1000},
	}
}

// --- Mock implementations ---

type mockCatalogService struct {
	page       *domain.ItemPage
	item       *domain.ItemDetail
	stats      *domain.CatalogStats
	err        error
	lastFilter domain.ItemFilter
	lastID     int64
}

func (m *mockCatalogService) ListItems(ctx context.Context, filter domain.ItemFilter) (*domain.ItemPage, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockCatalogService) GetItem(ctx context.Context, id int64) (*domain.ItemDetail, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *mockCatalogService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Check(ctx context.Context) error {
	return m.err
}

func setupTestRouter(catalog CatalogService, health HealthChecker) *gin.Engine {
	handler := NewHandler(catalog, health, logger.NewNop())
	return SetupRouter(testConfig(), handler, logger.NewNop())
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return response
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doRequest(setupTestRouter(nil, &mockHealthChecker{}), "GET", "/health")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		response := decodeBody(t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != serviceName {
			t.Errorf("service = %v, want %s", response["service"], serviceName)
		}
	})

	t.Run("reports degraded when the database is down", func(t *testing.T) {
		router := setupTestRouter(nil, &mockHealthChecker{err: errors.New("database unreachable: dial tcp")})
		w := doRequest(router, "GET", "/health")

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		if decodeBody(t, w)["status"] != "degraded" {
			t.Errorf("status should be degraded")
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(nil, nil)
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			if w := doRequest(router, method, "/health"); w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestListItemsEndpoint(t *testing.T) {
	t.Run("passes query parameters to the service", func(t *testing.T) {
		catalog := &mockCatalogService{page: &domain.ItemPage{Page: 2, PageSize: 5, Items: []domain.ItemSummary{}}}
		router := setupTestRouter(catalog, nil)

		w := doRequest(router, "GET", "/api/v1/items?page=2&page_size=5&category=dairy&brand=dan&nutriscore=B&min_quality=40")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
		}
		f := catalog.lastFilter
		if f.Page != 2 || f.PageSize != 5 || f.Category != "dairy" || f.Brand != "dan" || f.Nutriscore != "B" {
			t.Errorf("filter = %+v", f)
		}
		if f.MinQuality == nil || *f.MinQuality != 40 {
			t.Errorf("MinQuality = %v, want 40", f.MinQuality)
		}
	})

	t.Run("rejects invalid parameters", func(t *testing.T) {
		queries := []string{
			"page=0",
			"page=abc",
			"page_size=101",
			"nutriscore=f",
			"min_quality=150",
			"min_quality=-1",
		}
		for _, q := range queries {
			catalog := &mockCatalogService{page: &domain.ItemPage{}}
			w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/items?"+q)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: Status = %d, want %d", q, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("maps service validation errors to 400", func(t *testing.T) {
		catalog := &mockCatalogService{err: fmt.Errorf("%w: bad filter", domain.ErrInvalidRequest)}
		w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/items")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("hides internal errors", func(t *testing.T) {
		catalog := &mockCatalogService{err: errors.New("pq: connection refused")}
		w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/items")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if decodeBody(t, w)["error"] != "internal server error" {
			t.Errorf("internal error details leaked: %s", w.Body.String())
		}
	})

	t.Run("returns 501 without a catalog service", func(t *testing.T) {
		w := doRequest(setupTestRouter(nil, nil), "GET", "/api/v1/items")
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})
}

func TestGetItemEndpoint(t *testing.T) {
	t.Run("returns the item", func(t *testing.T) {
		score := 72
		catalog := &mockCatalogService{item: &domain.ItemDetail{
			ItemSummary: domain.ItemSummary{ID: 12, Code: "3017620422003", ProductName: "Nutella", QualityScore: &score},
		}}
		w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/items/12")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if catalog.lastID != 12 {
			t.Errorf("id = %d, want 12", catalog.lastID)
		}
		response := decodeBody(t, w)
		if response["code"] != "3017620422003" {
			t.Errorf("code = %v", response["code"])
		}
		if response["quality_score"] != float64(72) {
			t.Errorf("quality_score = %v, want 72", response["quality_score"])
		}
	})

	t.Run("returns 404 when absent", func(t *testing.T) {
		catalog := &mockCatalogService{err: domain.ErrProductNotFound}
		w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/items/999")
		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		for _, id := range []string{"abc", "0", "-3"} {
			w := doRequest(setupTestRouter(&mockCatalogService{}, nil), "GET", "/api/v1/items/"+id)
			if w.Code != http.StatusBadRequest {
				t.Errorf("id %s: Status = %d, want %d", id, w.Code, http.StatusBadRequest)
			}
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	avg := 61.5
	catalog := &mockCatalogService{stats: &domain.CatalogStats{
		TotalProducts:          4,
		AvgQualityScore:        &avg,
		NutriscoreDistribution: map[string]int64{"a": 3, "e": 1},
	}}

	w := doRequest(setupTestRouter(catalog, nil), "GET", "/api/v1/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	response := decodeBody(t, w)
	if response["total_products"] != float64(4) {
		t.Errorf("total_products = %v, want 4", response["total_products"])
	}
	if response["avg_quality_score"] != 61.5 {
		t.Errorf("avg_quality_score = %v, want 61.5", response["avg_quality_score"])
	}
}

func TestCORSIntegration(t *testing.T) {
	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := httptest.NewRecorder()
	setupTestRouter(nil, nil).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8501" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:8501")
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Errorf("X-Request-ID not set")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(nil, nil)
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	if w := doRequest(router, "GET", "/panic"); w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAPIRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 2
	router := SetupRouter(cfg, NewHandler(&mockCatalogService{stats: &domain.CatalogStats{}}, nil, logger.NewNop()), logger.NewNop())

	var last int
	for i := 0; i < 3; i++ {
		last = doRequest(router, "GET", "/api/v1/stats").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want %d", last, http.StatusTooManyRequests)
	}

	// Health probes are not limited
	if w := doRequest(router, "GET", "/health"); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestJSONResponses(t *testing.T) {
	catalog := &mockCatalogService{
		page:  &domain.ItemPage{Items: []domain.ItemSummary{}},
		stats: &domain.CatalogStats{},
		err:   nil,
	}
	for _, path := range []string{"/health", "/api/v1/items", "/api/v1/stats", "/api/v1/items/abc"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(setupTestRouter(catalog, nil), "GET", path)

			if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q, want JSON", got)
			}
			decodeBody(t, w)
		})
	}
}

// setupCatalogRouter loads products through the ETL into an in-memory
// database and serves them with the real catalog service.
func setupCatalogRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	db, err := persistence.Open(persistence.Config{Driver: persistence.DriverSQLite, DSN: ":memory:", AutoMigrate: true}, log)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	grade := func(g string) *string { return &g }
	nova := func(n int) *int { return &n }
	sugars := 25.0
	raws := []domain.RawProduct{
		{Code: "001", ProductName: "Yaourt nature", Brand: "Danone", Categories: "Produits laitiers, Yaourts", NutriscoreGrade: grade("a"), NovaGroup: nova(1)},
		{Code: "002", ProductName: "Soda", Brand: "Coca-Cola", Categories: "Boissons, Sodas", NutriscoreGrade: grade("e"), NovaGroup: nova(4),
			Nutrition: domain.Nutriments{Sugars: &sugars}},
		{Code: "003", ProductName: "Mystère"},
	}
	products := make([]domain.EnrichedProduct, len(raws))
	for i, raw := range raws {
		products[i] = usecase.Enrich(raw)
	}

	etl := usecase.NewETLService(
		persistence.NewEnrichedStore(db),
		persistence.NewResolver(db),
		persistence.NewProductWriter(db),
		log,
		usecase.ETLServiceConfig{BatchSize: 2},
	)
	summary, err := etl.Load(ctx, products)
	if err != nil || summary.Loaded != 3 {
		t.Fatalf("load: summary %+v, err %v", summary, err)
	}

	memoryCache := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memoryCache.Close() })

	catalog := usecase.NewCatalogService(
		persistence.NewCatalogRepository(db),
		memoryCache,
		log,
		usecase.CatalogServiceConfig{CacheTTL: time.Minute},
	)
	health := persistence.NewHealthChecker(sqlDB, time.Second)

	return setupTestRouter(catalog, health)
}

func TestCatalogEndToEnd(t *testing.T) {
	router := setupCatalogRouter(t)

	w := doRequest(router, "GET", "/api/v1/items")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", w.Code, w.Body.String())
	}
	var page domain.ItemPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("page = %+v, want 3 items", page)
	}
	if page.Items[0].Code != "001" || page.Items[1].Code != "002" || page.Items[2].Code != "003" {
		t.Errorf("order = %s %s %s, want 001 002 003", page.Items[0].Code, page.Items[1].Code, page.Items[2].Code)
	}
	if page.Items[2].QualityScore != nil {
		t.Errorf("product without signal has score %d, want null", *page.Items[2].QualityScore)
	}

	w = doRequest(router, "GET", "/api/v1/items?brand=coca&nutriscore=e")
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode filtered page: %v", err)
	}
	if page.Total != 1 || page.Items[0].Code != "002" {
		t.Errorf("filtered page = %+v, want only 002", page)
	}

	w = doRequest(router, "GET", fmt.Sprintf("/api/v1/items/%d", page.Items[0].ID))
	if w.Code != http.StatusOK {
		t.Fatalf("item status = %d, body %s", w.Code, w.Body.String())
	}
	var item domain.ItemDetail
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Nutrition == nil || item.Nutrition.Sugars == nil || *item.Nutrition.Sugars != 25 {
		t.Errorf("nutrition = %+v, want sugars 25", item.Nutrition)
	}
	if item.Category == nil || *item.Category != "beverages" {
		t.Errorf("category = %v, want beverages", item.Category)
	}

	if w := doRequest(router, "GET", "/api/v1/items/9999"); w.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = doRequest(router, "GET", "/api/v1/stats")
	var stats domain.CatalogStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalProducts != 3 || stats.TotalBrands != 2 || stats.TotalCategories != 3 {
		t.Errorf("stats = %+v", stats)
	}

	if w := doRequest(router, "GET", "/health"); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}
