package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stockwatch/internal/alerts"
	"stockwatch/internal/config"
	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	"stockwatch/internal/quota"
	"stockwatch/internal/repository"
	"stockwatch/internal/services/shopify"
)

const testSecret = "shpss_test"

type stubCatalog struct {
	mu       sync.Mutex
	products map[int64]*inventory.Product
	statuses []bool
}

func (c *stubCatalog) GetProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	cp := *p
	cp.Variants = append([]inventory.Variant(nil), p.Variants...)
	return &cp, nil
}

func (c *stubCatalog) ListProducts(ctx context.Context, pageSize int, pageInfo string) (*inventory.ProductPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := &inventory.ProductPage{}
	for _, p := range c.products {
		page.Products = append(page.Products, *p)
	}
	return page, nil
}

func (c *stubCatalog) SetProductVisibility(ctx context.Context, id int64, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, visible)
	if visible {
		c.products[id].Status = "active"
	} else {
		c.products[id].Status = "draft"
	}
	return nil
}

func (c *stubCatalog) setQuantity(id int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[id].Variants[0].Quantity = qty
}

func (c *stubCatalog) CatalogFor(*models.StoreAccount) inventory.Catalog { return c }

type recordingEmail struct {
	mu       sync.Mutex
	subjects []string
}

func (e *recordingEmail) Send(ctx context.Context, to, subject, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subjects = append(e.subjects, subject)
	return nil
}

type fixture struct {
	handler http.Handler
	repo    *repository.Repository
	catalog *stubCatalog
	email   *recordingEmail
	store   *models.StoreAccount
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	repo := repository.New(db)
	store := &models.StoreAccount{
		ShopDomain:         "demo.myshopify.com",
		Plan:               models.PlanPro,
		NotificationEmail:  "owner@example.com",
		EmailAlertsEnabled: true,
		LowStockThreshold:  5,
		AutoHideEnabled:    true,
	}
	require.NoError(t, repo.InstallStore(context.Background(), store))

	catalog := &stubCatalog{products: map[int64]*inventory.Product{
		100: {ID: 100, Title: "Classic Tee", Status: "active", Variants: []inventory.Variant{
			{ID: 1001, SKU: "TEE-S", Quantity: 3, InventoryItemID: 9001},
			{ID: 1002, SKU: "TEE-M", Quantity: 0, InventoryItemID: 9002},
		}},
	}}
	email := &recordingEmail{}

	log := logger.NewNop()
	enforcer := quota.NewEnforcer(repo, log)
	dispatcher := alerts.NewDispatcher(repo, nil, email, nil, log, alerts.Options{DedupWindow: 24 * time.Hour, SendTimeout: time.Second})
	service := inventory.NewService(repo, catalog, dispatcher, enforcer, log, inventory.ResolverOptions{PageSize: 50, MaxPages: 2})

	cfg := &config.Config{ShopifyAPISecret: testSecret, CORSOrigins: []string{"*"}, FallbackPageSize: 50}
	srv := New(cfg, log, Dependencies{Repo: repo, Webhooks: service, Enforcer: enforcer, Syncer: service})

	return &fixture{handler: srv.Handler(), repo: repo, catalog: catalog, email: email, store: store}
}

func (f *fixture) webhook(t *testing.T, topic, path string, payload interface{}, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shopify.HeaderTopic, topic)
	req.Header.Set(shopify.HeaderShopDomain, f.store.ShopDomain)
	if sign {
		req.Header.Set(shopify.HeaderHmac, shopify.SignatureHeader(body, testSecret))
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) inventoryUpdate(t *testing.T, itemID int64) map[string]interface{} {
	t.Helper()
	w := f.webhook(t, shopify.TopicInventoryLevelsUpdate, "/webhooks/inventory_levels/update",
		map[string]interface{}{"inventory_item_id": itemID, "location_id": 1, "available": 0}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (f *fixture) get(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWebhookSignatureRequired(t *testing.T) {
	f := newFixture(t)

	w := f.webhook(t, shopify.TopicInventoryLevelsUpdate, "/webhooks/inventory_levels/update",
		map[string]interface{}{"inventory_item_id": 9001}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	p, err := f.repo.GetTrackedProduct(context.Background(), f.store.ID, 100)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestInventoryPipelineEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.inventoryUpdate(t, 9002)
	assert.Equal(t, "processed", out["status"])
	assert.Equal(t, float64(3), out["current"])

	tracked, err := f.repo.GetTrackedProduct(ctx, f.store.ID, 100)
	require.NoError(t, err)
	require.NotNil(t, tracked)
	assert.Equal(t, "TEE-S, TEE-M", tracked.SKU)
	assert.Equal(t, models.StatusVisible, tracked.Status)

	// The fallback scan repaired the index.
	entry, err := f.repo.LookupItem(ctx, f.store.ID, 9002)
	require.NoError(t, err)
	require.NotNil(t, entry)

	f.catalog.setQuantity(100, 0)
	out = f.inventoryUpdate(t, 9001)
	assert.Equal(t, "hide", out["transition"])
	assert.Equal(t, float64(1), out["alerts"])

	// Replayed delivery changes nothing.
	out = f.inventoryUpdate(t, 9001)
	assert.Equal(t, "processed", out["status"])
	assert.Equal(t, float64(0), out["alerts"])
	assert.Equal(t, []bool{false}, f.catalog.statuses)
	assert.Len(t, f.email.subjects, 1)
	assert.Contains(t, f.email.subjects[0], "Out of stock")

	products := f.get(t, "/api/v1/stores/demo.myshopify.com/products?status=hidden")
	assert.Len(t, products["data"], 1)

	alertsResp := f.get(t, "/api/v1/stores/demo.myshopify.com/alerts")
	require.Len(t, alertsResp["data"], 1)
	record := alertsResp["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "out_of_stock", record["kind"])
	assert.Equal(t, "email", record["channel"])
	assert.Equal(t, "sent", record["status"])
}

func TestWebhookEdgeCases(t *testing.T) {
	f := newFixture(t)

	out := f.inventoryUpdate(t, 123456)
	assert.Equal(t, "untracked", out["status"])

	req := httptest.NewRequest(http.MethodPost, "/webhooks/inventory_levels/update", bytes.NewReader([]byte("not json")))
	req.Header.Set(shopify.HeaderHmac, shopify.SignatureHeader([]byte("not json"), testSecret))
	req.Header.Set(shopify.HeaderShopDomain, f.store.ShopDomain)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	body := []byte(`{"inventory_item_id":9001}`)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/inventory_levels/update", bytes.NewReader(body))
	req.Header.Set(shopify.HeaderHmac, shopify.SignatureHeader(body, testSecret))
	req.Header.Set(shopify.HeaderShopDomain, "gone.myshopify.com")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_store")
}

func TestProductDeleteAndUninstall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inventoryUpdate(t, 9001)

	w := f.webhook(t, shopify.TopicProductsDelete, "/webhooks/products/delete", map[string]interface{}{"id": 100}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	p, err := f.repo.GetTrackedProduct(ctx, f.store.ID, 100)
	require.NoError(t, err)
	assert.Nil(t, p)

	w = f.webhook(t, shopify.TopicAppUninstalled, "/webhooks/app/uninstalled", map[string]interface{}{"myshopify_domain": f.store.ShopDomain}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	_, err = f.repo.GetStoreByDomain(ctx, f.store.ShopDomain)
	assert.ErrorIs(t, err, inventory.ErrStoreNotFound)
}

func TestOverrideAndPlanEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := bytes.NewBufferString(`{"exclude_from_auto_hide":true,"custom_threshold":2}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/stores/demo.myshopify.com/products/100/override", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	override, err := f.repo.GetOverride(ctx, f.store.ID, 100)
	require.NoError(t, err)
	require.NotNil(t, override)
	assert.True(t, override.ExcludeFromAutoHide)
	assert.Equal(t, 2, *override.CustomThreshold)

	// Excluded from auto-hide: selling out no longer touches the catalog.
	f.inventoryUpdate(t, 9001)
	f.catalog.setQuantity(100, 0)
	f.inventoryUpdate(t, 9001)
	assert.Empty(t, f.catalog.statuses)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/stores/demo.myshopify.com/plan", bytes.NewBufferString(`{"plan":"free"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	store, err := f.repo.GetStoreByDomain(ctx, f.store.ShopDomain)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, store.Plan)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/stores/demo.myshopify.com/plan", bytes.NewBufferString(`{"plan":"platinum"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stores/missing.myshopify.com/products", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncEndpointAndHealth(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/stores/demo.myshopify.com/sync", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"tracked":1`)

	products := f.get(t, "/api/v1/stores/demo.myshopify.com/products")
	assert.Len(t, products["data"], 1)

	health := f.get(t, "/healthz")
	assert.Equal(t, "healthy", health["status"])
}
