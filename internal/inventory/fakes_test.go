package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"stockwatch/internal/models"
)

var errCatalogDown = errors.New("catalog unavailable")

type memStore struct {
	mu        sync.Mutex
	stores    map[string]*models.StoreAccount
	index     map[string]*models.InventoryItemIndex
	products  map[string]*models.TrackedProduct
	overrides map[string]*models.ProductOverride

	statusWrites int
	lookupErr    error
}

func newMemStore(stores ...*models.StoreAccount) *memStore {
	m := &memStore{
		stores:    map[string]*models.StoreAccount{},
		index:     map[string]*models.InventoryItemIndex{},
		products:  map[string]*models.TrackedProduct{},
		overrides: map[string]*models.ProductOverride{},
	}
	for _, s := range stores {
		m.stores[s.ShopDomain] = s
	}
	return m
}

func itemKey(storeID string, itemID int64) string {
	return fmt.Sprintf("%s/%d", storeID, itemID)
}

func productKey(storeID string, productID int64) string {
	return fmt.Sprintf("%s/%d", storeID, productID)
}

func (m *memStore) LookupItem(_ context.Context, storeID string, itemID int64) (*models.InventoryItemIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if e, ok := m.index[itemKey(storeID, itemID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) SaveItem(_ context.Context, entry *models.InventoryItemIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.index[itemKey(entry.StoreID, entry.InventoryItemID)] = &cp
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, storeID string, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.index, itemKey(storeID, itemID))
	return nil
}

func (m *memStore) GetTrackedProduct(_ context.Context, storeID string, productID int64) (*models.TrackedProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productKey(storeID, productID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) SaveTrackedProduct(_ context.Context, p *models.TrackedProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cp := *p
	m.products[productKey(p.StoreID, p.ProductID)] = &cp
	return nil
}

func (m *memStore) UpdateProductStatus(_ context.Context, id string, status models.VisibilityStatus, autoHidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			p.Status = status
			p.AutoHidden = autoHidden
			m.statusWrites++
			return nil
		}
	}
	return fmt.Errorf("tracked product %s not found", id)
}

func (m *memStore) GetStoreByDomain(_ context.Context, domain string) (*models.StoreAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[domain]; ok {
		return s, nil
	}
	return nil, ErrStoreNotFound
}

func (m *memStore) GetOverride(_ context.Context, storeID string, productID int64) (*models.ProductOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overrides[productKey(storeID, productID)], nil
}

func (m *memStore) DeleteProduct(_ context.Context, storeID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, productKey(storeID, productID))
	for k, e := range m.index {
		if e.StoreID == storeID && e.ProductID == productID {
			delete(m.index, k)
		}
	}
	return nil
}

func (m *memStore) UninstallStore(_ context.Context, storeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for d, s := range m.stores {
		if s.ID == storeID {
			delete(m.stores, d)
		}
	}
	for k, p := range m.products {
		if p.StoreID == storeID {
			delete(m.products, k)
		}
	}
	return nil
}

func (m *memStore) tracked(storeID string, productID int64) *models.TrackedProduct {
	p, _ := m.GetTrackedProduct(context.Background(), storeID, productID)
	return p
}

// fakeCatalog serves products from memory and records calls.
type fakeCatalog struct {
	mu         sync.Mutex
	products   []Product
	pageSize   int
	getErr     error
	listErr    error
	visibleErr error

	getCalls   int
	listCalls  int
	visibility []bool
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (*Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	for i := range c.products {
		if c.products[i].ID == id {
			p := c.products[i]
			p.Variants = append([]Variant(nil), p.Variants...)
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (c *fakeCatalog) ListProducts(_ context.Context, pageSize int, pageInfo string) (*ProductPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	if c.pageSize > 0 {
		pageSize = c.pageSize
	}
	start := 0
	if pageInfo != "" {
		fmt.Sscanf(pageInfo, "%d", &start)
	}
	end := start + pageSize
	if end > len(c.products) {
		end = len(c.products)
	}
	page := &ProductPage{Products: append([]Product(nil), c.products[start:end]...)}
	if end < len(c.products) {
		page.NextPageInfo = fmt.Sprintf("%d", end)
	}
	return page, nil
}

func (c *fakeCatalog) SetProductVisibility(_ context.Context, id int64, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility = append(c.visibility, visible)
	if c.visibleErr != nil {
		return c.visibleErr
	}
	for i := range c.products {
		if c.products[i].ID == id {
			if visible {
				c.products[i].Status = "active"
			} else {
				c.products[i].Status = "draft"
			}
		}
	}
	return nil
}

func (c *fakeCatalog) setQuantities(productID int64, qty ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == productID {
			for j := range qty {
				c.products[i].Variants[j].Quantity = qty[j]
			}
		}
	}
}

func (c *fakeCatalog) CatalogFor(*models.StoreAccount) Catalog {
	return c
}

type recordingDispatcher struct {
	calls []*Reconciliation
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ *models.StoreAccount, _ *models.ProductOverride, rec *Reconciliation) ([]models.AlertRecord, error) {
	d.calls = append(d.calls, rec)
	return nil, nil
}

func testStore() *models.StoreAccount {
	return &models.StoreAccount{
		ID:                   "store-1",
		ShopDomain:           "demo.myshopify.com",
		Plan:                 models.PlanPro,
		LowStockThreshold:    5,
		AutoHideEnabled:      true,
		AutoRepublishEnabled: true,
	}
}

func tshirt() Product {
	return Product{
		ID:     100,
		Title:  "T-Shirt",
		Status: "active",
		Variants: []Variant{
			{ID: 1001, SKU: "TS-S", Quantity: 3, InventoryItemID: 9001},
			{ID: 1002, SKU: "TS-M", Quantity: 4, InventoryItemID: 9002},
			{ID: 1003, SKU: "TS-L", Quantity: 5, InventoryItemID: 9003},
		},
	}
}
