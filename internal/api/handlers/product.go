package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	"stockwatch/internal/repository"

	"github.com/gin-gonic/gin"
)

type storeLookup interface {
	GetStoreByDomain(ctx context.Context, shopDomain string) (*models.StoreAccount, error)
}

// StoreRepository is the read/write surface of the admin endpoints.
type StoreRepository interface {
	storeLookup
	ListTrackedProducts(ctx context.Context, storeID string, filter repository.ProductFilter) ([]models.TrackedProduct, int64, error)
	ListAlerts(ctx context.Context, storeID string, filter repository.AlertFilter) ([]models.AlertRecord, error)
	GetOverride(ctx context.Context, storeID string, productID int64) (*models.ProductOverride, error)
	SaveOverride(ctx context.Context, override *models.ProductOverride) error
}

type ProductHandler struct {
	repo   StoreRepository
	logger *logger.Logger
}

func NewProductHandler(repo StoreRepository, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		logger: logger,
	}
}

// loadStore resolves :shop or writes the error response.
func loadStore(c *gin.Context, repo storeLookup, log *logger.Logger) (*models.StoreAccount, bool) {
	store, err := repo.GetStoreByDomain(c.Request.Context(), c.Param("shop"))
	if err != nil {
		if errors.Is(err, inventory.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return nil, false
		}
		log.Error("Failed to load store %s: %v", c.Param("shop"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch store"})
		return nil, false
	}
	return store, true
}

func (h *ProductHandler) List(c *gin.Context) {
	store, ok := loadStore(c, h.repo, h.logger)
	if !ok {
		return
	}

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 250 {
		limit = 50
	}

	filter := repository.ProductFilter{
		Status: models.VisibilityStatus(c.Query("status")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	products, total, err := h.repo.ListTrackedProducts(c.Request.Context(), store.ID, filter)
	if err != nil {
		h.logger.Error("Failed to list products for %s: %v", store.ShopDomain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

type overrideRequest struct {
	ExcludeFromAutoHide *bool `json:"exclude_from_auto_hide"`
	ExcludeFromAlerts   *bool `json:"exclude_from_alerts"`
	CustomThreshold     *int  `json:"custom_threshold"`
	ClearThreshold      bool  `json:"clear_threshold"`
}

// UpdateOverride merges the request into the product's override. Fields left
// out of the request keep their stored value.
func (h *ProductHandler) UpdateOverride(c *gin.Context) {
	store, ok := loadStore(c, h.repo, h.logger)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CustomThreshold != nil && *req.CustomThreshold < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "custom_threshold must not be negative"})
		return
	}

	override, err := h.repo.GetOverride(c.Request.Context(), store.ID, productID)
	if err != nil {
		h.logger.Error("Failed to load override for %s/%d: %v", store.ShopDomain, productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch override"})
		return
	}
	if override == nil {
		override = &models.ProductOverride{StoreID: store.ID, ProductID: productID}
	}
	if req.ExcludeFromAutoHide != nil {
		override.ExcludeFromAutoHide = *req.ExcludeFromAutoHide
	}
	if req.ExcludeFromAlerts != nil {
		override.ExcludeFromAlerts = *req.ExcludeFromAlerts
	}
	if req.CustomThreshold != nil {
		override.CustomThreshold = req.CustomThreshold
	}
	if req.ClearThreshold {
		override.CustomThreshold = nil
	}

	if err := h.repo.SaveOverride(c.Request.Context(), override); err != nil {
		h.logger.Error("Failed to save override for %s/%d: %v", store.ShopDomain, productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save override"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": override})
}

func (h *ProductHandler) Alerts(c *gin.Context) {
	store, ok := loadStore(c, h.repo, h.logger)
	if !ok {
		return
	}

	filter := repository.AlertFilter{}
	filter.ProductID, _ = strconv.ParseInt(c.Query("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	records, err := h.repo.ListAlerts(c.Request.Context(), store.ID, filter)
	if err != nil {
		h.logger.Error("Failed to list alerts for %s: %v", store.ShopDomain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}
