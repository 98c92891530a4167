package handlers

import (
	"context"
	"net/http"

	"stockwatch/internal/inventory"
	"stockwatch/internal/logger"
	"stockwatch/internal/models"
	"stockwatch/internal/quota"

	"github.com/gin-gonic/gin"
)

type PlanEnforcer interface {
	Enforce(ctx context.Context, storeID string, plan models.Plan) (*quota.Result, error)
}

type StoreSyncer interface {
	SyncStore(ctx context.Context, store *models.StoreAccount, pageSize int) (*inventory.SyncResult, error)
}

type StoreHandler struct {
	repo     StoreRepository
	enforcer PlanEnforcer
	syncer   StoreSyncer
	pageSize int
	logger   *logger.Logger
}

func NewStoreHandler(repo StoreRepository, enforcer PlanEnforcer, syncer StoreSyncer, pageSize int, logger *logger.Logger) *StoreHandler {
	return &StoreHandler{
		repo:     repo,
		enforcer: enforcer,
		syncer:   syncer,
		pageSize: pageSize,
		logger:   logger,
	}
}

// ChangePlan records a plan change and enforces its product limit.
func (h *StoreHandler) ChangePlan(c *gin.Context) {
	store, ok := loadStore(c, h.repo, h.logger)
	if !ok {
		return
	}

	var req struct {
		Plan models.Plan `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !quota.Valid(req.Plan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	result, err := h.enforcer.Enforce(c.Request.Context(), store.ID, req.Plan)
	if err != nil {
		h.logger.Error("Failed to enforce plan %s for %s: %v", req.Plan, store.ShopDomain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Sync walks the store's catalog and refreshes every tracked product.
func (h *StoreHandler) Sync(c *gin.Context) {
	store, ok := loadStore(c, h.repo, h.logger)
	if !ok {
		return
	}

	result, err := h.syncer.SyncStore(c.Request.Context(), store, h.pageSize)
	if err != nil {
		h.logger.Error("Failed to sync %s: %v", store.ShopDomain, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to sync products", "data": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
