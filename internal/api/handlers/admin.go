package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/utils"
)

type AdminHandler struct {
	cache   *services.CacheService
	pool    *services.PoolService
	refresh *services.RefreshService
}

func NewAdminHandler(cache *services.CacheService, pool *services.PoolService, refresh *services.RefreshService) *AdminHandler {
	return &AdminHandler{
		cache:   cache,
		pool:    pool,
		refresh: refresh,
	}
}

// TriggerRefresh starts an immediate roster refresh in the background
func (h *AdminHandler) TriggerRefresh(c *gin.Context) {
	h.refresh.RefreshNow()

	c.JSON(http.StatusAccepted, utils.Response{
		Success: true,
		Data: gin.H{
			"message": "Roster refresh started",
			"status":  h.refresh.Status(),
		},
	})
}

// GetRefreshStatus reports the scheduler state and recent refresh outcomes
func (h *AdminHandler) GetRefreshStatus(c *gin.Context) {
	utils.SendSuccess(c, h.refresh.Status())
}

// GetCacheStats returns cache key counts and connection pool numbers
func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to read cache stats")
		return
	}

	utils.SendSuccess(c, stats)
}

// ClearCache flushes cached entries, optionally scoped to one key family
func (h *AdminHandler) ClearCache(c *gin.Context) {
	ctx := c.Request.Context()

	switch scope := c.DefaultQuery("scope", "all"); scope {
	case "pool":
		if err := h.pool.InvalidatePool(ctx); err != nil {
			utils.SendInternalError(c, "Failed to invalidate player pool")
			return
		}
		utils.SendSuccess(c, gin.H{"message": "Pool cache cleared", "scope": scope})

	case "results":
		var deleted int64
		for _, pattern := range []string{"optimization:*", "compare:*"} {
			n, err := h.cache.DeleteByPattern(ctx, pattern)
			if err != nil {
				utils.SendInternalError(c, "Failed to clear result cache")
				return
			}
			deleted += n
		}
		utils.SendSuccess(c, gin.H{"message": "Result cache cleared", "scope": scope, "deleted_keys": deleted})

	case "all":
		if err := h.pool.InvalidatePool(ctx); err != nil {
			utils.SendInternalError(c, "Failed to invalidate player pool")
			return
		}
		if err := h.cache.Flush(); err != nil {
			utils.SendInternalError(c, "Failed to flush cache")
			return
		}
		utils.SendSuccess(c, gin.H{"message": "Cache cleared", "scope": scope})

	default:
		utils.SendValidationError(c, "Invalid cache scope", "scope must be one of pool, results, all")
	}
}
