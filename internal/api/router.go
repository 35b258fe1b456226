package api

import (
	"github.com/gin-gonic/gin"

	"github.com/daviserra-code/Fantacalcio-AI/internal/api/handlers"
	"github.com/daviserra-code/Fantacalcio-AI/internal/api/middleware"
	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/config"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(
	group *gin.RouterGroup,
	db *database.DB,
	cache *services.CacheService,
	cfg *config.Config,
	pool *services.PoolService,
	builder *services.TeamBuilderService,
	refresh *services.RefreshService,
) {
	// Initialize handlers
	teamBuilderHandler := handlers.NewTeamBuilderHandler(builder)
	playerHandler := handlers.NewPlayerHandler(db, pool)
	formationHandler := handlers.NewFormationHandler()
	runHandler := handlers.NewRunHandler(db)
	adminHandler := handlers.NewAdminHandler(cache, pool, refresh)

	// Team builder endpoints
	group.POST("/team-builder", teamBuilderHandler.BuildTeam)
	group.POST("/team-builder/compare", teamBuilderHandler.CompareFormations)
	group.GET("/team-builder/runs", runHandler.ListRuns)
	group.GET("/team-builder/runs/:id", runHandler.GetRun)

	// Player pool endpoints
	group.GET("/players", playerHandler.ListPlayers)
	group.GET("/players/summary", playerHandler.GetPoolSummary)
	group.GET("/players/:id", playerHandler.GetPlayer)

	// Formation catalog
	group.GET("/formations", formationHandler.ListFormations)

	// Admin endpoints, bearer token with admin scope
	admin := group.Group("/admin")
	admin.Use(middleware.AdminRequired(cfg.JWTSecret))
	{
		admin.POST("/roster/refresh", adminHandler.TriggerRefresh)
		admin.GET("/roster/status", adminHandler.GetRefreshStatus)
		admin.GET("/cache/stats", adminHandler.GetCacheStats)
		admin.POST("/cache/clear", adminHandler.ClearCache)
	}

	// The websocket endpoint lives at the root level, not under /api/v1;
	// main.go registers it next to /health
}
