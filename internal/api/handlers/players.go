package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/utils"
)

type PlayerHandler struct {
	db   *database.DB
	pool *services.PoolService
}

func NewPlayerHandler(db *database.DB, pool *services.PoolService) *PlayerHandler {
	return &PlayerHandler{
		db:   db,
		pool: pool,
	}
}

// ListPlayers returns the stored player pool with optional filters
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	role := strings.ToUpper(c.Query("role"))
	team := c.Query("team")
	search := c.Query("search")
	maxPriceStr := c.DefaultQuery("max_price", "0")
	sortBy := c.Query("sort")
	sortOrder := c.DefaultQuery("order", "desc")

	if role != "" && !optimizer.Role(role).Valid() {
		utils.SendValidationError(c, "Invalid role", "role must be one of P, D, C, A")
		return
	}

	maxPrice, err := strconv.ParseFloat(maxPriceStr, 64)
	if err != nil || maxPrice < 0 {
		utils.SendValidationError(c, "Invalid max_price", maxPriceStr)
		return
	}

	players, err := models.ListPlayers(h.db, role, team, search, maxPrice, sortBy, sortOrder)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch players")
		return
	}

	utils.SendSuccessWithMeta(c, players, &utils.Meta{Total: int64(len(players))})
}

// GetPlayer returns a single player by numeric id or external id
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	idParam := c.Param("id")

	var player models.Player
	var err error

	if id, parseErr := strconv.ParseUint(idParam, 10, 32); parseErr == nil {
		err = h.db.First(&player, id).Error
	} else {
		err = h.db.Where("external_id = ?", idParam).First(&player).Error
	}

	if err != nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	utils.SendSuccess(c, player)
}

// GetPoolSummary reports how deep the pool is per role for the active season
func (h *PlayerHandler) GetPoolSummary(c *gin.Context) {
	season := h.pool.Season()

	counts, err := models.CountPlayersByRole(h.db, season)
	if err != nil {
		utils.SendInternalError(c, "Failed to summarize player pool")
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	byRole := make([]gin.H, 0, len(optimizer.Roles))
	for _, role := range optimizer.Roles {
		byRole = append(byRole, gin.H{
			"role":    string(role),
			"label":   role.Label(),
			"players": counts[string(role)],
		})
	}

	utils.SendSuccess(c, gin.H{
		"season":  season,
		"total":   total,
		"by_role": byRole,
	})
}
