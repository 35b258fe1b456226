package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daviserra-code/Fantacalcio-AI/internal/models"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/database"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/utils"
)

type RunHandler struct {
	db *database.DB
}

func NewRunHandler(db *database.DB) *RunHandler {
	return &RunHandler{db: db}
}

// ListRuns returns recent optimization runs, newest first
func (h *RunHandler) ListRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid limit", limitStr)
		return
	}

	runs, err := models.RecentRuns(h.db, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch runs")
		return
	}

	utils.SendSuccessWithMeta(c, runs, &utils.Meta{Total: int64(len(runs))})
}

// GetRun returns a single optimization run by id
func (h *RunHandler) GetRun(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid run ID", err.Error())
		return
	}

	run, err := models.GetRun(h.db, id)
	if err != nil {
		utils.SendNotFound(c, "Run not found")
		return
	}

	utils.SendSuccess(c, run)
}
