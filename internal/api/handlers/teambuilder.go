package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
	"github.com/daviserra-code/Fantacalcio-AI/internal/services"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/utils"
)

type TeamBuilderHandler struct {
	builder *services.TeamBuilderService
}

func NewTeamBuilderHandler(builder *services.TeamBuilderService) *TeamBuilderHandler {
	return &TeamBuilderHandler{builder: builder}
}

// BuildTeam runs the genetic optimizer and returns a complete roster
func (h *TeamBuilderHandler) BuildTeam(c *gin.Context) {
	var req services.TeamBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if req.Formation != "" {
		if _, err := fanta.ParseFormation(req.Formation); err != nil {
			utils.SendValidationError(c, "Invalid formation", err.Error())
			return
		}
	}
	if req.Budget < 0 {
		utils.SendValidationError(c, "Invalid budget", "budget must not be negative")
		return
	}
	if req.MaxGenerations < 0 || req.MaxGenerations > 500 {
		utils.SendValidationError(c, "Invalid max_generations", "must be between 0 and 500")
		return
	}
	if req.TimeoutMs < 0 {
		utils.SendValidationError(c, "Invalid timeout_ms", "must not be negative")
		return
	}
	if req.Objectives != nil {
		if err := req.Objectives.Validate(); err != nil {
			utils.SendValidationError(c, "Invalid objective weights", err.Error())
			return
		}
	}

	result, err := h.builder.BuildTeam(c.Request.Context(), req)
	if err != nil {
		if optimizer.IsInfeasible(err) {
			utils.SendUnprocessable(c, "Roster constraints cannot be satisfied", err.Error())
			return
		}
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeOptimization, "Team build failed", err.Error()))
		return
	}

	utils.SendSuccess(c, result)
}

// CompareFormations builds one roster per candidate formation and ranks the outcomes
func (h *TeamBuilderHandler) CompareFormations(c *gin.Context) {
	var req services.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	for _, name := range req.Formations {
		if _, err := fanta.ParseFormation(name); err != nil {
			utils.SendValidationError(c, "Invalid formation", err.Error())
			return
		}
	}
	if req.Budget < 0 {
		utils.SendValidationError(c, "Invalid budget", "budget must not be negative")
		return
	}
	if req.Objectives != nil {
		if err := req.Objectives.Validate(); err != nil {
			utils.SendValidationError(c, "Invalid objective weights", err.Error())
			return
		}
	}

	result, err := h.builder.CompareFormations(c.Request.Context(), req)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeOptimization, "Formation comparison failed", err.Error()))
		return
	}

	utils.SendSuccess(c, result)
}
