package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/daviserra-code/Fantacalcio-AI/internal/fanta"
	"github.com/daviserra-code/Fantacalcio-AI/pkg/utils"
)

type FormationHandler struct{}

func NewFormationHandler() *FormationHandler {
	return &FormationHandler{}
}

// ListFormations returns every supported module with its role quotas
func (h *FormationHandler) ListFormations(c *gin.Context) {
	utils.SendSuccess(c, fanta.FormationCatalog())
}
