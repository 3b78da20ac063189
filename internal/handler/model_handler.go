package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/platform/response"
)

// ModelHandler exposes allocation model maintenance.
type ModelHandler struct {
	service *application.ModelService
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(service *application.ModelService) *ModelHandler {
	return &ModelHandler{service: service}
}

// RegisterRoutes registers model routes.
func (h *ModelHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/api/model/retrain", h.Retrain)
}

// Retrain handles POST /api/model/retrain.
func (h *ModelHandler) Retrain(c *gin.Context) {
	result, err := h.service.Retrain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
