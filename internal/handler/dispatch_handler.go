package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/platform/response"
)

// DispatchHandler serves the ambulance prediction endpoints.
type DispatchHandler struct {
	service *application.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(service *application.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// RegisterRoutes registers the home and prediction routes.
func (h *DispatchHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Home)
	r.POST("/predict", h.FindNearest)
	r.POST("/api/predict-ambulance", h.Predict)
}

// Home handles GET /.
func (h *DispatchHandler) Home(c *gin.Context) {
	response.Success(c, gin.H{
		"message": "Welcome to the Ambulance Allocation API",
		"status":  "running",
	})
}

// FindNearest handles POST /predict.
func (h *DispatchHandler) FindNearest(c *gin.Context) {
	var req application.NearestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required parameters")
		return
	}

	result, err := h.service.FindNearest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Predict handles POST /api/predict-ambulance.
func (h *DispatchHandler) Predict(c *gin.Context) {
	var req application.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required location data")
		return
	}

	result, err := h.service.Predict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
