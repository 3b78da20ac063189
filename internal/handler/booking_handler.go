package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SevaDrive/service-ambulance/internal/application"
	"github.com/SevaDrive/service-ambulance/internal/platform/response"
	"github.com/SevaDrive/service-ambulance/internal/routing"
)

const statusSourceAPI = "api"

// BookingHandler handles HTTP requests for emergency bookings.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes.
func (h *BookingHandler) RegisterRoutes(r gin.IRouter) {
	bookings := r.Group("/api/emergency-booking")
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/stats", h.BookingStats)
		bookings.POST("/create", h.CreateBooking)
		bookings.GET("/status/:id", h.GetBooking)
		bookings.PUT("/status/:id", h.UpdateStatus)
		bookings.GET("/route/:id", h.RouteKML)
	}
}

// CreateBooking handles POST /api/emergency-booking/create.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "No data provided")
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetBooking handles GET /api/emergency-booking/status/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	result, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PUT /api/emergency-booking/status/:id.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req application.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status is required")
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, statusSourceAPI)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RouteKML handles GET /api/emergency-booking/route/:id.
func (h *BookingHandler) RouteKML(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.service.RouteKML(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+id+`.kml"`)
	c.Data(http.StatusOK, routing.KMLContentType, doc)
}

// ListBookings handles GET /api/emergency-booking.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/emergency-booking/stats.
func (h *BookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
