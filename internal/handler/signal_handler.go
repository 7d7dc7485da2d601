package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/service"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

// submitSignalRequest is the body of POST /api/signals. The grid is named
// directly or located from lat/lng.
type submitSignalRequest struct {
	GridID   string     `json:"gridId"`
	Lat      *float64   `json:"lat"`
	Lng      *float64   `json:"lng"`
	Signal   string     `json:"signal" binding:"required"`
	Timeslot *time.Time `json:"timeslot"`
}

// SignalHandler handles grid safety signals
type SignalHandler struct {
	signalService *service.SignalService
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signalService *service.SignalService) *SignalHandler {
	return &SignalHandler{signalService: signalService}
}

// SubmitSignal handles POST /api/signals
func (h *SignalHandler) SubmitSignal(c *gin.Context) {
	var req submitSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	signal, err := models.ParseSignalType(req.Signal)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	gridID := req.GridID
	if gridID == "" {
		if req.Lat == nil || req.Lng == nil {
			response.BadRequest(c, "Either gridId or lat and lng are required")
			return
		}
		grid, err := h.signalService.Locate(*req.Lat, *req.Lng)
		if err != nil {
			response.Error(c, err)
			return
		}
		gridID = grid.GridID
	}

	record, err := h.signalService.Submit(c.Request.Context(), gridID, signal, req.Timeslot)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, record, "Signal recorded")
}

// GetSignalStats handles GET /api/signals/:gridId
func (h *SignalHandler) GetSignalStats(c *gin.Context) {
	var timeslot *time.Time
	if raw := c.Query("timeslot"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "timeslot must be an RFC3339 timestamp")
			return
		}
		timeslot = &t
	}

	stats, err := h.signalService.Stats(c.Request.Context(), c.Param("gridId"), timeslot)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// LocateGrid handles GET /api/grids/locate?lat=&lng=
func (h *SignalHandler) LocateGrid(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "Invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		response.BadRequest(c, "Invalid lng parameter")
		return
	}

	grid, err := h.signalService.Locate(lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, grid)
}
