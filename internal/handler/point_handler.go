package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/middleware"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/service"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

var errInvalidTime = errors.New("time must be RFC3339 or YYYY-MM-DDTHH:mm:ss:ffffff")

// legacyTime matches the client format 2025-11-08T10:30:00:000000, where the
// last field is microseconds.
var legacyTime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}):(\d{6})$`)

// parseReportTime accepts RFC3339 or the legacy colon-microsecond form. The
// legacy form carries no zone and is read as UTC.
func parseReportTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	m := legacyTime.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errInvalidTime
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", m[1], time.UTC)
	if err != nil {
		return time.Time{}, errInvalidTime
	}
	micros, _ := strconv.Atoi(m[2])
	return t.Add(time.Duration(micros) * time.Microsecond), nil
}

// createPointRequest is the body of POST /api/points
type createPointRequest struct {
	UUID string   `json:"uuid" binding:"required"`
	Time string   `json:"time" binding:"required"`
	Lat  *float64 `json:"lat" binding:"required"`
	Lon  *float64 `json:"lon" binding:"required"`
	Type string   `json:"type" binding:"required"`
}

// deletePointRequest is the body of DELETE /api/points
type deletePointRequest struct {
	UUID  string `json:"uuid" binding:"required"`
	UUUID string `json:"uuuid" binding:"required"`
}

// PointHandler handles HTTP requests for danger points
type PointHandler struct {
	pointService *service.DangerPointService
}

// NewPointHandler creates a new point handler
func NewPointHandler(pointService *service.DangerPointService) *PointHandler {
	return &PointHandler{
		pointService: pointService,
	}
}

// CreatePoint handles POST /api/points
func (h *PointHandler) CreatePoint(c *gin.Context) {
	var req createPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: uuid, time, lat, lon, type")
		return
	}

	category, err := models.ParseCategory(req.Type)
	if err != nil {
		response.BadRequest(c, "Type must be one of: light, few, monitor, dangerous")
		return
	}
	observedAt, err := parseReportTime(req.Time)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := middleware.AuthorizeOwner(c, req.UUID); err != nil {
		response.Error(c, err)
		return
	}

	point, err := h.pointService.Submit(c.Request.Context(), models.SubmitReport{
		OwnerID:    req.UUID,
		Lat:        *req.Lat,
		Lng:        *req.Lon,
		Category:   category,
		ObservedAt: observedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, point, "Point created successfully")
}

// GetPointsByUUID handles GET /api/points/:uuid
func (h *PointHandler) GetPointsByUUID(c *gin.Context) {
	list, err := h.pointService.List(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, list, "Points retrieved successfully")
}

// DeletePoint handles DELETE /api/points
func (h *PointHandler) DeletePoint(c *gin.Context) {
	var req deletePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: uuid, uuuid")
		return
	}
	if err := middleware.AuthorizeOwner(c, req.UUID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.pointService.Remove(c.Request.Context(), req.UUID, req.UUUID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, result, "Point deleted successfully")
}
