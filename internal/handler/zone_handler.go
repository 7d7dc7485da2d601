package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/analysis/zones"
	"github.com/jengzang/safewalk-backend/internal/service"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

// dangerZoneRequest is the body of POST /api/danger-zones. Tuning fields are
// optional and default from the radius.
type dangerZoneRequest struct {
	Lat                 *float64 `json:"lat" binding:"required"`
	Lng                 *float64 `json:"lng" binding:"required"`
	Radius              *float64 `json:"radius" binding:"required"`
	Eps                 *float64 `json:"eps"`
	MinPoints           *int     `json:"minpoints"`
	MaxPointsPerCluster *int     `json:"maxPointsPerCluster"`
}

// ZoneHandler handles danger-zone queries
type ZoneHandler struct {
	zoneService *service.DangerZoneService
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(zoneService *service.DangerZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// GetDangerZones handles POST /api/danger-zones
func (h *ZoneHandler) GetDangerZones(c *gin.Context) {
	var req dangerZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: lat, lng, radius")
		return
	}

	summary, err := h.zoneService.Query(c.Request.Context(), zones.Query{
		Lat:            *req.Lat,
		Lng:            *req.Lng,
		Radius:         *req.Radius,
		Eps:            req.Eps,
		MinPoints:      req.MinPoints,
		MaxClusterSize: req.MaxPointsPerCluster,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}
