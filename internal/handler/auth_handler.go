package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/safewalk-backend/internal/middleware"
	"github.com/jengzang/safewalk-backend/internal/service"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

type registerRequest struct {
	Account string `json:"account" binding:"required"`
	IDNo    string `json:"idNo" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

type loginRequest struct {
	UUID string `json:"uuid" binding:"required"`
	IDNo string `json:"idNo" binding:"required"`
}

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	identityService *service.IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identityService *service.IdentityService) *AuthHandler {
	return &AuthHandler{identityService: identityService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: account, idNo, name")
		return
	}

	session, err := h.identityService.Register(c.Request.Context(), req.Account, req.IDNo, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, session, "Registration successful")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: uuid, idNo")
		return
	}

	session, err := h.identityService.Login(c.Request.Context(), req.UUID, req.IDNo)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, session, "Login successful")
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity, err := h.identityService.Me(c.Request.Context(), middleware.IdentityID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, identity)
}
