package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-advisor/internal/domain"
	"career-advisor/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios y sesión.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
	}
}

// CreateUser maneja POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Email          string `json:"email" binding:"required,email"`
		DisplayName    string `json:"display_name"`
		Password       string `json:"password" binding:"required"`
		EducationLevel string `json:"education_level"`
		Location       string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "create user", err)
		return
	}

	user, err := h.userServ.CreateUser(c.Request.Context(), service.CreateUserInput{
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		Password:       req.Password,
		EducationLevel: req.EducationLevel,
		Location:       req.Location,
	})
	if err != nil {
		writeServiceError(c, h.logger, err, "could not create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login maneja POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "login", err)
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not login")
		return
	}

	tokens, err := h.issueTokens(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// RefreshToken maneja POST /auth/refresh.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "refresh", err)
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "logout", err)
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	_ = h.jwtServ.RevokeRefresh(c.Request.Context(), req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// ListSkills maneja GET /me/skills.
func (h *UserHandler) ListSkills(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	skills, err := h.userServ.ListSkills(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not list skills")
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// SetSkill maneja PUT /me/skills.
func (h *UserHandler) SetSkill(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req service.SetSkillInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "set skill", err)
		return
	}
	skill, err := h.userServ.SetSkill(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, h.logger, err, "could not save skill")
		return
	}
	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

func (h *UserHandler) issueTokens(ctx context.Context, user domain.User) (service.TokenPair, error) {
	if h.jwtServ == nil {
		return service.TokenPair{}, errors.New("jwt not configured")
	}
	return h.jwtServ.GeneratePair(ctx, user)
}
