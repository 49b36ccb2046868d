package handler

import (
	"errors"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/api/middleware"
	"reconova-go/internal/api/response"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 用户注册
// @Summary 用户注册
// @Description 使用邮箱和密码注册新用户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册信息"
// @Success 201 {object} response.Response "注册成功"
// @Failure 400 {object} response.ErrorResponse "邮箱已注册"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, err := h.authService.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.BadRequest(c, err.Error())
			return
		}
		logger.Error("Register failed", zap.Error(err))
		response.InternalError(c, "注册失败，请稍后重试")
		return
	}

	response.Created(c, "注册成功", info)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，返回 Bearer Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} response.Response "登录成功"
// @Failure 403 {object} response.ErrorResponse "邮箱或密码错误"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredential) {
			response.Forbidden(c, err.Error())
			return
		}
		logger.Error("Login failed", zap.Error(err))
		response.InternalError(c, "登录失败，请稍后重试")
		return
	}

	response.OK(c, "登录成功", data)
}

// Me 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "获取成功"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := middleware.GetCurrentUserID(c)

	info, err := h.authService.GetCurrentUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		logger.Error("Get current user failed", zap.Error(err))
		response.InternalError(c, "获取用户信息失败")
		return
	}

	response.OK(c, "获取当前用户成功", info)
}
