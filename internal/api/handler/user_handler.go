package handler

import (
	"errors"
	"strconv"

	"reconova-go/internal/api/middleware"
	"reconova-go/internal/api/response"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUser 获取用户信息
// @Summary 获取用户信息
// @Description 查询指定用户的公开信息，仅本人或管理员可见
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "用户ID"
// @Success 200 {object} response.Response "获取成功"
// @Failure 404 {object} response.ErrorResponse "用户不存在"
// @Router /users/{user_id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	currentID, _ := middleware.GetCurrentUserID(c)
	if currentID != targetID {
		isAdmin, aerr := h.userService.IsAdmin(currentID)
		if aerr != nil || !isAdmin {
			response.Forbidden(c, "只能查看自己的用户信息")
			return
		}
	}

	info, err := h.userService.GetUser(targetID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		logger.Error("Get user failed", zap.Error(err))
		response.InternalError(c, "获取用户信息失败")
		return
	}

	response.OK(c, "获取用户信息成功", info)
}

// ListUsers 用户列表
// @Summary 用户列表
// @Description 分页查询全部用户，管理员专用
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量" default(0)
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response "获取成功"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	skip, limit := parseSkipLimit(c)

	data, err := h.userService.List(skip, limit)
	if err != nil {
		logger.Error("List users failed", zap.Error(err))
		response.InternalError(c, "获取用户列表失败")
		return
	}

	response.OK(c, "获取用户列表成功", data)
}
