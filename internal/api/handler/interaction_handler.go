package handler

import (
	"errors"
	"strconv"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/api/middleware"
	"reconova-go/internal/api/response"
	"reconova-go/internal/model"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
	userService        *service.UserService
}

func NewInteractionHandler(interactionService *service.InteractionService, userService *service.UserService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		userService:        userService,
	}
}

// Record 记录互动
// @Summary 记录互动
// @Description 记录当前用户对视频的一次互动（view/like/complete/bookmark/share），重复提交幂等返回已有记录
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RecordInteractionRequest true "互动内容"
// @Success 201 {object} response.Response "新记录"
// @Success 200 {object} response.Response "此前已记录"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Failure 422 {object} response.ErrorResponse "行为类型不合法"
// @Router /interactions [post]
func (h *InteractionHandler) Record(c *gin.Context) {
	var req dto.RecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	// 互动归属取认证身份，请求体里不接受 user_id
	userID, _ := middleware.GetCurrentUserID(c)

	info, isNew, err := h.interactionService.Record(userID, req.VideoID, model.ActionKind(req.Action), req.Timestamp)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	if isNew {
		response.Created(c, "互动已记录", info)
		return
	}
	response.OK(c, "互动此前已记录", info)
}

// UserHistory 用户互动历史
// @Summary 用户互动历史
// @Description 查询指定用户的互动记录，时间倒序，仅本人或管理员可见
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "用户ID"
// @Param action query string false "行为类型过滤"
// @Param skip query int false "偏移量" default(0)
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response "查询成功"
// @Failure 403 {object} response.ErrorResponse "无权查看"
// @Router /users/{user_id}/interactions [get]
func (h *InteractionHandler) UserHistory(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	currentID, _ := middleware.GetCurrentUserID(c)
	if currentID != targetID {
		isAdmin, aerr := h.userService.IsAdmin(currentID)
		if aerr != nil || !isAdmin {
			response.Forbidden(c, "只能查看自己的互动记录")
			return
		}
	}

	action, ok := parseActionFilter(c)
	if !ok {
		return
	}
	skip, limit := parseSkipLimit(c)

	data, err := h.interactionService.ListByUser(targetID, action, skip, limit)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	response.OK(c, "获取互动历史成功", data)
}

// VideoEvents 视频互动事件
// @Summary 视频互动事件
// @Description 查询指定视频的互动记录，时间倒序，管理员专用
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param video_id path int true "视频ID"
// @Param action query string false "行为类型过滤"
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response "查询成功"
// @Router /videos/{video_id}/interactions [get]
func (h *InteractionHandler) VideoEvents(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	action, ok := parseActionFilter(c)
	if !ok {
		return
	}
	_, limit := parseSkipLimit(c)

	data, err := h.interactionService.ListByVideo(videoID, action, limit)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	response.OK(c, "获取视频互动事件成功", data)
}

// GetStatus 查询互动状态
// @Summary 查询互动状态
// @Description 查询当前用户对视频是否已记录某一行为（如“是否点过赞”）
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param video_id path int true "视频ID"
// @Param action query string true "行为类型"
// @Success 200 {object} response.Response "查询成功"
// @Router /videos/{video_id}/interactions/status [get]
func (h *InteractionHandler) GetStatus(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	userID, _ := middleware.GetCurrentUserID(c)
	action := model.ActionKind(c.Query("action"))

	recorded, err := h.interactionService.GetStatus(userID, videoID, action)
	if err != nil {
		handleInteractionError(c, err)
		return
	}

	response.OK(c, "查询互动状态成功", gin.H{
		"video_id": videoID,
		"action":   action,
		"recorded": recorded,
	})
}

// parseActionFilter 解析可选的行为类型过滤参数，不合法时直接写响应
func parseActionFilter(c *gin.Context) (*model.ActionKind, bool) {
	raw := c.Query("action")
	if raw == "" {
		return nil, true
	}
	action := model.ActionKind(raw)
	if !action.Valid() {
		response.UnprocessableEntity(c, "不支持的互动行为类型: "+raw)
		return nil, false
	}
	return &action, true
}

// parseSkipLimit 解析分页参数，limit 上限 100
func parseSkipLimit(c *gin.Context) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}

func handleInteractionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAction):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.Error("Interaction operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
