package handler

import (
	"errors"
	"strconv"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/api/response"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VideoHandler struct {
	videoService *service.VideoService
}

func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// Upsert 写入视频
// @Summary 写入视频
// @Description 按 pixabay_id 幂等写入视频元数据，管理员/采集器专用
// @Tags 视频
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VideoUpsertRequest true "视频元数据"
// @Success 201 {object} response.Response "新建成功"
// @Success 200 {object} response.Response "已存在，元数据已更新"
// @Router /videos [post]
func (h *VideoHandler) Upsert(c *gin.Context) {
	var req dto.VideoUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, created, err := h.videoService.Upsert(&req)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	if created {
		response.Created(c, "视频创建成功", info)
		return
	}
	response.OK(c, "视频元数据已更新", info)
}

// List 视频列表
// @Summary 视频列表
// @Description 分页浏览视频目录，最新在前
// @Tags 视频
// @Produce json
// @Param skip query int false "偏移量" default(0)
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response{data=dto.VideoListData} "获取成功"
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	skip, limit := parseSkipLimit(c)

	data, err := h.videoService.List(skip, limit)
	if err != nil {
		logger.Error("List videos failed", zap.Error(err))
		response.InternalError(c, "获取视频列表失败")
		return
	}

	response.OK(c, "获取视频列表成功", data)
}

// Search 视频搜索
// @Summary 视频搜索
// @Description 按关键词搜索视频标题与描述，ES 不可用时降级到数据库
// @Tags 视频
// @Produce json
// @Param q query string true "关键词"
// @Param skip query int false "偏移量" default(0)
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response{data=dto.VideoListData} "搜索成功"
// @Router /videos/search [get]
func (h *VideoHandler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		response.BadRequest(c, "缺少搜索关键词")
		return
	}

	skip, limit := parseSkipLimit(c)

	data, err := h.videoService.Search(keyword, skip, limit)
	if err != nil {
		logger.Error("Search videos failed", zap.String("keyword", keyword), zap.Error(err))
		response.InternalError(c, "搜索视频失败")
		return
	}

	response.OK(c, "搜索视频成功", data)
}

// GetDetail 视频详情
// @Summary 视频详情
// @Tags 视频
// @Produce json
// @Param video_id path int true "视频ID"
// @Success 200 {object} response.Response "获取成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{video_id} [get]
func (h *VideoHandler) GetDetail(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	info, err := h.videoService.GetByID(videoID)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取视频详情成功", info)
}

// Delete 删除视频
// @Summary 删除视频
// @Description 删除视频及其全部互动记录（级联），并触发媒体清理，管理员专用
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param video_id path int true "视频ID"
// @Success 200 {object} response.Response "删除成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{video_id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	if err := h.videoService.Delete(videoID); err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "视频删除成功", gin.H{"video_id": videoID})
}

func handleVideoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.Error("Video operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
