package routers

import (
	"strconv"

	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentHandler 审计评论处理器
type CommentHandler struct {
	db       *gorm.DB
	comments *service.CommentService
}

// NewCommentHandler 创建审计评论处理器
func NewCommentHandler(db *gorm.DB, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		db:       db,
		comments: service.NewCommentService(db, logger),
	}
}

// RegisterRoutes 注册路由
func (h *CommentHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group(RouteGroupComments)

	group.POST("", h.AddComment)
	group.GET("", h.ListComments)
	group.PUT(RouteParamID, h.EditComment)
	group.DELETE(RouteParamID, h.DeleteComment)
	group.GET(RouteParamID+SubRouteHistory, h.EditHistory)
}

// AddComment 发表评论
// @Summary 在工作包下发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Success 200 {object} render.Response
// @Router /fe-v1/comments [post]
func (h *CommentHandler) AddComment(c *gin.Context) {
	var body struct {
		SetID       int64  `json:"setId" binding:"required"`
		Content     string `json:"content" binding:"required"`
		RepliedToID *int64 `json:"repliedToId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	comment, err := h.comments.AddComment(body.SetID, currentActor(c, h.db), body.Content, true, body.RepliedToID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, comment)
}

// ListComments 查询工作包可见评论
// @Summary 查询工作包的可见评论，按时间正序
// @Tags 评论
// @Produce json
// @Param setId query int true "工作包ID"
// @Param humanOnly query bool false "仅人工评论"
// @Success 200 {object} render.Response
// @Router /fe-v1/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	raw := c.Query("setId")
	setID, err := strconv.ParseInt(raw, Base10, BitSize64)
	if err != nil || setID <= 0 {
		render.BadRequest(c, MsgInvalidQueryParams+raw)
		return
	}

	if c.Query("humanOnly") == "true" {
		comments, err := h.comments.HumanComments(setID)
		if err != nil {
			renderServiceError(c, err)
			return
		}
		render.Success(c, comments)
		return
	}

	comments, err := h.comments.VisibleComments(setID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, comments)
}

// EditComment 编辑评论
// @Summary 编辑本人评论，旧版本转入编辑链
// @Tags 评论
// @Accept json
// @Produce json
// @Param id path int true "评论ID"
// @Success 200 {object} render.Response
// @Failure 403 {object} render.Response
// @Router /fe-v1/comments/{id} [put]
func (h *CommentHandler) EditComment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	comment, err := h.comments.EditComment(id, currentActor(c, h.db), body.Content)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, comment)
}

// DeleteComment 删除评论（软删除）
// @Summary 删除本人评论
// @Tags 评论
// @Produce json
// @Param id path int true "评论ID"
// @Success 200 {object} render.Response
// @Failure 403 {object} render.Response
// @Router /fe-v1/comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgDeletedSuccess, nil)
}

// EditHistory 查询评论编辑历史
// @Summary 查询评论完整编辑链，最早版本在前
// @Tags 评论
// @Produce json
// @Param id path int true "评论ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/comments/{id}/history [get]
func (h *CommentHandler) EditHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	history, err := h.comments.EditHistory(id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, history)
}
