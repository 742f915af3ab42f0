package routers

import (
	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActionHandler 维护步骤处理器
type ActionHandler struct {
	db           *gorm.DB
	actions      *service.ActionService
	orchestrator *service.Orchestrator
}

// NewActionHandler 创建维护步骤处理器
func NewActionHandler(db *gorm.DB, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{
		db:           db,
		actions:      service.NewActionService(db, logger),
		orchestrator: service.NewOrchestrator(db, logger),
	}
}

// RegisterRoutes 注册路由
func (h *ActionHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group(RouteGroupActions)

	group.POST("", h.CreateAction)
	group.POST(RouteParamID+"/duplicate", h.DuplicateAction)
	group.DELETE(RouteParamID, h.DeleteAction)
	group.POST(RouteParamID+SubRouteReorder, h.ReorderAction)
	group.PUT(RouteParamIDStatus, h.UpdateStatus)
	group.PUT(RouteParamID, h.EditAction)
}

// CreateAction 创建维护步骤
// @Summary 在工作包中创建步骤
// @Tags 维护步骤
// @Accept json
// @Produce json
// @Param request body service.ActionCreateDTO true "步骤信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/actions [post]
func (h *ActionHandler) CreateAction(c *gin.Context) {
	var dto service.ActionCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	action, err := h.actions.CreateBlankAction(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, action)
}

// DuplicateAction 复制维护步骤
// @Summary 复制步骤（含零件与工具需求）
// @Tags 维护步骤
// @Produce json
// @Param id path int true "步骤ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/actions/{id}/duplicate [post]
func (h *ActionHandler) DuplicateAction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	action, err := h.actions.DuplicateAction(id, currentActor(c, h.db))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, action)
}

// DeleteAction 删除维护步骤
// @Summary 删除步骤并压缩序号
// @Tags 维护步骤
// @Produce json
// @Param id path int true "步骤ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/actions/{id} [delete]
func (h *ActionHandler) DeleteAction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.actions.DeleteAction(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgDeletedSuccess, nil)
}

// ReorderAction 调整步骤顺序
// @Summary 将步骤移动到指定序号
// @Tags 维护步骤
// @Accept json
// @Produce json
// @Param id path int true "步骤ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/actions/{id}/reorder [post]
func (h *ActionHandler) ReorderAction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		NewOrder int `json:"newOrder" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.actions.ReorderAction(id, currentActor(c, h.db), body.NewOrder); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// UpdateStatus 步骤状态流转
// @Summary 流转步骤状态并协调零件需求
// @Tags 维护步骤
// @Accept json
// @Produce json
// @Param id path int true "步骤ID"
// @Param request body service.ActionStatusUpdateDTO true "状态流转信息"
// @Success 200 {object} render.Response
// @Failure 409 {object} render.Response
// @Router /fe-v1/actions/{id}/status [put]
func (h *ActionHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.ActionStatusUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.orchestrator.UpdateActionStatus(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// EditAction 编辑步骤
// @Summary 编辑步骤字段，支持终态重置回进行中
// @Tags 维护步骤
// @Accept json
// @Produce json
// @Param id path int true "步骤ID"
// @Param request body service.ActionEditDTO true "编辑信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/actions/{id} [put]
func (h *ActionHandler) EditAction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.ActionEditDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.orchestrator.EditAction(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}
