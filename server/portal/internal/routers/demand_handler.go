package routers

import (
	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DemandHandler 零件与工具需求处理器
type DemandHandler struct {
	db      *gorm.DB
	demands *service.PartDemandService
	tools   *service.ActionToolService
}

// NewDemandHandler 创建零件与工具需求处理器
func NewDemandHandler(db *gorm.DB, logger *zap.Logger) *DemandHandler {
	return &DemandHandler{
		db:      db,
		demands: service.NewPartDemandService(db, logger),
		tools:   service.NewActionToolService(db, logger),
	}
}

// RegisterRoutes 注册路由
func (h *DemandHandler) RegisterRoutes(api *gin.RouterGroup) {
	demands := api.Group(RouteGroupDemands)
	demands.POST("", h.CreateDemand)
	demands.PUT(RouteParamID, h.UpdateDemand)
	demands.POST(RouteParamID+SubRouteIssue, h.IssueDemand)
	demands.POST(RouteParamID+SubRouteCancel, h.CancelDemand)
	demands.POST(RouteParamID+SubRouteUndo, h.UndoDemand)

	tools := api.Group(RouteGroupTools)
	tools.POST("", h.CreateTool)
	tools.PUT(RouteParamID, h.UpdateTool)
	tools.DELETE(RouteParamID, h.DeleteTool)
}

// CreateDemand 创建零件需求
// @Summary 为步骤创建零件需求
// @Tags 零件需求
// @Accept json
// @Produce json
// @Param request body service.PartDemandCreateDTO true "零件需求信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/part-demands [post]
func (h *DemandHandler) CreateDemand(c *gin.Context) {
	var dto service.PartDemandCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	demand, err := h.demands.CreateForAction(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, demand)
}

// UpdateDemand 更新零件需求
// @Summary 更新零件需求字段或状态
// @Tags 零件需求
// @Accept json
// @Produce json
// @Param id path int true "零件需求ID"
// @Param request body service.PartDemandUpdateDTO true "更新信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/part-demands/{id} [put]
func (h *DemandHandler) UpdateDemand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.PartDemandUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.demands.Update(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// IssueDemand 发放零件
// @Summary 零件发放
// @Tags 零件需求
// @Produce json
// @Param id path int true "零件需求ID"
// @Success 200 {object} render.Response
// @Failure 409 {object} render.Response
// @Router /fe-v1/part-demands/{id}/issue [post]
func (h *DemandHandler) IssueDemand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.demands.Issue(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// CancelDemand 技术员取消零件需求
// @Summary 技术员取消零件需求
// @Tags 零件需求
// @Accept json
// @Produce json
// @Param id path int true "零件需求ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/part-demands/{id}/cancel [post]
func (h *DemandHandler) CancelDemand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.demands.CancelByTechnician(id, currentActor(c, h.db), body.Reason); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// UndoDemand 撤销取消，恢复为已计划
// @Summary 将已取消的零件需求恢复为已计划
// @Tags 零件需求
// @Produce json
// @Param id path int true "零件需求ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/part-demands/{id}/undo-to-planned [post]
func (h *DemandHandler) UndoDemand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.demands.UndoToPlanned(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// CreateTool 创建工具需求
// @Summary 为步骤创建工具需求
// @Tags 工具需求
// @Accept json
// @Produce json
// @Param request body service.ActionToolCreateDTO true "工具需求信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/action-tools [post]
func (h *DemandHandler) CreateTool(c *gin.Context) {
	var dto service.ActionToolCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	tool, err := h.tools.CreateForAction(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, tool)
}

// UpdateTool 更新工具需求
// @Summary 更新工具需求字段或状态
// @Tags 工具需求
// @Accept json
// @Produce json
// @Param id path int true "工具需求ID"
// @Param request body service.ActionToolUpdateDTO true "更新信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/action-tools/{id} [put]
func (h *DemandHandler) UpdateTool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.ActionToolUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.tools.Update(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// DeleteTool 删除工具需求
// @Summary 删除工具需求
// @Tags 工具需求
// @Produce json
// @Param id path int true "工具需求ID"
// @Success 200 {object} render.Response
// @Failure 422 {object} render.Response
// @Router /fe-v1/action-tools/{id} [delete]
func (h *DemandHandler) DeleteTool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.tools.Delete(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgDeletedSuccess, nil)
}
