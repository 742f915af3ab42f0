package routers

import (
	"errors"
	"io"
	"strconv"

	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaintenanceHandler 维护工作包处理器
type MaintenanceHandler struct {
	db      *gorm.DB
	service *service.MaintenanceService
	hours   *service.BillableHoursService
	stats   *service.StatsService
}

// NewMaintenanceHandler 创建维护工作包处理器
func NewMaintenanceHandler(db *gorm.DB, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		db:      db,
		service: service.NewMaintenanceService(db, logger),
		hours:   service.NewBillableHoursService(db, logger),
		stats:   service.NewStatsService(db, logger),
	}
}

// RegisterRoutes 注册路由
func (h *MaintenanceHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group(RouteGroupMaintenance)

	group.POST("", h.CreateActionSet)
	group.GET(RouteParamID, h.GetActionSet)
	group.GET("", h.ListActionSets)
	group.POST(RouteParamID+SubRouteAssign, h.Assign)
	group.POST(RouteParamID+SubRouteStart, h.Start)
	group.POST(RouteParamID+SubRouteComplete, h.Complete)
	group.POST(RouteParamID+SubRouteCancel, h.Cancel)
	group.POST(RouteParamID+SubRouteDelay, h.AddDelay)
	group.POST(RouteParamID+SubRouteReopen, h.Reopen)
	group.GET(RouteParamID+SubRouteProgress, h.Progress)

	group.PUT(RouteParamID+SubRouteHours, h.SetBillableHours)
	group.POST(RouteParamID+SubRouteSync, h.SyncBillableHours)
	group.GET(RouteParamID+SubRouteValidate, h.ValidateBillableHours)

	api.Group(RouteGroupStats).GET("/dashboard", h.Dashboard)
}

// CreateActionSet 创建维护工作包
// @Summary 创建维护工作包
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param request body service.ActionSetCreateDTO true "工作包信息"
// @Success 200 {object} render.Response
// @Failure 400 {object} render.Response
// @Router /fe-v1/maintenance [post]
func (h *MaintenanceHandler) CreateActionSet(c *gin.Context) {
	var dto service.ActionSetCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}

	set, err := h.service.CreateActionSet(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, set)
}

// GetActionSet 获取工作包详情（含有序步骤）
// @Summary 获取工作包详情
// @Tags 维护工作包
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id} [get]
func (h *MaintenanceHandler) GetActionSet(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	set, err := h.service.GetActionSet(id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, set)
}

// ListActionSets 查询工作包列表
// @Summary 查询工作包列表
// @Tags 维护工作包
// @Produce json
// @Param status query string false "按状态过滤"
// @Param assetId query int false "按资产过滤"
// @Param userId query int false "按负责人过滤"
// @Param page query int false "页码（无过滤条件时生效）"
// @Param size query int false "每页数量（无过滤条件时生效）"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance [get]
func (h *MaintenanceHandler) ListActionSets(c *gin.Context) {
	if status := c.Query(ParamStatus); status != "" {
		sets, err := h.service.GetByStatus(status)
		if err != nil {
			renderServiceError(c, err)
			return
		}
		render.Success(c, sets)
		return
	}
	if raw := c.Query("assetId"); raw != "" {
		assetID, err := strconv.ParseInt(raw, Base10, BitSize64)
		if err != nil {
			render.BadRequest(c, MsgInvalidQueryParams+raw)
			return
		}
		sets, err := h.service.GetByAsset(assetID)
		if err != nil {
			renderServiceError(c, err)
			return
		}
		render.Success(c, sets)
		return
	}
	if raw := c.Query("userId"); raw != "" {
		userID, err := strconv.ParseInt(raw, Base10, BitSize64)
		if err != nil {
			render.BadRequest(c, MsgInvalidQueryParams+raw)
			return
		}
		sets, err := h.service.GetByUser(userID)
		if err != nil {
			renderServiceError(c, err)
			return
		}
		render.Success(c, sets)
		return
	}
	// 无过滤条件时返回分页的全量列表
	var page service.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		render.BadRequest(c, MsgInvalidQueryParams+err.Error())
		return
	}
	result, err := h.service.List(page)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, result)
}

// Assign 指派工作包
// @Summary 指派工作包给技术员
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Param request body service.AssignDTO true "指派信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/assign [post]
func (h *MaintenanceHandler) Assign(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.AssignDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.service.Assign(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// Start 启动工作包
// @Summary 启动工作包
// @Tags 维护工作包
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/start [post]
func (h *MaintenanceHandler) Start(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Start(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// Complete 完成工作包
// @Summary 完成工作包（含表计核验）
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Param request body service.CompletionDTO true "完成信息"
// @Success 200 {object} render.Response
// @Failure 409 {object} render.Response
// @Router /fe-v1/maintenance/{id}/complete [post]
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.CompletionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.service.CompleteFromWorkPortal(id, currentActor(c, h.db), dto); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgOperationSuccess, nil)
}

// Cancel 取消工作包
// @Summary 取消工作包
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/cancel [post]
func (h *MaintenanceHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	// 取消时说明可选，空请求体直接按无说明处理
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.service.Cancel(id, currentActor(c, h.db), body.Notes); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// Reopen 重新打开终态工作包
// @Summary 重新打开已完成或已取消的工作包
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.SuccessResponse
// @Failure 400 {object} render.ErrorResponse
// @Failure 409 {object} render.ErrorResponse
// @Router /maintenance/{id}/reopen [post]
func (h *MaintenanceHandler) Reopen(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	// 重开原因可选，空请求体直接按无原因处理
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.service.Reopen(id, currentActor(c, h.db), body.Reason); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// Progress 取工作包进度快照
// @Summary 取工作包进度快照
// @Tags 维护工作包
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} service.SetProgressDTO
// @Failure 404 {object} render.ErrorResponse
// @Router /maintenance/{id}/progress [get]
func (h *MaintenanceHandler) Progress(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	progress, err := h.stats.SetProgress(id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, progress)
}

// AddDelay 登记延期
// @Summary 登记工作包延期
// @Tags 维护工作包
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Param request body service.DelayCreateDTO true "延期信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/delay [post]
func (h *MaintenanceHandler) AddDelay(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.DelayCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	delay, err := h.service.AddDelay(id, currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, delay)
}

// SetBillableHours 设置实际计费工时
// @Summary 手工设置实际计费工时
// @Tags 计费工时
// @Accept json
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/billable-hours [put]
func (h *MaintenanceHandler) SetBillableHours(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Hours float64 `json:"hours"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	if err := h.hours.SetActualHours(id, currentActor(c, h.db), body.Hours); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// SyncBillableHours 将实际工时同步为步骤工时合计
// @Summary 同步计费工时
// @Tags 计费工时
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/billable-hours/sync [post]
func (h *MaintenanceHandler) SyncBillableHours(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.hours.SyncToCalculated(id, currentActor(c, h.db)); err != nil {
		renderServiceError(c, err)
		return
	}
	render.SuccessWithMessage(c, MsgUpdatedSuccess, nil)
}

// ValidateBillableHours 校验计费工时偏差
// @Summary 校验计费工时
// @Tags 计费工时
// @Produce json
// @Param id path int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/maintenance/{id}/billable-hours/validate [get]
func (h *MaintenanceHandler) ValidateBillableHours(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	report, err := h.hours.Validate(id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, report)
}

// Dashboard 工作台统计
// @Summary 获取维护工作台统计数据
// @Tags 统计
// @Produce json
// @Success 200 {object} render.Response
// @Router /fe-v1/stats/dashboard [get]
func (h *MaintenanceHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.GetDashboardStats()
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, stats)
}
