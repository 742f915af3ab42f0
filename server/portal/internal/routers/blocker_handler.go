package routers

import (
	"strconv"

	"fleet-ng/models/maintdb"
	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BlockerHandler 阻塞与能力限制处理器
type BlockerHandler struct {
	db          *gorm.DB
	blockers    *service.BlockerService
	limitations *service.LimitationService
}

// NewBlockerHandler 创建阻塞与能力限制处理器
func NewBlockerHandler(db *gorm.DB, logger *zap.Logger) *BlockerHandler {
	return &BlockerHandler{
		db:          db,
		blockers:    service.NewBlockerService(db, logger),
		limitations: service.NewLimitationService(db, logger),
	}
}

// RegisterRoutes 注册路由
func (h *BlockerHandler) RegisterRoutes(api *gin.RouterGroup) {
	blockers := api.Group(RouteGroupBlockers)
	blockers.POST("", h.CreateBlocker)
	blockers.PUT(RouteParamID, h.UpdateBlocker)
	blockers.POST(RouteParamID+SubRouteEnd, h.EndBlocker)
	blockers.GET("", h.ActiveBlockers)

	limitations := api.Group(RouteGroupLimitations)
	limitations.POST("", h.CreateLimitation)
	limitations.PUT(RouteParamID, h.UpdateLimitation)
	limitations.POST(RouteParamID+SubRouteClose, h.CloseLimitation)

	assets := api.Group(RouteGroupAssets)
	assets.GET(RouteParamID+"/limitations", h.AssetLimitations)
}

// CreateBlocker 创建阻塞
// @Summary 为工作包创建阻塞
// @Tags 阻塞
// @Accept json
// @Produce json
// @Param request body service.BlockerCreateDTO true "阻塞信息"
// @Success 200 {object} render.Response
// @Failure 422 {object} render.Response
// @Router /fe-v1/blockers [post]
func (h *BlockerHandler) CreateBlocker(c *gin.Context) {
	var dto service.BlockerCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	blocker, err := h.blockers.CreateBlocker(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, blocker)
}

// UpdateBlocker 更新阻塞
// @Summary 更新阻塞字段，可同时结束阻塞
// @Tags 阻塞
// @Accept json
// @Produce json
// @Param id path int true "阻塞ID"
// @Param request body service.BlockerUpdateDTO true "更新信息"
// @Success 200 {object} render.Response
// @Router /fe-v1/blockers/{id} [put]
func (h *BlockerHandler) UpdateBlocker(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var dto service.BlockerUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	blocker, err := h.blockers.UpdateBlocker(id, currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, blocker)
}

// EndBlocker 结束阻塞
// @Summary 结束阻塞，恢复工作包状态
// @Tags 阻塞
// @Accept json
// @Produce json
// @Param id path int true "阻塞ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/blockers/{id}/end [post]
func (h *BlockerHandler) EndBlocker(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		EndDate *maintdb.FleetTime `json:"endDate"`
		Notes   string             `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	blocker, err := h.blockers.EndBlocker(id, currentActor(c, h.db), body.EndDate, body.Notes)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, blocker)
}

// ActiveBlockers 查询工作包活跃阻塞
// @Summary 查询工作包的活跃阻塞
// @Tags 阻塞
// @Produce json
// @Param setId query int true "工作包ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/blockers [get]
func (h *BlockerHandler) ActiveBlockers(c *gin.Context) {
	raw := c.Query("setId")
	setID, err := strconv.ParseInt(raw, Base10, BitSize64)
	if err != nil || setID <= 0 {
		render.BadRequest(c, MsgInvalidQueryParams+raw)
		return
	}
	blockers, err := h.blockers.ActiveBlockers(setID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, blockers)
}

// CreateLimitation 创建能力限制记录
// @Summary 创建能力限制记录并刷新资产能力状态
// @Tags 能力限制
// @Accept json
// @Produce json
// @Param request body service.LimitationCreateDTO true "限制记录信息"
// @Success 200 {object} render.Response
// @Failure 422 {object} render.Response
// @Router /fe-v1/limitations [post]
func (h *BlockerHandler) CreateLimitation(c *gin.Context) {
	var dto service.LimitationCreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	record, err := h.limitations.CreateRecord(currentActor(c, h.db), dto)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, record)
}

// UpdateLimitation 更新能力限制记录
// @Summary 更新能力限制记录
// @Tags 能力限制
// @Accept json
// @Produce json
// @Param id path int true "限制记录ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/limitations/{id} [put]
func (h *BlockerHandler) UpdateLimitation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		SetID int64                       `json:"setId" binding:"required"`
		DTO   service.LimitationUpdateDTO `json:"record"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	record, err := h.limitations.UpdateRecord(id, body.SetID, currentActor(c, h.db), body.DTO)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, record)
}

// CloseLimitation 关闭能力限制记录
// @Summary 关闭能力限制记录并重算资产能力状态
// @Tags 能力限制
// @Accept json
// @Produce json
// @Param id path int true "限制记录ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/limitations/{id}/close [post]
func (h *BlockerHandler) CloseLimitation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body struct {
		SetID     int64              `json:"setId" binding:"required"`
		EndTime   *maintdb.FleetTime `json:"endTime"`
		StartTime *maintdb.FleetTime `json:"startTime"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		render.BadRequest(c, MsgInvalidRequestFormat+err.Error())
		return
	}
	record, err := h.limitations.CloseRecord(id, body.SetID, currentActor(c, h.db), body.EndTime, body.StartTime)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, record)
}

// AssetLimitations 查询资产限制记录
// @Summary 查询资产的能力限制记录
// @Tags 能力限制
// @Produce json
// @Param id path int true "资产ID"
// @Success 200 {object} render.Response
// @Router /fe-v1/assets/{id}/limitations [get]
func (h *BlockerHandler) AssetLimitations(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	records, err := h.limitations.AssetLimitations(id)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	render.Success(c, records)
}
