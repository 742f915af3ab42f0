package routers

// HTTP 路由路径常量
const (
	// 基础路由组
	RouteGroupMaintenance = "/maintenance"
	RouteGroupActions     = "/actions"
	RouteGroupDemands     = "/part-demands"
	RouteGroupTools       = "/action-tools"
	RouteGroupBlockers    = "/blockers"
	RouteGroupLimitations = "/limitations"
	RouteGroupComments    = "/comments"
	RouteGroupAssets      = "/assets"
	RouteGroupStats       = "/stats"

	// 路由参数路径
	RouteParamID       = "/:id"
	RouteParamIDStatus = "/:id/status"

	// 子路由路径
	SubRouteAssign   = "/assign"
	SubRouteStart    = "/start"
	SubRouteComplete = "/complete"
	SubRouteCancel   = "/cancel"
	SubRouteDelay    = "/delay"
	SubRouteReopen   = "/reopen"
	SubRouteProgress = "/progress"
	SubRouteHours    = "/billable-hours"
	SubRouteSync     = "/billable-hours/sync"
	SubRouteValidate = "/billable-hours/validate"
	SubRouteIssue    = "/issue"
	SubRouteUndo     = "/undo-to-planned"
	SubRouteEnd      = "/end"
	SubRouteClose    = "/close"
	SubRouteReorder  = "/reorder"
	SubRouteHistory  = "/history"
	SubRouteActivity = "/activity"
)

// HTTP 参数名常量
const (
	ParamID     = "id"
	ParamStatus = "status"
	ParamLimit  = "limit"
)

// 数据库和缓存相关常量
const (
	RedisDefault = "default"
	Base10       = 10
	BitSize64    = 64
)

// 用户相关常量
const (
	DefaultUsername   = "system"
	UserIDContextKey  = "userId"
	UsernameContextKey = "username"
	BasicAuthUser     = "admin"
	BasicAuthPassword = "password"
	BasicAuthRealm    = `Basic realm="Restricted"`
)

// HTTP 响应消息常量
const (
	MsgSuccess      = "success"
	MsgUnauthorized = "Unauthorized"
)

// 通用错误消息常量
const (
	MsgInvalidID            = "无效的ID"
	MsgInvalidRequestFormat = "无效的请求格式: "
	MsgInvalidQueryParams   = "无效的查询参数: "

	// WebSocket 相关错误
	MsgWebSocketUpgradeError = "failed to upgrade to websocket: %s"
)

// 成功消息常量
const (
	MsgOperationSuccess = "操作成功"
	MsgCreatedSuccess   = "创建成功"
	MsgUpdatedSuccess   = "更新成功"
	MsgDeletedSuccess   = "删除成功"
)
