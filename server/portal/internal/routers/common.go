package routers

import (
	"errors"
	"net/http"
	"strconv"

	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// parseIDParam 解析路径中的数值ID
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(ParamID), Base10, BitSize64)
	if err != nil || id <= 0 {
		render.BadRequest(c, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// renderServiceError 按业务错误码映射 HTTP 状态
func renderServiceError(c *gin.Context, err error) {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		render.Fail(c, svcErr.Code, svcErr.Message)
		return
	}
	render.Fail(c, http.StatusInternalServerError, err.Error())
}

// currentActor 从请求上下文取操作人
// 实际环境中由认证中间件写入上下文；缺省回落到系统身份
func currentActor(c *gin.Context, db *gorm.DB) service.Actor {
	userID, okID := c.Get(UserIDContextKey)
	if !okID {
		return service.SystemActor()
	}
	id, ok := userID.(int64)
	if !ok || id <= 0 {
		return service.SystemActor()
	}

	username, _ := c.Get(UsernameContextKey)
	name, _ := username.(string)
	if name == "" {
		resolved, _, err := service.ResolveActor(db, id)
		if err != nil {
			return service.SystemActor()
		}
		name = resolved.Username
	}
	return service.UserActor(id, name)
}
