package service

import (
	"gorm.io/gorm"

	"fleet-ng/models/maintdb"
)

// Actor 操作主体
// 机器触发的流转使用 SystemActor，审计评论据此区分人工与自动
type Actor struct {
	UserID   int64  // 用户ID，系统操作为0
	Username string // 用户名，用于审计叙述
	Human    bool   // 是否为人工操作
}

// SystemActor 系统操作主体
func SystemActor() Actor {
	return Actor{UserID: 0, Username: "system", Human: false}
}

// UserActor 人工操作主体
func UserActor(userID int64, username string) Actor {
	return Actor{UserID: userID, Username: username, Human: true}
}

// IsSystem 判断是否为系统操作
func (a Actor) IsSystem() bool {
	return !a.Human
}

// ResolveActor 按用户ID解析操作主体
// id<=0 视为系统身份；第二个返回值表示账号是否启用
func ResolveActor(db *gorm.DB, userID int64) (Actor, bool, error) {
	if userID <= 0 {
		return SystemActor(), true, nil
	}
	var user maintdb.User
	if err := db.First(&user, userID).Error; err != nil {
		return Actor{}, false, HandleDBError(err, "user", userID)
	}
	return UserActor(user.ID, user.Username), user.Active, nil
}
