package maintdb

// User 用户模型（身份提供方的本地映射）
type User struct {
	BaseModel
	Username    string `gorm:"column:username;type:varchar(100);unique"` // 登录名
	DisplayName string `gorm:"column:display_name;type:varchar(200)"`    // 显示名称
	Active      bool   `gorm:"column:active;default:true"`               // 是否在职可用
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
