/*
Package maintdb 提供维护工作流的数据模型定义.
*/
package maintdb

// BaseModel 基础模型.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`        // 主键ID
	CreatedAt FleetTime `gorm:"column:created_at;type:datetime"` // 创建时间
	UpdatedAt FleetTime `gorm:"column:updated_at;type:datetime"` // 更新时间
}
