package maintdb

// Asset 资产模型
// capability_status 为空表示完全任务能力（无任何生效的能力限制记录）
type Asset struct {
	BaseModel
	SerialNumber     string   `gorm:"column:serial_number;type:varchar(100);unique"` // 资产序列号
	Name             string   `gorm:"column:name;type:varchar(200)"`                 // 资产名称
	CapabilityStatus *string  `gorm:"column:capability_status;type:varchar(100)"`    // 当前最差能力状态（由限制引擎写入）
	Meter1           *float64 `gorm:"column:meter1;type:double"`                     // 计量表1
	Meter2           *float64 `gorm:"column:meter2;type:double"`                     // 计量表2
	Meter3           *float64 `gorm:"column:meter3;type:double"`                     // 计量表3
	Meter4           *float64 `gorm:"column:meter4;type:double"`                     // 计量表4
}

// TableName 指定表名
func (Asset) TableName() string {
	return "assets"
}

// MeterHistory 资产计量表历史记录
// 维护事件完成时生成快照，通过 MaintenanceActionSet.meter_reading_id 关联
type MeterHistory struct {
	BaseModel
	AssetID      int64      `gorm:"column:asset_id;type:bigint;index"`    // 关联资产ID
	Meter1       *float64   `gorm:"column:meter1;type:double"`            // 计量表1读数
	Meter2       *float64   `gorm:"column:meter2;type:double"`            // 计量表2读数
	Meter3       *float64   `gorm:"column:meter3;type:double"`            // 计量表3读数
	Meter4       *float64   `gorm:"column:meter4;type:double"`            // 计量表4读数
	RecordedAt   FleetTime  `gorm:"column:recorded_at;type:datetime;index"` // 记录时间
	RecordedByID *int64     `gorm:"column:recorded_by_id;type:bigint"`    // 记录人ID

	Asset *Asset `gorm:"foreignKey:AssetID"` // 关联的资产
}

// TableName 指定表名
func (MeterHistory) TableName() string {
	return "meter_history"
}
