package maintdb

// MaintenanceDelay 维护延期记录模型
type MaintenanceDelay struct {
	BaseModel
	MaintenanceActionSetID int64      `gorm:"column:maintenance_action_set_id;type:bigint;index"` // 所属工作包ID
	DelayType              string     `gorm:"column:delay_type;type:varchar(20)"`                 // 延期类型
	DelayReason            string     `gorm:"column:delay_reason;type:text"`                      // 延期原因
	DelayStartDate         *FleetTime `gorm:"column:delay_start_date;type:datetime"`              // 延期开始时间
	DelayEndDate           *FleetTime `gorm:"column:delay_end_date;type:datetime"`                // 延期结束时间，空表示仍在延期
	DelayBillableHours     *float64   `gorm:"column:delay_billable_hours;type:double"`            // 延期损失的计费工时
	DelayNotes             string     `gorm:"column:delay_notes;type:text"`                       // 备注
	Priority               Priority   `gorm:"column:priority;type:varchar(20);default:Medium"`    // 优先级
	CreatedByID            *int64     `gorm:"column:created_by_id;type:bigint"`                   // 创建人ID
	UpdatedByID            *int64     `gorm:"column:updated_by_id;type:bigint"`                   // 最后更新人ID
}

// TableName 指定表名
func (MaintenanceDelay) TableName() string {
	return "maintenance_delays"
}

// IsActive 判断延期是否仍在生效
func (d *MaintenanceDelay) IsActive() bool {
	return d.DelayEndDate == nil
}
