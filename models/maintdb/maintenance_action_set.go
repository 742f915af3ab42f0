package maintdb

// MaintenanceActionSet 维护工单模型
// 一个工单对应一台资产上的一次维护事件，包含有序的维护步骤（Action）
type MaintenanceActionSet struct {
	BaseModel
	AssetID             int64           `gorm:"column:asset_id;type:bigint;index"`           // 关联资产ID
	TaskName            string          `gorm:"column:task_name;type:varchar(200)"`          // 任务名称
	Description         string          `gorm:"column:description;type:text"`                // 任务描述
	Status              ActionSetStatus `gorm:"column:status;type:varchar(20);default:Planned"` // 工单状态
	Priority            Priority        `gorm:"column:priority;type:varchar(20);default:Medium"` // 优先级
	PlannedStart        *FleetTime      `gorm:"column:planned_start;type:datetime"`          // 计划开始时间
	StartDate           *FleetTime      `gorm:"column:start_date;type:datetime"`             // 实际开始时间
	EndDate             *FleetTime      `gorm:"column:end_date;type:datetime"`               // 实际结束时间
	ActualBillableHours *float64        `gorm:"column:actual_billable_hours;type:double"`    // 实际计费工时（可手工覆盖）
	MeterReadingID      *int64          `gorm:"column:meter_reading_id;type:bigint"`         // 完成时的计量表快照ID
	AssignedUserID      *int64          `gorm:"column:assigned_user_id;type:bigint"`         // 负责人ID
	AssignedByID        *int64          `gorm:"column:assigned_by_id;type:bigint"`           // 指派人ID
	CompletedByID       *int64          `gorm:"column:completed_by_id;type:bigint"`          // 完成人ID
	CompletionNotes     string          `gorm:"column:completion_notes;type:text"`           // 完成说明
	DelayNotes          string          `gorm:"column:delay_notes;type:text"`                // 延期说明
	BlockerNotes        string          `gorm:"column:blocker_notes;type:text"`              // 阻塞说明

	// 关联关系
	Asset        *Asset        `gorm:"foreignKey:AssetID"`                                           // 关联的资产
	MeterReading *MeterHistory `gorm:"foreignKey:MeterReadingID"`                                    // 完成时的计量表快照
	Actions      []Action      `gorm:"foreignKey:MaintenanceActionSetID;constraint:OnDelete:CASCADE"` // 有序维护步骤
}

// TableName 指定表名
func (MaintenanceActionSet) TableName() string {
	return "maintenance_action_sets"
}

// ActionSetStatus 工单状态枚举
type ActionSetStatus string

const (
	ActionSetStatusPlanned    ActionSetStatus = "Planned"     // 已计划
	ActionSetStatusInProgress ActionSetStatus = "In Progress" // 进行中
	ActionSetStatusBlocked    ActionSetStatus = "Blocked"     // 被阻塞
	ActionSetStatusDelayed    ActionSetStatus = "Delayed"     // 已延期
	ActionSetStatusComplete   ActionSetStatus = "Complete"    // 已完成
	ActionSetStatusCancelled  ActionSetStatus = "Cancelled"   // 已取消
)

// IsTerminal 判断工单状态是否为终态
func (s ActionSetStatus) IsTerminal() bool {
	return s == ActionSetStatusComplete || s == ActionSetStatusCancelled
}

// Priority 优先级枚举
type Priority string

const (
	PriorityLow      Priority = "Low"      // 低
	PriorityMedium   Priority = "Medium"   // 中
	PriorityHigh     Priority = "High"     // 高
	PriorityCritical Priority = "Critical" // 紧急
)

// ValidPriority 判断优先级取值是否合法
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
