package maintdb

// ActionTool 工具需求模型
type ActionTool struct {
	BaseModel
	ActionID         int64            `gorm:"column:action_id;type:bigint;index"`               // 所属步骤ID
	ToolID           int64            `gorm:"column:tool_id;type:bigint"`                       // 工具ID
	ToolName         string           `gorm:"column:tool_name;type:varchar(200)"`               // 工具名称（冗余，供审计叙述）
	QuantityRequired int              `gorm:"column:quantity_required;type:int;default:1"`      // 需求数量
	Status           ActionToolStatus `gorm:"column:status;type:varchar(20);default:Planned"`   // 工具状态
	Priority         Priority         `gorm:"column:priority;type:varchar(20);default:Medium"`  // 优先级
	SequenceOrder    int              `gorm:"column:sequence_order;type:int;default:1"`         // 展示序号
	Notes            string           `gorm:"column:notes;type:text"`                           // 备注
	AssignedToUserID *int64           `gorm:"column:assigned_to_user_id;type:bigint"`           // 领用人ID
	AssignedByID     *int64           `gorm:"column:assigned_by_id;type:bigint"`                // 指派人ID
	AssignedDate     *FleetTime       `gorm:"column:assigned_date;type:datetime"`               // 指派时间
	ReturnedDate     *FleetTime       `gorm:"column:returned_date;type:datetime"`               // 归还时间
	CreatedByID      *int64           `gorm:"column:created_by_id;type:bigint"`                 // 创建人ID
	UpdatedByID      *int64           `gorm:"column:updated_by_id;type:bigint"`                 // 最后更新人ID
}

// TableName 指定表名
func (ActionTool) TableName() string {
	return "action_tools"
}

// ActionToolStatus 工具需求状态枚举
type ActionToolStatus string

const (
	ActionToolStatusPlanned  ActionToolStatus = "Planned"  // 已计划
	ActionToolStatusAssigned ActionToolStatus = "Assigned" // 已指派
	ActionToolStatusReturned ActionToolStatus = "Returned" // 已归还
	ActionToolStatusMissing  ActionToolStatus = "Missing"  // 遗失
)

// ValidActionToolStatus 判断工具状态取值是否合法
func ValidActionToolStatus(s ActionToolStatus) bool {
	switch s {
	case ActionToolStatusPlanned, ActionToolStatusAssigned, ActionToolStatusReturned, ActionToolStatusMissing:
		return true
	}
	return false
}
