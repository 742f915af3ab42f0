package maintdb

// Action 维护步骤模型
// 同一工单内 sequence_order 保持 1..N 连续无重复
type Action struct {
	BaseModel
	MaintenanceActionSetID int64        `gorm:"column:maintenance_action_set_id;type:bigint;index"` // 所属工单ID
	SequenceOrder          int          `gorm:"column:sequence_order;type:int;default:1"`           // 序号（1起，组内连续）
	ActionName             string       `gorm:"column:action_name;type:varchar(200)"`               // 步骤名称
	Description            string       `gorm:"column:description;type:text"`                       // 步骤描述
	Status                 ActionStatus `gorm:"column:status;type:varchar(20);default:Not Started"` // 步骤状态
	ScheduledStartTime     *FleetTime   `gorm:"column:scheduled_start_time;type:datetime"`          // 计划开始时间
	StartTime              *FleetTime   `gorm:"column:start_time;type:datetime"`                    // 实际开始时间
	EndTime                *FleetTime   `gorm:"column:end_time;type:datetime"`                      // 实际结束时间
	BillableHours          *float64     `gorm:"column:billable_hours;type:double"`                  // 计费工时
	CompletionNotes        string       `gorm:"column:completion_notes;type:text"`                  // 完成/失败/跳过说明
	AssignedUserID         *int64       `gorm:"column:assigned_user_id;type:bigint"`                // 负责人ID
	AssignedByID           *int64       `gorm:"column:assigned_by_id;type:bigint"`                  // 指派人ID
	CompletedByID          *int64       `gorm:"column:completed_by_id;type:bigint"`                 // 完成人ID
	CreatedByID            *int64       `gorm:"column:created_by_id;type:bigint"`                   // 创建人ID
	UpdatedByID            *int64       `gorm:"column:updated_by_id;type:bigint"`                   // 最后更新人ID

	// 关联关系（随步骤级联删除）
	PartDemands []PartDemand `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE"` // 零件需求
	ActionTools []ActionTool `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE"` // 工具需求
}

// TableName 指定表名
func (Action) TableName() string {
	return "actions"
}

// ActionStatus 步骤状态枚举
type ActionStatus string

const (
	ActionStatusNotStarted ActionStatus = "Not Started" // 未开始
	ActionStatusInProgress ActionStatus = "In Progress" // 进行中
	ActionStatusBlocked    ActionStatus = "Blocked"     // 被阻塞
	ActionStatusComplete   ActionStatus = "Complete"    // 已完成
	ActionStatusFailed     ActionStatus = "Failed"      // 已失败
	ActionStatusSkipped    ActionStatus = "Skipped"     // 已跳过
)

// IsTerminal 判断步骤状态是否为终态
func (s ActionStatus) IsTerminal() bool {
	switch s {
	case ActionStatusComplete, ActionStatusFailed, ActionStatusSkipped:
		return true
	}
	return false
}
