package maintdb

// MaintenanceBlocker 维护阻塞记录模型
// 同一工作包同一时刻最多存在一条未结束的阻塞
type MaintenanceBlocker struct {
	BaseModel
	MaintenanceActionSetID int64      `gorm:"column:maintenance_action_set_id;type:bigint;index"`  // 所属工作包ID
	Reason                 string     `gorm:"column:reason;type:text"`                             // 阻塞原因
	Notes                  string     `gorm:"column:notes;type:text"`                              // 备注
	StartDate              *FleetTime `gorm:"column:start_date;type:datetime"`                     // 开始时间
	EndDate                *FleetTime `gorm:"column:end_date;type:datetime"`                       // 结束时间，空表示仍在阻塞
	BillableHours          *float64   `gorm:"column:billable_hours;type:double"`                   // 因阻塞损失的计费工时
	ExpectedResolutionDate *FleetTime `gorm:"column:expected_resolution_date;type:datetime"`       // 预计解除时间
	Priority               Priority   `gorm:"column:priority;type:varchar(20);default:Medium"`     // 优先级
	CreatedByID            *int64     `gorm:"column:created_by_id;type:bigint"`                    // 创建人ID
	UpdatedByID            *int64     `gorm:"column:updated_by_id;type:bigint"`                    // 最后更新人ID
}

// TableName 指定表名
func (MaintenanceBlocker) TableName() string {
	return "maintenance_blockers"
}

// IsActive 判断阻塞是否仍在生效
func (b *MaintenanceBlocker) IsActive() bool {
	return b.EndDate == nil
}

// BlockerReasons 允许的阻塞原因
var BlockerReasons = []string{
	"Parts Not Available",
	"Equipment Unavailable",
	"Staff Not Available",
	"Facility Not Available",
	"Safety Concerns",
	"Major Issues Discovered",
	"Other",
}

// ValidBlockerReason 判断阻塞原因是否合法
func ValidBlockerReason(reason string) bool {
	for _, v := range BlockerReasons {
		if v == reason {
			return true
		}
	}
	return false
}
