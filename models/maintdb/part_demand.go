package maintdb

// PartDemand 零件需求模型
// 零件一经发放（Issued）即视为已消耗，不可再取消
type PartDemand struct {
	BaseModel
	ActionID              int64            `gorm:"column:action_id;type:bigint;index"`              // 所属步骤ID
	PartID                int64            `gorm:"column:part_id;type:bigint"`                      // 零件ID
	PartName              string           `gorm:"column:part_name;type:varchar(200)"`              // 零件名称（冗余，供审计叙述）
	QuantityRequired      float64          `gorm:"column:quantity_required;type:double;default:1"`  // 需求数量
	Status                PartDemandStatus `gorm:"column:status;type:varchar(40);default:Planned"`  // 需求状态
	Priority              Priority         `gorm:"column:priority;type:varchar(20);default:Medium"` // 优先级
	SequenceOrder         int              `gorm:"column:sequence_order;type:int;default:1"`        // 展示序号
	Notes                 string           `gorm:"column:notes;type:text"`                          // 备注
	ExpectedCost          *float64         `gorm:"column:expected_cost;type:double"`                // 预计成本
	RequestedByID         *int64           `gorm:"column:requested_by_id;type:bigint"`              // 申请人ID
	MaintenanceApprovalBy *int64           `gorm:"column:maintenance_approval_by_id;type:bigint"`   // 维护主管审批人ID
	MaintenanceApprovalAt *FleetTime       `gorm:"column:maintenance_approval_date;type:datetime"`  // 维护主管审批时间
	SupplyApprovalBy      *int64           `gorm:"column:supply_approval_by_id;type:bigint"`        // 供应审批人ID
	SupplyApprovalAt      *FleetTime       `gorm:"column:supply_approval_date;type:datetime"`       // 供应审批时间
	CreatedByID           *int64           `gorm:"column:created_by_id;type:bigint"`                // 创建人ID
	UpdatedByID           *int64           `gorm:"column:updated_by_id;type:bigint"`                // 最后更新人ID
}

// TableName 指定表名
func (PartDemand) TableName() string {
	return "part_demands"
}

// PartDemandStatus 零件需求状态枚举
type PartDemandStatus string

const (
	PartDemandStatusPlanned             PartDemandStatus = "Planned"                    // 已计划
	PartDemandStatusPendingManager      PartDemandStatus = "Pending Manager Approval"   // 待主管审批
	PartDemandStatusPendingInventory    PartDemandStatus = "Pending Inventory Approval" // 待库存审批
	PartDemandStatusOrdered             PartDemandStatus = "Ordered"                    // 已下单
	PartDemandStatusIssued              PartDemandStatus = "Issued"                     // 已发放
	PartDemandStatusRejected            PartDemandStatus = "Rejected"                   // 已驳回
	PartDemandStatusBackordered         PartDemandStatus = "Backordered"                // 缺货延期
	PartDemandStatusCancelledTechnician PartDemandStatus = "Cancelled by Technician"    // 技术员取消
	PartDemandStatusCancelledSupply     PartDemandStatus = "Cancelled by Supply"        // 供应方取消
)

// PartDemandStatuses 全部合法的零件需求状态
var PartDemandStatuses = []PartDemandStatus{
	PartDemandStatusPlanned,
	PartDemandStatusPendingManager,
	PartDemandStatusPendingInventory,
	PartDemandStatusOrdered,
	PartDemandStatusIssued,
	PartDemandStatusRejected,
	PartDemandStatusBackordered,
	PartDemandStatusCancelledTechnician,
	PartDemandStatusCancelledSupply,
}

// ValidPartDemandStatus 判断状态取值是否合法
func ValidPartDemandStatus(s PartDemandStatus) bool {
	for _, v := range PartDemandStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsCancelled 判断需求是否处于任一取消态
func (s PartDemandStatus) IsCancelled() bool {
	return s == PartDemandStatusCancelledTechnician || s == PartDemandStatusCancelledSupply
}
