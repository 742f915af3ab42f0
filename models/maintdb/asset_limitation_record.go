package maintdb

// CapabilityStatus 资产能力状态
type CapabilityStatus string

const (
	CapabilityNonMissionCapable CapabilityStatus = "Non Mission Capable"                                // 不可执行任务
	CapabilityPMCFunctional     CapabilityStatus = "Partially Mission Capable - Functional Limitations" // 部分可用-功能受限
	CapabilityPMCCompensation   CapabilityStatus = "Partially Mission Capable - Temporary Compensation" // 部分可用-临时补偿
	CapabilityFMCCompensation   CapabilityStatus = "Fully Mission Capable - Temporary Compensation"     // 完全可用-临时补偿
)

// CapabilityRank 能力状态严重程度排序，数值越小越严重
var CapabilityRank = map[CapabilityStatus]int{
	CapabilityNonMissionCapable: 1,
	CapabilityPMCFunctional:     2,
	CapabilityPMCCompensation:   3,
	CapabilityFMCCompensation:   4,
}

// ValidCapabilityStatus 判断能力状态取值是否合法
func ValidCapabilityStatus(s CapabilityStatus) bool {
	_, ok := CapabilityRank[s]
	return ok
}

// AssetLimitationRecord 资产能力限制记录模型
// 记录一段时间内资产能力的受限情况，end_time 为空表示仍在生效
type AssetLimitationRecord struct {
	BaseModel
	MaintenanceActionSetID int64            `gorm:"column:maintenance_action_set_id;type:bigint;index"` // 所属工作包ID
	Status                 CapabilityStatus `gorm:"column:status;type:varchar(100)"`                    // 能力状态
	LimitationDescription  string           `gorm:"column:limitation_description;type:text"`            // 受限内容说明
	TemporaryModifications string           `gorm:"column:temporary_modifications;type:text"`           // 临时补偿措施
	StartTime              FleetTime        `gorm:"column:start_time;type:datetime"`                    // 生效时间
	EndTime                *FleetTime       `gorm:"column:end_time;type:datetime"`                      // 解除时间
	MaintenanceBlockerID   *int64           `gorm:"column:maintenance_blocker_id;type:bigint"`          // 关联的阻塞记录ID
	CreatedByID            *int64           `gorm:"column:created_by_id;type:bigint"`                   // 创建人ID
}

// TableName 指定表名
func (AssetLimitationRecord) TableName() string {
	return "asset_limitation_records"
}

// IsActive 判断限制是否仍在生效
func (r *AssetLimitationRecord) IsActive() bool {
	return r.EndTime == nil
}

// IsDegraded 判断限制是否为未补偿的降级状态
func (r *AssetLimitationRecord) IsDegraded() bool {
	return r.Status == CapabilityNonMissionCapable || r.Status == CapabilityPMCFunctional
}

// RequiresModification 判断该状态是否必须填写临时补偿措施
func (r *AssetLimitationRecord) RequiresModification() bool {
	return r.Status == CapabilityPMCCompensation || r.Status == CapabilityFMCCompensation
}
