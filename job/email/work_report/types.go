package work_report

// CompletedSetRow 已完成工单的报表行
type CompletedSetRow struct {
	SetID         int64   `gorm:"column:set_id"`
	AssetSerial   string  `gorm:"column:asset_serial"`
	AssetName     string  `gorm:"column:asset_name"`
	TaskName      string  `gorm:"column:task_name"`
	CompletedBy   string  `gorm:"column:completed_by"`
	EndDate       string  `gorm:"column:end_date"`
	BillableHours float64 `gorm:"column:billable_hours"`
	ActionCount   int64   `gorm:"column:action_count"`
}

// TechnicianSummary 技术员工时汇总行
type TechnicianSummary struct {
	Username      string  `gorm:"column:username"`
	CompletedSets int64   `gorm:"column:completed_sets"`
	BillableHours float64 `gorm:"column:billable_hours"`
}

// ReportTemplateData HTML 报告模板数据
type ReportTemplateData struct {
	ReportDate    string
	WeekStart     string
	WeekEnd       string
	CompletedSets []CompletedSetRow
	Technicians   []TechnicianSummary
	TotalHours    float64
}
