package service

import (
	"time"

	"fleet-ng/models/maintdb"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsService 维护工作台统计服务
type StatsService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStatsService 创建统计服务
func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	return &StatsService{db: db, logger: logger}
}

// DashboardStatsDTO 工作台统计数据
type DashboardStatsDTO struct {
	TotalCount          int     `json:"totalCount"`          // 工作包总数
	PlannedCount        int     `json:"plannedCount"`        // 已计划数
	InProgressCount     int     `json:"inProgressCount"`     // 进行中数
	BlockedCount        int     `json:"blockedCount"`        // 被阻塞数
	DelayedCount        int     `json:"delayedCount"`        // 已延期数
	CompletedThisWeek   int     `json:"completedThisWeek"`   // 本周完成数
	CompletedThisMonth  int     `json:"completedThisMonth"`  // 本月完成数
	ActiveBlockerCount  int     `json:"activeBlockerCount"`  // 活跃阻塞数
	OverdueCount        int     `json:"overdueCount"`        // 逾期未启动数
	BillableHoursMonth  float64 `json:"billableHoursMonth"`  // 本月计费工时合计
	DegradedAssetCount  int     `json:"degradedAssetCount"`  // 能力受限资产数
}

// GetDashboardStats 获取工作台统计数据
func (s *StatsService) GetDashboardStats() (*DashboardStatsDTO, error) {
	stats := &DashboardStatsDTO{}

	var totalCount int64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).Count(&totalCount).Error; err != nil {
		return nil, NewServerError("failed to count action sets", err)
	}
	stats.TotalCount = int(totalCount)

	statusCounts := []struct {
		Status maintdb.ActionSetStatus
		Count  int64
	}{}
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, NewServerError("failed to count action sets by status", err)
	}
	for _, sc := range statusCounts {
		switch sc.Status {
		case maintdb.ActionSetStatusPlanned:
			stats.PlannedCount = int(sc.Count)
		case maintdb.ActionSetStatusInProgress:
			stats.InProgressCount = int(sc.Count)
		case maintdb.ActionSetStatusBlocked:
			stats.BlockedCount = int(sc.Count)
		case maintdb.ActionSetStatusDelayed:
			stats.DelayedCount = int(sc.Count)
		}
	}

	// 本周/本月完成数按 end_date 归属
	var completedWeek int64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).
		Where("status = ? AND end_date between ? and ?",
			maintdb.ActionSetStatusComplete, now.BeginningOfWeek(), now.EndOfWeek()).
		Count(&completedWeek).Error; err != nil {
		return nil, NewServerError("failed to count weekly completions", err)
	}
	stats.CompletedThisWeek = int(completedWeek)

	var completedMonth int64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).
		Where("status = ? AND end_date between ? and ?",
			maintdb.ActionSetStatusComplete, now.BeginningOfMonth(), now.EndOfMonth()).
		Count(&completedMonth).Error; err != nil {
		return nil, NewServerError("failed to count monthly completions", err)
	}
	stats.CompletedThisMonth = int(completedMonth)

	var activeBlockers int64
	if err := s.db.Model(&maintdb.MaintenanceBlocker{}).
		Where("end_date IS NULL").
		Count(&activeBlockers).Error; err != nil {
		return nil, NewServerError("failed to count active blockers", err)
	}
	stats.ActiveBlockerCount = int(activeBlockers)

	var overdueCount int64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).
		Where("status = ? AND planned_start IS NOT NULL AND planned_start < ?",
			maintdb.ActionSetStatusPlanned, time.Now()).
		Count(&overdueCount).Error; err != nil {
		return nil, NewServerError("failed to count overdue action sets", err)
	}
	stats.OverdueCount = int(overdueCount)

	var hoursMonth *float64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).
		Select("SUM(actual_billable_hours)").
		Where("status = ? AND end_date between ? and ?",
			maintdb.ActionSetStatusComplete, now.BeginningOfMonth(), now.EndOfMonth()).
		Scan(&hoursMonth).Error; err != nil {
		return nil, NewServerError("failed to sum monthly billable hours", err)
	}
	if hoursMonth != nil {
		stats.BillableHoursMonth = *hoursMonth
	}

	var degradedAssets int64
	if err := s.db.Model(&maintdb.Asset{}).
		Where("capability_status IS NOT NULL").
		Count(&degradedAssets).Error; err != nil {
		return nil, NewServerError("failed to count degraded assets", err)
	}
	stats.DegradedAssetCount = int(degradedAssets)

	return stats, nil
}

// SetProgressDTO 工作包进度快照
type SetProgressDTO struct {
	SetID            int64   `json:"setId"`            // 工作包ID
	Status           string  `json:"status"`           // 工作包状态
	TotalActions     int     `json:"totalActions"`     // 步骤总数
	CompletedActions int     `json:"completedActions"` // 已完成步骤数
	CompletionPct    float64 `json:"completionPct"`    // 完成百分比
	CalculatedHours  float64 `json:"calculatedHours"`  // 步骤工时合计
	HoursWarning     string  `json:"hoursWarning"`     // 工时异常提示，空串表示正常
}

// SetProgress 取单个工作包的进度快照
func (s *StatsService) SetProgress(setID int64) (*SetProgressDTO, error) {
	var set maintdb.MaintenanceActionSet
	if err := s.db.First(&set, setID).Error; err != nil {
		return nil, HandleDBError(err, "maintenance action set", setID)
	}

	var total, completed int64
	if err := s.db.Model(&maintdb.Action{}).
		Where("maintenance_action_set_id = ?", setID).
		Count(&total).Error; err != nil {
		return nil, NewServerError("failed to count actions", err)
	}
	if err := s.db.Model(&maintdb.Action{}).
		Where("maintenance_action_set_id = ? AND status = ?", setID, maintdb.ActionStatusComplete).
		Count(&completed).Error; err != nil {
		return nil, NewServerError("failed to count completed actions", err)
	}

	calculated, err := calculatedHoursTx(s.db, setID)
	if err != nil {
		return nil, err
	}

	progress := &SetProgressDTO{
		SetID:            set.ID,
		Status:           string(set.Status),
		TotalActions:     int(total),
		CompletedActions: int(completed),
		CalculatedHours:  calculated,
		HoursWarning:     billableHoursWarning(set.ActualBillableHours, calculated),
	}
	if total > 0 {
		progress.CompletionPct = float64(completed) / float64(total) * 100
	}
	return progress, nil
}

// AssetActivityDTO 资产最近维护动态
type AssetActivityDTO struct {
	SetID       int64              `json:"setId"`       // 工作包ID
	TaskName    string             `json:"taskName"`    // 任务名称
	Status      string             `json:"status"`      // 工作包状态
	LastComment *string            `json:"lastComment"` // 最近一条可见评论
	UpdatedAt   *maintdb.FleetTime `json:"updatedAt"`   // 最近更新时间
}

// RecentActivity 取资产最近的维护动态，按更新时间倒序
func (s *StatsService) RecentActivity(assetID int64, limit int) ([]AssetActivityDTO, error) {
	if limit <= 0 {
		limit = 10
	}
	var sets []maintdb.MaintenanceActionSet
	if err := s.db.Where("asset_id = ?", assetID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sets).Error; err != nil {
		return nil, NewServerError("failed to query recent action sets", err)
	}

	comments := NewCommentService(s.db, s.logger)
	result := make([]AssetActivityDTO, 0, len(sets))
	for i := range sets {
		set := &sets[i]
		item := AssetActivityDTO{
			SetID:    set.ID,
			TaskName: set.TaskName,
			Status:   string(set.Status),
		}
		updatedAt := set.UpdatedAt
		item.UpdatedAt = &updatedAt
		last, err := comments.LastComment(set.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			content := last.Content
			item.LastComment = &content
		}
		result = append(result, item)
	}
	return result, nil
}
