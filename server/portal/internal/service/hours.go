package service

import (
	"fmt"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 实际计费工时超过步骤合计的倍数上限，超出即告警
const billableHoursWarningFactor = 4

// BillableHoursService 计费工时服务
// 维护工作包的计算工时与实际工时之间的调和规则
type BillableHoursService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewBillableHoursService 创建计费工时服务
func NewBillableHoursService(db *gorm.DB, logger *zap.Logger) *BillableHoursService {
	return &BillableHoursService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// BillableHoursReportDTO 工时校验报告
type BillableHoursReportDTO struct {
	CalculatedHours float64  `json:"calculatedHours"` // 步骤工时合计
	ActualHours     *float64 `json:"actualHours"`     // 实际工时
	Warning         string   `json:"warning"`         // 告警信息，空表示正常
	IsSynced        bool     `json:"isSynced"`        // 实际与合计一致
	IsOverride      bool     `json:"isOverride"`      // 实际为人工覆盖值
}

// calculatedHoursTx 步骤工时合计，空值按0计
func calculatedHoursTx(tx *gorm.DB, setID int64) (float64, error) {
	var total *float64
	err := tx.Model(&maintdb.Action{}).
		Where("maintenance_action_set_id = ?", setID).
		Select("SUM(billable_hours)").
		Scan(&total).Error
	if err != nil {
		return 0, NewServerError("failed to sum action billable hours", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// CalculatedHours 取工作包的步骤工时合计
func (s *BillableHoursService) CalculatedHours(setID int64) (float64, error) {
	return calculatedHoursTx(s.db, setID)
}

// autoUpdateIfGreaterTx 合计大于实际时自动上调实际工时
// 步骤编辑路径上的尽力而为副作用，失败由调用方记录日志而不回滚主变更
func autoUpdateIfGreaterTx(tx *gorm.DB, set *maintdb.MaintenanceActionSet) (bool, error) {
	calculated, err := calculatedHoursTx(tx, set.ID)
	if err != nil {
		return false, err
	}
	current := 0.0
	if set.ActualBillableHours != nil {
		current = *set.ActualBillableHours
	}
	if calculated <= current {
		return false, nil
	}
	if err := tx.Model(set).Update("actual_billable_hours", calculated).Error; err != nil {
		return false, NewServerError("failed to auto-update billable hours", err)
	}
	set.ActualBillableHours = &calculated
	return true, nil
}

// SetActualHours 人工设置实际工时，允许覆盖计算值
func (s *BillableHoursService) SetActualHours(setID int64, actor Actor, value float64) error {
	if value < 0 {
		return NewValidationError("billable hours must be non-negative")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}

		oldValue := set.ActualBillableHours
		if err := tx.Model(&set).Update("actual_billable_hours", value).Error; err != nil {
			return NewServerError("failed to set billable hours", err)
		}

		if oldValue != nil && *oldValue == value {
			return nil
		}
		text := fmt.Sprintf("Billable hours updated: %.2fh", value)
		if oldValue != nil {
			text += fmt.Sprintf(" (was %.2fh)", *oldValue)
		}
		return s.comments.narrateTx(tx, setID, actor, text, actor.Human)
	})
}

// SyncToCalculated 将实际工时重置为计算合计
func (s *BillableHoursService) SyncToCalculated(setID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}

		calculated, err := calculatedHoursTx(tx, setID)
		if err != nil {
			return err
		}

		oldValue := set.ActualBillableHours
		if err := tx.Model(&set).Update("actual_billable_hours", calculated).Error; err != nil {
			return NewServerError("failed to sync billable hours", err)
		}

		if oldValue != nil && *oldValue == calculated {
			return nil
		}
		text := fmt.Sprintf("Billable hours synced to calculated sum: %.2fh", calculated)
		if oldValue != nil {
			text += fmt.Sprintf(" (was %.2fh)", *oldValue)
		}
		return s.comments.narrateTx(tx, setID, actor, text, actor.Human)
	})
}

// billableHoursWarning 工时告警文案，正常返回空串
func billableHoursWarning(actual *float64, calculated float64) string {
	if actual == nil {
		return ""
	}
	if *actual < calculated {
		return fmt.Sprintf("Actual billable hours (%.2f) is less than calculated sum (%.2f)", *actual, calculated)
	}
	if calculated > 0 && *actual > calculated*billableHoursWarningFactor {
		return fmt.Sprintf("Actual billable hours (%.2f) is more than %dx the calculated sum (%.2f)",
			*actual, billableHoursWarningFactor, calculated)
	}
	return ""
}

// Validate 生成工时校验报告
func (s *BillableHoursService) Validate(setID int64) (*BillableHoursReportDTO, error) {
	var set maintdb.MaintenanceActionSet
	if err := s.db.First(&set, setID).Error; err != nil {
		return nil, HandleDBError(err, "maintenance action set", setID)
	}

	calculated, err := s.CalculatedHours(setID)
	if err != nil {
		return nil, err
	}

	actual := set.ActualBillableHours
	return &BillableHoursReportDTO{
		CalculatedHours: calculated,
		ActualHours:     actual,
		Warning:         billableHoursWarning(actual, calculated),
		IsSynced:        actual != nil && *actual == calculated,
		IsOverride:      actual != nil && *actual != calculated,
	}, nil
}
