package service

import (
	"strings"
	"time"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LimitationService 资产能力限制服务
// 每次限制变更后跨全部工作包重算资产的最差能力状态
type LimitationService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLimitationService 创建能力限制服务
func NewLimitationService(db *gorm.DB, logger *zap.Logger) *LimitationService {
	return &LimitationService{db: db, logger: logger}
}

// LimitationCreateDTO 限制记录创建入参
type LimitationCreateDTO struct {
	SetID                  int64              `json:"setId"`                  // 所属工作包ID
	Status                 string             `json:"status"`                 // 能力状态
	LimitationDescription  string             `json:"limitationDescription"`  // 受限内容说明
	TemporaryModifications string             `json:"temporaryModifications"` // 临时补偿措施
	StartTime              *maintdb.FleetTime `json:"startTime"`              // 生效时间，缺省为当前时间
	MaintenanceBlockerID   *int64             `json:"maintenanceBlockerId"`   // 关联阻塞ID
}

// LimitationUpdateDTO 限制记录更新入参
type LimitationUpdateDTO struct {
	Status                 *string `json:"status"`                 // 能力状态
	LimitationDescription  *string `json:"limitationDescription"`  // 受限内容说明
	TemporaryModifications *string `json:"temporaryModifications"` // 临时补偿措施
}

// validateModificationRules 校验补偿措施匹配规则
// 补偿类状态必须填写补偿措施，降级类状态禁止填写
func validateModificationRules(status maintdb.CapabilityStatus, modifications string) error {
	hasModifications := strings.TrimSpace(modifications) != ""

	switch status {
	case maintdb.CapabilityPMCCompensation, maintdb.CapabilityFMCCompensation:
		if !hasModifications {
			return NewValidationError("status '" + string(status) + "' requires temporary modifications, compensation statuses must describe the compensation in place")
		}
	case maintdb.CapabilityNonMissionCapable, maintdb.CapabilityPMCFunctional:
		if hasModifications {
			return NewValidationError("status '" + string(status) + "' cannot have temporary modifications, only compensation statuses can have modifications")
		}
	}
	return nil
}

// refreshCapabilityStatusTx 在事务内重算资产能力状态
// 先汇总该资产全部工作包的未解除限制，取最严重状态写回资产；无限制时清空
func (s *LimitationService) refreshCapabilityStatusTx(tx *gorm.DB, assetID int64) error {
	var records []maintdb.AssetLimitationRecord
	err := tx.Joins("JOIN maintenance_action_sets ON maintenance_action_sets.id = asset_limitation_records.maintenance_action_set_id").
		Where("maintenance_action_sets.asset_id = ? AND asset_limitation_records.end_time IS NULL", assetID).
		Find(&records).Error
	if err != nil {
		return NewServerError("failed to query active limitation records", err)
	}

	var asset maintdb.Asset
	if err := tx.First(&asset, assetID).Error; err != nil {
		return HandleDBError(err, "asset", assetID)
	}

	if len(records) == 0 {
		s.logger.Info("no active limitations, clearing asset capability status",
			zap.Int64("assetID", assetID))
		return tx.Model(&asset).Update("capability_status", nil).Error
	}

	worst := records[0].Status
	worstRank := maintdb.CapabilityRank[worst]
	for _, r := range records[1:] {
		if rank, ok := maintdb.CapabilityRank[r.Status]; ok && rank < worstRank {
			worst = r.Status
			worstRank = rank
		}
	}

	s.logger.Info("setting asset capability status",
		zap.Int64("assetID", assetID),
		zap.String("status", string(worst)),
		zap.Int("activeLimitations", len(records)))
	if err := tx.Model(&asset).Update("capability_status", string(worst)).Error; err != nil {
		return NewServerError("failed to update asset capability status", err)
	}
	return nil
}

func (s *LimitationService) loadSetTx(tx *gorm.DB, setID int64) (*maintdb.MaintenanceActionSet, error) {
	var set maintdb.MaintenanceActionSet
	if err := tx.First(&set, setID).Error; err != nil {
		return nil, HandleDBError(err, "maintenance action set", setID)
	}
	return &set, nil
}

// CreateRecord 创建限制记录
// 同一工作包同一时刻最多一条未解除限制
func (s *LimitationService) CreateRecord(actor Actor, dto LimitationCreateDTO) (*maintdb.AssetLimitationRecord, error) {
	status := maintdb.CapabilityStatus(dto.Status)
	if !maintdb.ValidCapabilityStatus(status) {
		return nil, NewValidationError("invalid capability status")
	}
	if err := validateModificationRules(status, dto.TemporaryModifications); err != nil {
		return nil, err
	}

	var record *maintdb.AssetLimitationRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		set, err := s.loadSetTx(tx, dto.SetID)
		if err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&maintdb.AssetLimitationRecord{}).
			Where("maintenance_action_set_id = ? AND end_time IS NULL", dto.SetID).
			Count(&activeCount).Error; err != nil {
			return NewServerError("failed to count active limitations", err)
		}
		if activeCount > 0 {
			return NewInvalidStateError("cannot create a new limitation while an active limitation exists, close the existing limitation first")
		}

		start := maintdb.Now()
		if dto.StartTime != nil {
			start = *dto.StartTime
		}
		createdBy := actor.UserID
		record = &maintdb.AssetLimitationRecord{
			MaintenanceActionSetID: dto.SetID,
			Status:                 status,
			LimitationDescription:  dto.LimitationDescription,
			TemporaryModifications: dto.TemporaryModifications,
			StartTime:              start,
			MaintenanceBlockerID:   dto.MaintenanceBlockerID,
			CreatedByID:            &createdBy,
		}
		if err := tx.Create(record).Error; err != nil {
			return NewServerError("failed to create limitation record", err)
		}

		return s.refreshCapabilityStatusTx(tx, set.AssetID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord 更新限制记录
func (s *LimitationService) UpdateRecord(recordID, setID int64, actor Actor, dto LimitationUpdateDTO) (*maintdb.AssetLimitationRecord, error) {
	var record maintdb.AssetLimitationRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, recordID).Error; err != nil {
			return HandleDBError(err, "limitation record", recordID)
		}
		if record.MaintenanceActionSetID != setID {
			return NewValidationError("limitation record does not belong to this maintenance action set")
		}

		finalStatus := record.Status
		if dto.Status != nil {
			finalStatus = maintdb.CapabilityStatus(*dto.Status)
			if !maintdb.ValidCapabilityStatus(finalStatus) {
				return NewValidationError("invalid capability status")
			}
		}
		finalModifications := record.TemporaryModifications
		if dto.TemporaryModifications != nil {
			finalModifications = *dto.TemporaryModifications
		}
		if err := validateModificationRules(finalStatus, finalModifications); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if dto.Status != nil {
			updates["status"] = finalStatus
		}
		if dto.LimitationDescription != nil {
			updates["limitation_description"] = *dto.LimitationDescription
		}
		if dto.TemporaryModifications != nil {
			updates["temporary_modifications"] = finalModifications
		}
		if len(updates) > 0 {
			if err := tx.Model(&record).Updates(updates).Error; err != nil {
				return NewServerError("failed to update limitation record", err)
			}
		}

		set, err := s.loadSetTx(tx, setID)
		if err != nil {
			return err
		}
		return s.refreshCapabilityStatusTx(tx, set.AssetID)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CloseRecord 解除限制记录
func (s *LimitationService) CloseRecord(recordID, setID int64, actor Actor, endTime, startTime *maintdb.FleetTime) (*maintdb.AssetLimitationRecord, error) {
	var record maintdb.AssetLimitationRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, recordID).Error; err != nil {
			return HandleDBError(err, "limitation record", recordID)
		}
		if record.MaintenanceActionSetID != setID {
			return NewValidationError("limitation record does not belong to this maintenance action set")
		}
		if record.EndTime != nil {
			return NewInvalidStateError("limitation record is already closed")
		}

		finalEnd := maintdb.Now()
		if endTime != nil {
			finalEnd = *endTime
		}
		finalStart := record.StartTime
		if startTime != nil {
			finalStart = *startTime
		}
		if time.Time(finalStart).After(time.Time(finalEnd)) {
			return NewValidationError("start time cannot be after end time")
		}

		if err := tx.Model(&record).Updates(map[string]interface{}{
			"start_time": finalStart,
			"end_time":   finalEnd,
		}).Error; err != nil {
			return NewServerError("failed to close limitation record", err)
		}
		record.StartTime = finalStart
		record.EndTime = &finalEnd

		set, err := s.loadSetTx(tx, setID)
		if err != nil {
			return err
		}
		return s.refreshCapabilityStatusTx(tx, set.AssetID)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AssetLimitations 取资产的全部限制记录，跨全部工作包，按生效时间倒序
func (s *LimitationService) AssetLimitations(assetID int64) ([]maintdb.AssetLimitationRecord, error) {
	var records []maintdb.AssetLimitationRecord
	err := s.db.Joins("JOIN maintenance_action_sets ON maintenance_action_sets.id = asset_limitation_records.maintenance_action_set_id").
		Where("maintenance_action_sets.asset_id = ?", assetID).
		Order("asset_limitation_records.start_time DESC").
		Find(&records).Error
	if err != nil {
		return nil, NewServerError("failed to query asset limitations", err)
	}
	return records, nil
}

// RefreshCapabilityStatus 重算资产能力状态
// 供后台任务兜底修复使用
func (s *LimitationService) RefreshCapabilityStatus(assetID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.refreshCapabilityStatusTx(tx, assetID)
	})
}
