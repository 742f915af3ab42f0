package service

import (
	"fmt"
	"time"

	"fleet-ng/models/maintdb"
	"fleet-ng/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// completionLocker 完成流程的分布式锁
type completionLocker interface {
	AcquireLock(key string, value string, expiry time.Duration) (bool, error)
	Delete(key string)
}

// MaintenanceService 维护工作包服务
// 工作包级别的生命周期：创建、指派、启动、延期、完成、取消
type MaintenanceService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
	hours    *BillableHoursService
	locks    completionLocker
}

// NewMaintenanceService 创建维护工作包服务
func NewMaintenanceService(db *gorm.DB, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
		hours:    NewBillableHoursService(db, logger),
	}
}

// WithCompletionLocker 替换完成流程使用的锁
func (s *MaintenanceService) WithCompletionLocker(locks completionLocker) *MaintenanceService {
	s.locks = locks
	return s
}

// ActionSetCreateDTO 工作包创建入参
type ActionSetCreateDTO struct {
	AssetID      int64              `json:"assetId"`      // 资产ID
	TaskName     string             `json:"taskName"`     // 任务名称
	Description  string             `json:"description"`  // 描述
	Priority     string             `json:"priority"`     // 优先级
	PlannedStart *maintdb.FleetTime `json:"plannedStart"` // 计划开始时间
}

// AssignDTO 指派入参
type AssignDTO struct {
	AssignedUserID int64              `json:"assignedUserId"` // 被指派技术员ID
	PlannedStart   *maintdb.FleetTime `json:"plannedStart"`   // 顺带更新的计划开始时间
	Priority       string             `json:"priority"`       // 顺带更新的优先级
	Notes          string             `json:"notes"`          // 指派备注
}

// CompletionDTO 完成入参
// 完成必须携带表计核验读数，至少填写一个表计
type CompletionDTO struct {
	CompletionComment string            `json:"completionComment"` // 完成说明
	StartDate         maintdb.FleetTime `json:"startDate"`         // 实际开始时间
	EndDate           maintdb.FleetTime `json:"endDate"`           // 实际结束时间
	BillableHours     float64           `json:"billableHours"`     // 实际计费工时
	MeterVerified     bool              `json:"meterVerified"`     // 表计读数已人工核验
	Meter1            *float64          `json:"meter1"`            // 表计1读数
	Meter2            *float64          `json:"meter2"`            // 表计2读数
	Meter3            *float64          `json:"meter3"`            // 表计3读数
	Meter4            *float64          `json:"meter4"`            // 表计4读数
}

// DelayCreateDTO 延期入参
type DelayCreateDTO struct {
	DelayType          string             `json:"delayType"`          // 延期类型
	DelayReason        string             `json:"delayReason"`        // 延期原因
	DelayStartDate     *maintdb.FleetTime `json:"delayStartDate"`     // 延期开始时间，缺省为当前时间
	DelayBillableHours *float64           `json:"delayBillableHours"` // 延期损失工时
	DelayNotes         string             `json:"delayNotes"`         // 备注
	Priority           string             `json:"priority"`           // 优先级
}

// CreateActionSet 创建工作包，初始状态 Planned
func (s *MaintenanceService) CreateActionSet(actor Actor, dto ActionSetCreateDTO) (*maintdb.MaintenanceActionSet, error) {
	if dto.TaskName == "" {
		return nil, NewValidationError("task name is required")
	}
	priority := maintdb.PriorityMedium
	if dto.Priority != "" {
		p := maintdb.Priority(dto.Priority)
		if !maintdb.ValidPriority(p) {
			return nil, NewValidationError("invalid priority")
		}
		priority = p
	}

	var set *maintdb.MaintenanceActionSet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var asset maintdb.Asset
		if err := tx.First(&asset, dto.AssetID).Error; err != nil {
			return HandleDBError(err, "asset", dto.AssetID)
		}

		set = &maintdb.MaintenanceActionSet{
			AssetID:      dto.AssetID,
			TaskName:     dto.TaskName,
			Description:  dto.Description,
			Status:       maintdb.ActionSetStatusPlanned,
			Priority:     priority,
			PlannedStart: dto.PlannedStart,
		}
		if err := tx.Create(set).Error; err != nil {
			return NewServerError("failed to create maintenance action set", err)
		}
		return s.comments.narrateTx(tx, set.ID, actor,
			NarrateMaintenanceCreated(dto.TaskName, actor.Username), false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("maintenance action set created",
		zap.Int64("setID", set.ID),
		zap.Int64("assetID", dto.AssetID),
		zap.String("taskName", dto.TaskName))
	return set, nil
}

// Start 启动工作包
func (s *MaintenanceService) Start(setID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}
		if set.Status != maintdb.ActionSetStatusPlanned {
			return NewInvalidTransitionError("maintenance action set", string(set.Status), string(maintdb.ActionSetStatusInProgress))
		}
		now := maintdb.Now()
		updates := map[string]interface{}{
			"status":     maintdb.ActionSetStatusInProgress,
			"start_date": now,
		}
		if actor.UserID != 0 {
			updates["assigned_by_id"] = actor.UserID
		}
		if err := tx.Model(&set).Updates(updates).Error; err != nil {
			return NewServerError("failed to start maintenance action set", err)
		}
		return s.comments.narrateTx(tx, setID, actor,
			NarrateMaintenanceStarted(actor.Username), false)
	})
}

// Assign 指派或改派工作包给技术员
func (s *MaintenanceService) Assign(setID int64, actor Actor, dto AssignDTO) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}

		var technician maintdb.User
		if err := tx.First(&technician, dto.AssignedUserID).Error; err != nil {
			return HandleDBError(err, "user", dto.AssignedUserID)
		}
		if !technician.Active {
			return NewValidationError(fmt.Sprintf("technician %d is not active", dto.AssignedUserID))
		}

		updates := map[string]interface{}{
			"assigned_user_id": dto.AssignedUserID,
			"assigned_by_id":   actor.UserID,
		}
		if dto.PlannedStart != nil {
			updates["planned_start"] = *dto.PlannedStart
		}
		if p := maintdb.Priority(dto.Priority); dto.Priority != "" && maintdb.ValidPriority(p) {
			updates["priority"] = p
		}
		if err := tx.Model(&set).Updates(updates).Error; err != nil {
			return NewServerError("failed to assign maintenance action set", err)
		}

		commentText := "Assigned to " + technician.Username
		if dto.Notes != "" {
			commentText += " | Notes: " + dto.Notes
		}
		return s.comments.narrateTx(tx, setID, actor, commentText, true)
	})
}

// CompleteFromWorkPortal 完成工作包
// 同一工作包的完成用 Redis 锁串行化；阻塞步骤未解除或表计核验失败时整体回滚
func (s *MaintenanceService) CompleteFromWorkPortal(setID int64, actor Actor, dto CompletionDTO) error {
	if !dto.MeterVerified {
		return NewValidationError("meter readings must be verified before completion")
	}

	lockKey := redis.NewKeyBuilder("", "").CompletionLockKey(setID)
	locks := s.locks
	if locks == nil {
		locks = redis.NewRedisHandler("default")
	}

	lockSuccess, err := locks.AcquireLock(lockKey, fmt.Sprintf("complete:%d", time.Now().UnixNano()), 30*time.Second)
	if err != nil {
		return NewServerError("failed to acquire completion lock", err)
	}
	if !lockSuccess {
		return NewInvalidStateError("another completion is already in progress for this maintenance action set")
	}
	defer locks.Delete(lockKey)

	hooks := newAfterCommit(s.logger)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}
		if set.Status != maintdb.ActionSetStatusPlanned &&
			set.Status != maintdb.ActionSetStatusInProgress &&
			set.Status != maintdb.ActionSetStatusDelayed {
			return NewInvalidTransitionError("maintenance action set", string(set.Status), string(maintdb.ActionSetStatusComplete))
		}

		var blockedCount int64
		if err := tx.Model(&maintdb.Action{}).
			Where("maintenance_action_set_id = ? AND status = ?", setID, maintdb.ActionStatusBlocked).
			Count(&blockedCount).Error; err != nil {
			return NewServerError("failed to count blocked actions", err)
		}
		if blockedCount > 0 {
			return NewInvalidStateError("cannot complete maintenance, resolve all blocked actions first")
		}

		// 表计核验：至少一个表计必须有读数
		if dto.Meter1 == nil && dto.Meter2 == nil && dto.Meter3 == nil && dto.Meter4 == nil {
			return NewValidationError("at least one meter value must be provided")
		}
		reading, err := s.recordMeterReadingTx(tx, set.AssetID, actor, dto)
		if err != nil {
			return err
		}

		if dto.BillableHours < 0 {
			return NewValidationError("billable hours must be non-negative")
		}

		updates := map[string]interface{}{
			"status":                maintdb.ActionSetStatusComplete,
			"start_date":            dto.StartDate,
			"end_date":              dto.EndDate,
			"actual_billable_hours": dto.BillableHours,
			"completion_notes":      dto.CompletionComment,
			"meter_reading_id":      reading.ID,
		}
		if actor.UserID != 0 {
			updates["completed_by_id"] = actor.UserID
		}
		if err := tx.Model(&set).Updates(updates).Error; err != nil {
			return NewServerError("failed to complete maintenance action set", err)
		}

		if err := s.comments.narrateTx(tx, setID, actor,
			NarrateMaintenanceCompleted(actor.Username, dto.CompletionComment), false); err != nil {
			return err
		}

		hooks.Add("broadcast completion", func() error {
			broadcastActivity(ActivityEventDTO{
				Type:   ActivityMaintenanceCompleted,
				SetID:  setID,
				Actor:  actor.Username,
				Detail: dto.CompletionComment,
			})
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}

	hooks.Run()
	s.logger.Info("maintenance completed",
		zap.Int64("setID", setID),
		zap.Int64("userID", actor.UserID),
		zap.Float64("billableHours", dto.BillableHours))
	return nil
}

// recordMeterReadingTx 记录完成时的表计快照并回写资产当前读数
func (s *MaintenanceService) recordMeterReadingTx(tx *gorm.DB, assetID int64, actor Actor, dto CompletionDTO) (*maintdb.MeterHistory, error) {
	var asset maintdb.Asset
	if err := tx.First(&asset, assetID).Error; err != nil {
		return nil, HandleDBError(err, "asset", assetID)
	}

	recordedBy := actor.UserID
	reading := &maintdb.MeterHistory{
		AssetID:      assetID,
		Meter1:       dto.Meter1,
		Meter2:       dto.Meter2,
		Meter3:       dto.Meter3,
		Meter4:       dto.Meter4,
		RecordedAt:   maintdb.Now(),
		RecordedByID: &recordedBy,
	}
	if err := tx.Create(reading).Error; err != nil {
		return nil, NewServerError("failed to create meter history record", err)
	}

	assetUpdates := map[string]interface{}{}
	if dto.Meter1 != nil {
		assetUpdates["meter1"] = *dto.Meter1
	}
	if dto.Meter2 != nil {
		assetUpdates["meter2"] = *dto.Meter2
	}
	if dto.Meter3 != nil {
		assetUpdates["meter3"] = *dto.Meter3
	}
	if dto.Meter4 != nil {
		assetUpdates["meter4"] = *dto.Meter4
	}
	if len(assetUpdates) > 0 {
		if err := tx.Model(&asset).Updates(assetUpdates).Error; err != nil {
			return nil, NewServerError("failed to update asset meters", err)
		}
	}
	return reading, nil
}

// Cancel 取消工作包
func (s *MaintenanceService) Cancel(setID int64, actor Actor, notes string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}
		if set.Status != maintdb.ActionSetStatusPlanned && set.Status != maintdb.ActionSetStatusInProgress {
			return NewInvalidTransitionError("maintenance action set", string(set.Status), string(maintdb.ActionSetStatusCancelled))
		}

		now := maintdb.Now()
		updates := map[string]interface{}{
			"status":   maintdb.ActionSetStatusCancelled,
			"end_date": now,
		}
		if notes != "" {
			updates["completion_notes"] = notes
		}
		if err := tx.Model(&set).Updates(updates).Error; err != nil {
			return NewServerError("failed to cancel maintenance action set", err)
		}
		return s.comments.narrateTx(tx, setID, actor,
			NarrateMaintenanceCancelled(actor.Username, notes), false)
	})
}

// Reopen 重新打开终态工作包
// 仅限 Complete/Cancelled，清除结束时间并回到 In Progress
func (s *MaintenanceService) Reopen(setID int64, actor Actor, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}
		if set.Status != maintdb.ActionSetStatusComplete && set.Status != maintdb.ActionSetStatusCancelled {
			return NewInvalidTransitionError("maintenance action set", string(set.Status), string(maintdb.ActionSetStatusInProgress))
		}

		updates := map[string]interface{}{
			"status":   maintdb.ActionSetStatusInProgress,
			"end_date": nil,
		}
		if err := tx.Model(&set).Updates(updates).Error; err != nil {
			return NewServerError("failed to reopen maintenance action set", err)
		}

		text := "Maintenance reopened by " + actor.Username
		if reason != "" {
			text += " | Reason: " + reason
		}
		return s.comments.narrateTx(tx, setID, actor, text, actor.Human)
	})
}

// AddDelay 登记延期
// Planned/In Progress 的工作包转入 Delayed
func (s *MaintenanceService) AddDelay(setID int64, actor Actor, dto DelayCreateDTO) (*maintdb.MaintenanceDelay, error) {
	if dto.DelayReason == "" {
		return nil, NewValidationError("delay reason is required")
	}

	var delay *maintdb.MaintenanceDelay
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, setID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", setID)
		}

		start := maintdb.Now()
		if dto.DelayStartDate != nil {
			start = *dto.DelayStartDate
		}
		priority := maintdb.PriorityMedium
		if p := maintdb.Priority(dto.Priority); dto.Priority != "" && maintdb.ValidPriority(p) {
			priority = p
		}
		createdBy := actor.UserID
		delay = &maintdb.MaintenanceDelay{
			MaintenanceActionSetID: setID,
			DelayType:              dto.DelayType,
			DelayReason:            dto.DelayReason,
			DelayStartDate:         &start,
			DelayBillableHours:     dto.DelayBillableHours,
			DelayNotes:             dto.DelayNotes,
			Priority:               priority,
			CreatedByID:            &createdBy,
			UpdatedByID:            &createdBy,
		}
		if err := tx.Create(delay).Error; err != nil {
			return NewServerError("failed to create maintenance delay", err)
		}

		if set.Status == maintdb.ActionSetStatusPlanned || set.Status == maintdb.ActionSetStatusInProgress {
			setUpdates := map[string]interface{}{"status": maintdb.ActionSetStatusDelayed}
			if dto.DelayNotes != "" {
				setUpdates["delay_notes"] = dto.DelayNotes
			}
			if err := tx.Model(&set).Updates(setUpdates).Error; err != nil {
				return NewServerError("failed to mark action set delayed", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delay, nil
}

// GetActionSet 取工作包详情
func (s *MaintenanceService) GetActionSet(setID int64) (*maintdb.MaintenanceActionSet, error) {
	var set maintdb.MaintenanceActionSet
	err := s.db.Preload("Actions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(&set, setID).Error
	if err != nil {
		return nil, HandleDBError(err, "maintenance action set", setID)
	}
	return &set, nil
}

// List 分页查询全部工作包，按创建时间倒序
func (s *MaintenanceService) List(page PaginationRequest) (*PaginationResponseWithData[maintdb.MaintenanceActionSet], error) {
	page.AdjustPagination()

	var total int64
	if err := s.db.Model(&maintdb.MaintenanceActionSet{}).Count(&total).Error; err != nil {
		return nil, NewServerError("failed to count action sets", err)
	}

	var sets []maintdb.MaintenanceActionSet
	err := s.db.Order("created_at DESC").
		Offset(page.GetOffset()).
		Limit(page.Size).
		Find(&sets).Error
	if err != nil {
		return nil, NewServerError("failed to list action sets", err)
	}
	return ToPaginationResponseWithData(&page, total, sets), nil
}

// GetByStatus 按状态查询工作包
func (s *MaintenanceService) GetByStatus(status string) ([]maintdb.MaintenanceActionSet, error) {
	var sets []maintdb.MaintenanceActionSet
	err := s.db.Where("status = ?", status).Order("created_at DESC").Find(&sets).Error
	if err != nil {
		return nil, NewServerError("failed to query action sets by status", err)
	}
	return sets, nil
}

// GetByAsset 按资产查询工作包
func (s *MaintenanceService) GetByAsset(assetID int64) ([]maintdb.MaintenanceActionSet, error) {
	var sets []maintdb.MaintenanceActionSet
	err := s.db.Where("asset_id = ?", assetID).Order("created_at DESC").Find(&sets).Error
	if err != nil {
		return nil, NewServerError("failed to query action sets by asset", err)
	}
	return sets, nil
}

// GetByUser 按指派人查询工作包
func (s *MaintenanceService) GetByUser(userID int64) ([]maintdb.MaintenanceActionSet, error) {
	var sets []maintdb.MaintenanceActionSet
	err := s.db.Where("assigned_user_id = ?", userID).Order("created_at DESC").Find(&sets).Error
	if err != nil {
		return nil, NewServerError("failed to query action sets by user", err)
	}
	return sets, nil
}
