package service

import (
	"strings"

	"fleet-ng/models/maintdb"
	"fleet-ng/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BlockerService 阻塞服务
// 工作包同一时刻最多一条未结束的阻塞
type BlockerService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewBlockerService 创建阻塞服务
func NewBlockerService(db *gorm.DB, logger *zap.Logger) *BlockerService {
	return &BlockerService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// BlockerCreateDTO 阻塞创建入参
type BlockerCreateDTO struct {
	SetID             int64             `json:"setId"`             // 所属工作包ID
	Reason            string            `json:"reason"`            // 阻塞原因
	Notes             string            `json:"notes"`             // 备注
	StartTime         *maintdb.FleetTime `json:"startTime"`        // 开始时间，缺省为当前时间
	BillableHoursLost *float64          `json:"billableHoursLost"` // 损失的计费工时
	EventPriority     string            `json:"eventPriority"`     // 顺带更新的工作包优先级
	OverrideComment   string            `json:"overrideComment"`   // 人工评论，覆盖机器叙述
}

// BlockerUpdateDTO 阻塞更新入参
type BlockerUpdateDTO struct {
	Reason        *string            `json:"reason"`        // 阻塞原因
	Notes         *string            `json:"notes"`         // 备注
	StartDate     *maintdb.FleetTime `json:"startDate"`     // 开始时间
	EndDate       *maintdb.FleetTime `json:"endDate"`       // 结束时间
	BillableHours *float64           `json:"billableHours"` // 损失的计费工时
	Priority      *string            `json:"priority"`      // 优先级
}

// activeBlockersTx 取工作包的全部未结束阻塞
func activeBlockersTx(tx *gorm.DB, setID int64) ([]maintdb.MaintenanceBlocker, error) {
	var blockers []maintdb.MaintenanceBlocker
	err := tx.Where("maintenance_action_set_id = ? AND end_date IS NULL", setID).
		Find(&blockers).Error
	if err != nil {
		return nil, NewServerError("failed to query active blockers", err)
	}
	return blockers, nil
}

// CreateBlocker 创建阻塞
// 存在未结束阻塞时拒绝；Planned/In Progress 的工作包转入 Blocked
func (s *BlockerService) CreateBlocker(actor Actor, dto BlockerCreateDTO) (*maintdb.MaintenanceBlocker, error) {
	if strings.TrimSpace(dto.Reason) == "" {
		return nil, NewValidationError("blocker reason is required")
	}
	// 自定义原因放行，只留日志便于清洗历史数据
	if !utils.StringInSlice(dto.Reason, maintdb.BlockerReasons) {
		s.logger.Warn("non-standard blocker reason",
			zap.Int64("setID", dto.SetID),
			zap.String("reason", dto.Reason))
	}

	hooks := newAfterCommit(s.logger)
	var blocker *maintdb.MaintenanceBlocker
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, dto.SetID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", dto.SetID)
		}

		active, err := activeBlockersTx(tx, dto.SetID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return NewInvalidStateError("an active blocked status already exists, end the current blocker before creating a new one")
		}

		start := maintdb.Now()
		if dto.StartTime != nil {
			start = *dto.StartTime
		}
		createdBy := actor.UserID
		blocker = &maintdb.MaintenanceBlocker{
			MaintenanceActionSetID: dto.SetID,
			Reason:                 dto.Reason,
			Notes:                  dto.Notes,
			StartDate:              &start,
			BillableHours:          dto.BillableHoursLost,
			Priority:               maintdb.PriorityMedium,
			CreatedByID:            &createdBy,
			UpdatedByID:            &createdBy,
		}
		if err := tx.Create(blocker).Error; err != nil {
			return NewServerError("failed to create blocker", err)
		}

		setUpdates := map[string]interface{}{}
		if set.Status == maintdb.ActionSetStatusPlanned || set.Status == maintdb.ActionSetStatusInProgress {
			setUpdates["status"] = maintdb.ActionSetStatusBlocked
			if dto.Notes != "" {
				setUpdates["blocker_notes"] = dto.Notes
			}
		}
		if p := maintdb.Priority(dto.EventPriority); dto.EventPriority != "" && maintdb.ValidPriority(p) {
			setUpdates["priority"] = p
		}
		if len(setUpdates) > 0 {
			if err := tx.Model(&set).Updates(setUpdates).Error; err != nil {
				return NewServerError("failed to update action set for blocker", err)
			}
		}

		hooks.Add("broadcast blocker created", func() error {
			broadcastActivity(ActivityEventDTO{
				Type:   ActivityBlockerCreated,
				SetID:  dto.SetID,
				Actor:  actor.Username,
				Detail: dto.Reason,
			})
			return nil
		})

		if dto.OverrideComment != "" {
			_, err := s.comments.addCommentTx(tx, dto.SetID, actor, dto.OverrideComment, true, nil)
			return err
		}
		return s.comments.narrateTx(tx, dto.SetID, actor,
			NarrateBlockerCreated(actor.Username, dto.Reason, dto.BillableHoursLost), false)
	})
	if err != nil {
		return nil, err
	}
	hooks.Run()

	s.logger.Info("blocker created",
		zap.Int64("blockerID", blocker.ID),
		zap.Int64("setID", dto.SetID),
		zap.String("reason", dto.Reason))
	return blocker, nil
}

// EndBlocker 结束阻塞
// 已结束的阻塞直接返回；最后一条阻塞结束时工作包回到 In Progress
func (s *BlockerService) EndBlocker(blockerID int64, actor Actor, endDate *maintdb.FleetTime, notes string) (*maintdb.MaintenanceBlocker, error) {
	hooks := newAfterCommit(s.logger)
	var blocker maintdb.MaintenanceBlocker
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&blocker, blockerID).Error; err != nil {
			return HandleDBError(err, "blocker", blockerID)
		}
		if blocker.EndDate != nil {
			return nil
		}

		end := maintdb.Now()
		if endDate != nil {
			end = *endDate
		}
		if err := tx.Model(&blocker).Updates(map[string]interface{}{
			"end_date":      end,
			"updated_by_id": actor.UserID,
		}).Error; err != nil {
			return NewServerError("failed to end blocker", err)
		}
		blocker.EndDate = &end

		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, blocker.MaintenanceActionSetID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", blocker.MaintenanceActionSetID)
		}
		if set.Status == maintdb.ActionSetStatusBlocked {
			remaining, err := activeBlockersTx(tx, set.ID)
			if err != nil {
				return err
			}
			if len(remaining) == 0 {
				if err := tx.Model(&set).Update("status", maintdb.ActionSetStatusInProgress).Error; err != nil {
					return NewServerError("failed to unblock action set", err)
				}
			}
		}

		hooks.Add("broadcast blocker ended", func() error {
			broadcastActivity(ActivityEventDTO{
				Type:   ActivityBlockerEnded,
				SetID:  set.ID,
				Actor:  actor.Username,
				Detail: blocker.Reason,
			})
			return nil
		})

		return s.comments.narrateTx(tx, set.ID, actor,
			NarrateBlockerEnded(actor.Username, notes), false)
	})
	if err != nil {
		return nil, err
	}
	hooks.Run()
	return &blocker, nil
}

// UpdateBlocker 更新阻塞明细
// 设置结束时间等同于结束阻塞，同样触发解除逻辑
func (s *BlockerService) UpdateBlocker(blockerID int64, actor Actor, dto BlockerUpdateDTO) (*maintdb.MaintenanceBlocker, error) {
	var blocker maintdb.MaintenanceBlocker
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&blocker, blockerID).Error; err != nil {
			return HandleDBError(err, "blocker", blockerID)
		}

		updates := map[string]interface{}{"updated_by_id": actor.UserID}
		var narrated []string

		if dto.Reason != nil {
			updates["reason"] = *dto.Reason
			narrated = append(narrated, "Reason: "+*dto.Reason)
		}
		if dto.Notes != nil {
			updates["notes"] = *dto.Notes
		}
		if dto.StartDate != nil {
			updates["start_date"] = *dto.StartDate
		}
		if dto.EndDate != nil {
			updates["end_date"] = *dto.EndDate
			narrated = append(narrated, "Blocker ended")
		}
		if dto.BillableHours != nil {
			updates["billable_hours"] = *dto.BillableHours
		}
		if dto.Priority != nil {
			if p := maintdb.Priority(*dto.Priority); maintdb.ValidPriority(p) {
				updates["priority"] = p
			}
		}

		if err := tx.Model(&blocker).Updates(updates).Error; err != nil {
			return NewServerError("failed to update blocker", err)
		}

		if dto.EndDate != nil {
			var set maintdb.MaintenanceActionSet
			if err := tx.First(&set, blocker.MaintenanceActionSetID).Error; err != nil {
				return HandleDBError(err, "maintenance action set", blocker.MaintenanceActionSetID)
			}
			if set.Status == maintdb.ActionSetStatusBlocked {
				remaining, err := activeBlockersTx(tx, set.ID)
				if err != nil {
					return err
				}
				if len(remaining) == 0 {
					if err := tx.Model(&set).Update("status", maintdb.ActionSetStatusInProgress).Error; err != nil {
						return NewServerError("failed to unblock action set", err)
					}
				}
			}
		}

		if len(narrated) > 0 {
			return s.comments.narrateTx(tx, blocker.MaintenanceActionSetID, actor,
				"Blocker updated: "+strings.Join(narrated, ". "), false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blocker, nil
}

// ActiveBlockers 取工作包的未结束阻塞
func (s *BlockerService) ActiveBlockers(setID int64) ([]maintdb.MaintenanceBlocker, error) {
	return activeBlockersTx(s.db, setID)
}
