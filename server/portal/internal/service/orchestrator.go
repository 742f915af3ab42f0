package service

import (
	"strings"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Orchestrator 步骤流转编排器
// 把步骤状态机与工作包状态、指派、工时调和及审计评论串联在同一事务内
type Orchestrator struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewOrchestrator 创建编排器
func NewOrchestrator(db *gorm.DB, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// ActionStatusUpdateDTO 步骤状态流转入参
// 零件联动开关未显式传入时按流转取缺省：完成默认发放，跳过默认取消
type ActionStatusUpdateDTO struct {
	NewStatus            string   `json:"newStatus"`            // 目标状态
	FinalComment         string   `json:"finalComment"`         // 覆盖机器叙述的评论
	IsHumanMade          bool     `json:"isHumanMade"`          // 评论是否人工
	BillableHours        *float64 `json:"billableHours"`        // 计费工时
	CompletionNotes      string   `json:"completionNotes"`      // 完成/失败/跳过说明
	IssuePartDemands     *bool    `json:"issuePartDemands"`     // 完成时发放全部零件，缺省发放
	DuplicatePartDemands *bool    `json:"duplicatePartDemands"` // 失败时复制零件需求，缺省不复制
	CancelPartDemands    *bool    `json:"cancelPartDemands"`    // 失败/跳过时取消零件需求，跳过缺省取消
}

// flagOrDefault 零件联动开关取值
func flagOrDefault(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// ActionEditDTO 步骤编辑入参
type ActionEditDTO struct {
	Status            *string            `json:"status"`            // 步骤状态
	ActionName        *string            `json:"actionName"`        // 步骤名称
	Description       *string            `json:"description"`       // 描述
	ScheduledStart    *maintdb.FleetTime `json:"scheduledStart"`    // 计划开始时间
	BillableHours     *float64           `json:"billableHours"`     // 计费工时
	CompletionNotes   *string            `json:"completionNotes"`   // 完成说明
	AssignedUserID    *int64             `json:"assignedUserId"`    // 指派用户ID
	ResetToInProgress bool               `json:"resetToInProgress"` // 从终态重置回进行中
}

// handleUserAssignment 步骤级指派兜底
// 未指派时落到操作者头上；终态记录完成人
func handleUserAssignment(tx *gorm.DB, action *maintdb.Action, actor Actor, newStatus maintdb.ActionStatus) error {
	updates := map[string]interface{}{}
	if action.AssignedUserID == nil && actor.UserID != 0 {
		updates["assigned_user_id"] = actor.UserID
		if action.AssignedByID == nil {
			updates["assigned_by_id"] = actor.UserID
		}
	}
	if newStatus.IsTerminal() && actor.UserID != 0 {
		updates["completed_by_id"] = actor.UserID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(action).Updates(updates).Error; err != nil {
		return NewServerError("failed to update action assignment", err)
	}
	return nil
}

// issueAllDemandsTx 发放步骤下全部未发放的零件需求
func issueAllDemandsTx(tx *gorm.DB, actionID int64) error {
	err := tx.Model(&maintdb.PartDemand{}).
		Where("action_id = ? AND status <> ?", actionID, maintdb.PartDemandStatusIssued).
		Update("status", maintdb.PartDemandStatusIssued).Error
	if err != nil {
		return NewServerError("failed to issue part demands", err)
	}
	return nil
}

// cancelOpenDemandsTx 取消步骤下全部未发放未取消的零件需求
func cancelOpenDemandsTx(tx *gorm.DB, actionID int64) error {
	err := tx.Model(&maintdb.PartDemand{}).
		Where("action_id = ? AND status NOT IN ?", actionID, []maintdb.PartDemandStatus{
			maintdb.PartDemandStatusIssued,
			maintdb.PartDemandStatusCancelledTechnician,
			maintdb.PartDemandStatusCancelledSupply,
		}).
		Update("status", maintdb.PartDemandStatusCancelledTechnician).Error
	if err != nil {
		return NewServerError("failed to cancel part demands", err)
	}
	return nil
}

// duplicateOpenDemandsTx 为失败步骤复制零件需求，零件可能已被消耗
func duplicateOpenDemandsTx(tx *gorm.DB, actionID int64, actor Actor) error {
	var demands []maintdb.PartDemand
	if err := tx.Where("action_id = ? AND status <> ?", actionID, maintdb.PartDemandStatusIssued).
		Find(&demands).Error; err != nil {
		return NewServerError("failed to query part demands", err)
	}
	userID := actor.UserID
	for _, d := range demands {
		notes := "Duplicated from failed action. Original: "
		if d.Notes != "" {
			notes += d.Notes
		} else {
			notes += "N/A"
		}
		clone := maintdb.PartDemand{
			ActionID:         actionID,
			PartID:           d.PartID,
			PartName:         d.PartName,
			QuantityRequired: d.QuantityRequired,
			Status:           maintdb.PartDemandStatusPendingManager,
			Priority:         d.Priority,
			SequenceOrder:    d.SequenceOrder,
			Notes:            notes,
			ExpectedCost:     d.ExpectedCost,
			RequestedByID:    &userID,
			CreatedByID:      &userID,
			UpdatedByID:      &userID,
		}
		if err := tx.Create(&clone).Error; err != nil {
			return NewServerError("failed to duplicate part demand", err)
		}
	}
	return nil
}

// autoAssignSetTx 工作包自动指派
// 已指派或用户无效时跳过，返回是否发生指派
func (o *Orchestrator) autoAssignSetTx(tx *gorm.DB, set *maintdb.MaintenanceActionSet, actor Actor) (bool, error) {
	if set.AssignedUserID != nil || actor.UserID == 0 {
		return false, nil
	}
	_, active, err := ResolveActor(tx, actor.UserID)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !active {
		return false, nil
	}
	if err := tx.Model(set).Updates(map[string]interface{}{
		"assigned_user_id": actor.UserID,
		"assigned_by_id":   actor.UserID,
	}).Error; err != nil {
		return false, NewServerError("failed to auto-assign action set", err)
	}
	set.AssignedUserID = &actor.UserID
	set.AssignedByID = &actor.UserID
	return true, nil
}

// promoteSetTx Planned 状态的工作包随首次步骤活动进入 In Progress
func promoteSetTx(tx *gorm.DB, set *maintdb.MaintenanceActionSet) error {
	if set.Status != maintdb.ActionSetStatusPlanned {
		return nil
	}
	updates := map[string]interface{}{"status": maintdb.ActionSetStatusInProgress}
	if set.StartDate == nil {
		now := maintdb.Now()
		updates["start_date"] = now
		set.StartDate = &now
	}
	if err := tx.Model(set).Updates(updates).Error; err != nil {
		return NewServerError("failed to promote action set", err)
	}
	set.Status = maintdb.ActionSetStatusInProgress
	return nil
}

// UpdateActionStatus 步骤状态流转
// 状态变更、零件联动、自动指派、工作包晋升、工时调和与审计评论在同一事务内完成
func (o *Orchestrator) UpdateActionStatus(actionID int64, actor Actor, dto ActionStatusUpdateDTO) error {
	newStatus := maintdb.ActionStatus(dto.NewStatus)
	hooks := newAfterCommit(o.logger)

	err := o.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, actionID).Error; err != nil {
			return HandleDBError(err, "action", actionID)
		}
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, action.MaintenanceActionSetID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", action.MaintenanceActionSetID)
		}

		// 阻塞未解除时冻结全部步骤流转
		blockers, err := activeBlockersTx(tx, set.ID)
		if err != nil {
			return err
		}
		if len(blockers) > 0 {
			return NewInvalidStateError("action status cannot change while a blocker is open, end the blocker first")
		}

		oldStatus := action.Status
		prefix := ActionPrefix(action.SequenceOrder, action.ActionName)
		now := maintdb.Now()
		updates := map[string]interface{}{"status": newStatus, "updated_by_id": actor.UserID}

		switch newStatus {
		case maintdb.ActionStatusInProgress:
			if oldStatus != maintdb.ActionStatusNotStarted {
				return NewInvalidTransitionError("action", string(oldStatus), string(newStatus))
			}
			updates["start_time"] = now

		case maintdb.ActionStatusComplete:
			if oldStatus != maintdb.ActionStatusNotStarted &&
				oldStatus != maintdb.ActionStatusInProgress &&
				oldStatus != maintdb.ActionStatusBlocked {
				return NewInvalidTransitionError("action", string(oldStatus), string(newStatus))
			}
			updates["end_time"] = now
			if dto.BillableHours != nil {
				updates["billable_hours"] = *dto.BillableHours
			}
			if dto.CompletionNotes != "" {
				updates["completion_notes"] = dto.CompletionNotes
			}
			if flagOrDefault(dto.IssuePartDemands, true) {
				if err := issueAllDemandsTx(tx, action.ID); err != nil {
					return err
				}
			}

		case maintdb.ActionStatusFailed:
			if oldStatus != maintdb.ActionStatusNotStarted &&
				oldStatus != maintdb.ActionStatusInProgress &&
				oldStatus != maintdb.ActionStatusBlocked {
				return NewInvalidTransitionError("action", string(oldStatus), string(newStatus))
			}
			updates["end_time"] = now
			if dto.BillableHours != nil {
				updates["billable_hours"] = *dto.BillableHours
			}
			if dto.CompletionNotes != "" {
				updates["completion_notes"] = dto.CompletionNotes
			}
			if flagOrDefault(dto.DuplicatePartDemands, false) {
				if err := duplicateOpenDemandsTx(tx, action.ID, actor); err != nil {
					return err
				}
			}
			if flagOrDefault(dto.CancelPartDemands, false) {
				if err := cancelOpenDemandsTx(tx, action.ID); err != nil {
					return err
				}
			}

		case maintdb.ActionStatusSkipped:
			if oldStatus != maintdb.ActionStatusNotStarted && oldStatus != maintdb.ActionStatusInProgress {
				return NewInvalidTransitionError("action", string(oldStatus), string(newStatus))
			}
			if dto.CompletionNotes != "" {
				updates["completion_notes"] = dto.CompletionNotes
			}
			if flagOrDefault(dto.CancelPartDemands, true) {
				if err := cancelOpenDemandsTx(tx, action.ID); err != nil {
					return err
				}
			}

		case maintdb.ActionStatusBlocked, maintdb.ActionStatusNotStarted:
			// 阻塞由阻塞引擎驱动，此处仅落状态

		default:
			return NewValidationError("invalid action status")
		}

		if err := tx.Model(&action).Updates(updates).Error; err != nil {
			return NewServerError("failed to update action status", err)
		}
		if err := handleUserAssignment(tx, &action, actor, newStatus); err != nil {
			return err
		}

		commentText := NarrateStatusChanged(prefix, string(oldStatus), string(newStatus))
		if dto.FinalComment != "" {
			if strings.Contains(dto.FinalComment, prefix) {
				commentText = dto.FinalComment
			} else {
				commentText = prefix + " " + dto.FinalComment
			}
		}

		if newStatus != maintdb.ActionStatusSkipped {
			assigned, err := o.autoAssignSetTx(tx, &set, actor)
			if err != nil {
				return err
			}
			if assigned {
				commentText += " | " + prefix + " " + NarrateAutoAssigned(actor.Username, "action status updated")
			}
		}

		if err := promoteSetTx(tx, &set); err != nil {
			return err
		}

		// 尽力而为：工时自动上调失败不回滚状态流转
		if _, err := autoUpdateIfGreaterTx(tx, &set); err != nil {
			o.logger.Warn("billable hours auto-update failed",
				zap.Int64("setID", set.ID),
				zap.Error(err))
		}

		hooks.Add("broadcast action status", func() error {
			broadcastActivity(ActivityEventDTO{
				Type:     ActivityActionStatusChanged,
				SetID:    set.ID,
				ActionID: action.ID,
				Actor:    actor.Username,
				Detail:   commentText,
			})
			return nil
		})

		return o.comments.narrateTx(tx, set.ID, actor, commentText, dto.IsHumanMade)
	})
	if err != nil {
		return err
	}
	hooks.Run()
	return nil
}

// EditAction 编辑步骤
// 状态变化或重置时生成审计评论并触发与状态流转相同的联动
func (o *Orchestrator) EditAction(actionID int64, actor Actor, dto ActionEditDTO) error {
	return o.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, actionID).Error; err != nil {
			return HandleDBError(err, "action", actionID)
		}
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, action.MaintenanceActionSetID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", action.MaintenanceActionSetID)
		}

		oldStatus := action.Status
		updates := map[string]interface{}{"updated_by_id": actor.UserID}

		var newStatus maintdb.ActionStatus
		statusChanged := false
		if dto.ResetToInProgress {
			if !oldStatus.IsTerminal() {
				return NewInvalidStateError("only terminal actions can be reset to in progress")
			}
			newStatus = maintdb.ActionStatusInProgress
			statusChanged = true
			updates["status"] = newStatus
			updates["end_time"] = nil
		} else if dto.Status != nil {
			newStatus = maintdb.ActionStatus(*dto.Status)
			switch newStatus {
			case maintdb.ActionStatusNotStarted, maintdb.ActionStatusInProgress, maintdb.ActionStatusBlocked,
				maintdb.ActionStatusComplete, maintdb.ActionStatusFailed, maintdb.ActionStatusSkipped:
			default:
				return NewValidationError("invalid action status")
			}
			if newStatus != oldStatus {
				statusChanged = true
				updates["status"] = newStatus
			}
		}

		if dto.ActionName != nil {
			updates["action_name"] = *dto.ActionName
		}
		if dto.Description != nil {
			updates["description"] = *dto.Description
		}
		if dto.ScheduledStart != nil {
			updates["scheduled_start_time"] = *dto.ScheduledStart
		}
		if dto.BillableHours != nil {
			updates["billable_hours"] = *dto.BillableHours
		}
		if dto.CompletionNotes != nil {
			updates["completion_notes"] = *dto.CompletionNotes
		}
		if dto.AssignedUserID != nil {
			updates["assigned_user_id"] = *dto.AssignedUserID
		}

		if err := tx.Model(&action).Updates(updates).Error; err != nil {
			return NewServerError("failed to edit action", err)
		}

		commentText := ""
		prefix := ActionPrefix(action.SequenceOrder, action.ActionName)
		if dto.ResetToInProgress {
			commentText = prefix + " Status reset from " + string(oldStatus) + " to In Progress (for retry) by " + actor.Username
		} else if statusChanged {
			commentText = prefix + " Status changed from " + string(oldStatus) + " to " + string(newStatus) + " by " + actor.Username
		}

		if statusChanged && newStatus != maintdb.ActionStatusSkipped {
			assigned, err := o.autoAssignSetTx(tx, &set, actor)
			if err != nil {
				return err
			}
			if assigned {
				commentText += " | " + prefix + " " + NarrateAutoAssigned(actor.Username, "action status updated")
			}
		}

		if statusChanged {
			if err := promoteSetTx(tx, &set); err != nil {
				return err
			}
		}

		// 尽力而为：工时自动上调失败不回滚编辑
		if _, err := autoUpdateIfGreaterTx(tx, &set); err != nil {
			o.logger.Warn("billable hours auto-update failed",
				zap.Int64("setID", set.ID),
				zap.Error(err))
		}

		if commentText == "" {
			return nil
		}
		return o.comments.narrateTx(tx, set.ID, actor, commentText, true)
	})
}
