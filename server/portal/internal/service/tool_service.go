package service

import (
	"fmt"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActionToolService 工具需求服务
type ActionToolService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewActionToolService 创建工具需求服务
func NewActionToolService(db *gorm.DB, logger *zap.Logger) *ActionToolService {
	return &ActionToolService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// ActionToolCreateDTO 工具需求创建入参
type ActionToolCreateDTO struct {
	ActionID         int64  `json:"actionId"`         // 所属步骤ID
	ToolID           int64  `json:"toolId"`           // 工具ID
	ToolName         string `json:"toolName"`         // 工具名称
	QuantityRequired int    `json:"quantityRequired"` // 需求数量
	Notes            string `json:"notes"`            // 备注
}

// ActionToolUpdateDTO 工具需求更新入参
type ActionToolUpdateDTO struct {
	Status           *string `json:"status"`           // 工具状态
	QuantityRequired *int    `json:"quantityRequired"` // 需求数量
	Notes            *string `json:"notes"`            // 备注
	AssignedToUserID *int64  `json:"assignedToUserId"` // 领用人ID
}

func toolDisplayName(t *maintdb.ActionTool) string {
	if t.ToolName != "" {
		return t.ToolName
	}
	return fmt.Sprintf("Tool #%d", t.ToolID)
}

func (s *ActionToolService) loadToolTx(tx *gorm.DB, toolID int64) (*maintdb.ActionTool, *maintdb.Action, error) {
	var tool maintdb.ActionTool
	if err := tx.First(&tool, toolID).Error; err != nil {
		return nil, nil, HandleDBError(err, "action tool", toolID)
	}
	var action maintdb.Action
	if err := tx.First(&action, tool.ActionID).Error; err != nil {
		return nil, nil, HandleDBError(err, "action", tool.ActionID)
	}
	return &tool, &action, nil
}

// CreateForAction 为步骤创建工具需求
func (s *ActionToolService) CreateForAction(actor Actor, dto ActionToolCreateDTO) (*maintdb.ActionTool, error) {
	if dto.QuantityRequired <= 0 {
		dto.QuantityRequired = 1
	}

	var tool *maintdb.ActionTool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, dto.ActionID).Error; err != nil {
			return HandleDBError(err, "action", dto.ActionID)
		}

		createdBy := actor.UserID
		tool = &maintdb.ActionTool{
			ActionID:         dto.ActionID,
			ToolID:           dto.ToolID,
			ToolName:         dto.ToolName,
			QuantityRequired: dto.QuantityRequired,
			Status:           maintdb.ActionToolStatusPlanned,
			Priority:         maintdb.PriorityMedium,
			Notes:            dto.Notes,
			CreatedByID:      &createdBy,
			UpdatedByID:      &createdBy,
		}
		if err := tx.Create(tool).Error; err != nil {
			return NewServerError("failed to create action tool", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarrateToolRequirementCreated(toolDisplayName(tool), action.ActionName, actor.Username), false)
	})
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// Update 更新工具需求
// 状态流转顺带维护指派与归还时间
func (s *ActionToolService) Update(toolID int64, actor Actor, dto ActionToolUpdateDTO) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tool, action, err := s.loadToolTx(tx, toolID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_by_id": actor.UserID}
		narratedStatus := ""

		if dto.Status != nil {
			status := maintdb.ActionToolStatus(*dto.Status)
			if !maintdb.ValidActionToolStatus(status) {
				return NewValidationError("invalid action tool status")
			}
			updates["status"] = status
			narratedStatus = string(status)

			switch status {
			case maintdb.ActionToolStatusAssigned:
				now := maintdb.Now()
				updates["assigned_date"] = now
				updates["assigned_by_id"] = actor.UserID
				if dto.AssignedToUserID != nil {
					updates["assigned_to_user_id"] = *dto.AssignedToUserID
				} else {
					updates["assigned_to_user_id"] = actor.UserID
				}
			case maintdb.ActionToolStatusReturned:
				if tool.Status != maintdb.ActionToolStatusAssigned {
					return NewInvalidTransitionError("action tool", string(tool.Status), string(status))
				}
				now := maintdb.Now()
				updates["returned_date"] = now
			}
		}
		if dto.QuantityRequired != nil {
			if *dto.QuantityRequired <= 0 {
				return NewValidationError("quantity must be greater than 0")
			}
			updates["quantity_required"] = *dto.QuantityRequired
		}
		if dto.Notes != nil {
			updates["notes"] = *dto.Notes
		}

		if err := tx.Model(tool).Updates(updates).Error; err != nil {
			return NewServerError("failed to update action tool", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarrateToolRequirementUpdated(toolDisplayName(tool), action.ActionName, actor.Username, narratedStatus), true)
	})
}

// Assign 指派工具给领用人，缺省领用人为操作人本人
func (s *ActionToolService) Assign(toolID int64, actor Actor, assignedToUserID *int64) error {
	status := string(maintdb.ActionToolStatusAssigned)
	return s.Update(toolID, actor, ActionToolUpdateDTO{Status: &status, AssignedToUserID: assignedToUserID})
}

// Return 归还工具，仅限已指派状态
func (s *ActionToolService) Return(toolID int64, actor Actor) error {
	status := string(maintdb.ActionToolStatusReturned)
	return s.Update(toolID, actor, ActionToolUpdateDTO{Status: &status})
}

// MarkMissing 标记工具遗失
func (s *ActionToolService) MarkMissing(toolID int64, actor Actor, notes *string) error {
	status := string(maintdb.ActionToolStatusMissing)
	return s.Update(toolID, actor, ActionToolUpdateDTO{Status: &status, Notes: notes})
}

// Delete 删除工具需求
func (s *ActionToolService) Delete(toolID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tool, action, err := s.loadToolTx(tx, toolID)
		if err != nil {
			return err
		}
		if tool.Status == maintdb.ActionToolStatusAssigned {
			return NewInvalidStateError("cannot delete an assigned tool requirement, return it first")
		}

		if err := tx.Delete(tool).Error; err != nil {
			return NewServerError("failed to delete action tool", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarrateToolRequirementDeleted(toolDisplayName(tool), action.ActionName, actor.Username), false)
	})
}
