package service

import (
	"strings"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActionService 步骤服务
// 负责步骤的创建、复制、编辑、排序与删除，状态流转见 Orchestrator
type ActionService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewActionService 创建步骤服务
func NewActionService(db *gorm.DB, logger *zap.Logger) *ActionService {
	return &ActionService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// ActionCreateDTO 步骤创建入参
type ActionCreateDTO struct {
	SetID          int64  `json:"setId"`          // 所属工作包ID
	ActionName     string `json:"actionName"`     // 步骤名称
	Description    string `json:"description"`    // 描述
	InsertPosition string `json:"insertPosition"` // 插入位置 end/beginning/after
	AfterActionID  *int64 `json:"afterActionId"`  // 插入参照步骤ID
}

// CreateBlankAction 创建空白步骤
func (s *ActionService) CreateBlankAction(actor Actor, dto ActionCreateDTO) (*maintdb.Action, error) {
	if strings.TrimSpace(dto.ActionName) == "" {
		return nil, NewValidationError("action name is required")
	}
	if dto.InsertPosition == "" {
		dto.InsertPosition = InsertAtEnd
	}

	var action *maintdb.Action
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var set maintdb.MaintenanceActionSet
		if err := tx.First(&set, dto.SetID).Error; err != nil {
			return HandleDBError(err, "maintenance action set", dto.SetID)
		}

		seq, err := shiftForInsertionTx(tx, dto.SetID, dto.InsertPosition, dto.AfterActionID)
		if err != nil {
			return err
		}

		createdBy := actor.UserID
		action = &maintdb.Action{
			MaintenanceActionSetID: dto.SetID,
			SequenceOrder:          seq,
			ActionName:             dto.ActionName,
			Description:            dto.Description,
			Status:                 maintdb.ActionStatusNotStarted,
			CreatedByID:            &createdBy,
			UpdatedByID:            &createdBy,
		}
		if err := tx.Create(action).Error; err != nil {
			return NewServerError("failed to create action", err)
		}

		return s.comments.narrateTx(tx, dto.SetID, actor,
			NarrateActionCreated(action.ActionName, actor.Username), false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("action created",
		zap.Int64("actionID", action.ID),
		zap.Int64("setID", dto.SetID),
		zap.Int("sequenceOrder", action.SequenceOrder))
	return action, nil
}

// DuplicateAction 复制步骤
// 新步骤紧跟原步骤，零件与工具需求一并复制为初始状态
func (s *ActionService) DuplicateAction(actionID int64, actor Actor) (*maintdb.Action, error) {
	var dup *maintdb.Action
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var source maintdb.Action
		if err := tx.First(&source, actionID).Error; err != nil {
			return HandleDBError(err, "action", actionID)
		}

		afterID := source.ID
		seq, err := shiftForInsertionTx(tx, source.MaintenanceActionSetID, InsertAfter, &afterID)
		if err != nil {
			return err
		}

		createdBy := actor.UserID
		dup = &maintdb.Action{
			MaintenanceActionSetID: source.MaintenanceActionSetID,
			SequenceOrder:          seq,
			ActionName:             source.ActionName,
			Description:            source.Description,
			Status:                 maintdb.ActionStatusNotStarted,
			CreatedByID:            &createdBy,
			UpdatedByID:            &createdBy,
		}
		if err := tx.Create(dup).Error; err != nil {
			return NewServerError("failed to duplicate action", err)
		}

		var demands []maintdb.PartDemand
		if err := tx.Where("action_id = ?", source.ID).Find(&demands).Error; err != nil {
			return NewServerError("failed to query part demands", err)
		}
		for _, d := range demands {
			clone := maintdb.PartDemand{
				ActionID:         dup.ID,
				PartID:           d.PartID,
				PartName:         d.PartName,
				QuantityRequired: d.QuantityRequired,
				Status:           maintdb.PartDemandStatusPlanned,
				Priority:         d.Priority,
				SequenceOrder:    d.SequenceOrder,
				Notes:            d.Notes,
				ExpectedCost:     d.ExpectedCost,
				CreatedByID:      &createdBy,
				UpdatedByID:      &createdBy,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return NewServerError("failed to duplicate part demand", err)
			}
		}

		var tools []maintdb.ActionTool
		if err := tx.Where("action_id = ?", source.ID).Find(&tools).Error; err != nil {
			return NewServerError("failed to query action tools", err)
		}
		for _, t := range tools {
			clone := maintdb.ActionTool{
				ActionID:         dup.ID,
				ToolID:           t.ToolID,
				ToolName:         t.ToolName,
				QuantityRequired: t.QuantityRequired,
				Status:           maintdb.ActionToolStatusPlanned,
				Priority:         t.Priority,
				SequenceOrder:    t.SequenceOrder,
				Notes:            t.Notes,
				CreatedByID:      &createdBy,
				UpdatedByID:      &createdBy,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return NewServerError("failed to duplicate action tool", err)
			}
		}

		return s.comments.narrateTx(tx, source.MaintenanceActionSetID, actor,
			NarrateActionDuplicated(source.ActionName, actor.Username), false)
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

// DeleteAction 删除步骤并重排序号
// 子需求随步骤级联删除
func (s *ActionService) DeleteAction(actionID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, actionID).Error; err != nil {
			return HandleDBError(err, "action", actionID)
		}

		if err := tx.Where("action_id = ?", actionID).Delete(&maintdb.PartDemand{}).Error; err != nil {
			return NewServerError("failed to delete part demands", err)
		}
		if err := tx.Where("action_id = ?", actionID).Delete(&maintdb.ActionTool{}).Error; err != nil {
			return NewServerError("failed to delete action tools", err)
		}
		if err := tx.Delete(&action).Error; err != nil {
			return NewServerError("failed to delete action", err)
		}

		if err := resequenceTx(tx, action.MaintenanceActionSetID); err != nil {
			return err
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarrateActionDeleted(action.ActionName, actor.Username), false)
	})
}

// ReorderAction 调整步骤序号
func (s *ActionService) ReorderAction(actionID int64, actor Actor, newOrder int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, actionID).Error; err != nil {
			return HandleDBError(err, "action", actionID)
		}
		return reorderActionTx(tx, &action, newOrder)
	})
}
