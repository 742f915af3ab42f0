package service

import (
	"fmt"
	"strings"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PartDemandService 零件需求服务
// 每次成功的状态流转都会在所属工作包追加一条叙述评论
type PartDemandService struct {
	db       *gorm.DB
	logger   *zap.Logger
	comments *CommentService
}

// NewPartDemandService 创建零件需求服务
func NewPartDemandService(db *gorm.DB, logger *zap.Logger) *PartDemandService {
	return &PartDemandService{
		db:       db,
		logger:   logger,
		comments: NewCommentService(db, logger),
	}
}

// PartDemandUpdateDTO 零件需求更新入参
type PartDemandUpdateDTO struct {
	QuantityRequired *float64 `json:"quantityRequired"` // 需求数量
	Status           *string  `json:"status"`           // 需求状态
	Priority         *string  `json:"priority"`         // 优先级
	Notes            *string  `json:"notes"`            // 备注
}

// PartDemandCreateDTO 零件需求创建入参
type PartDemandCreateDTO struct {
	ActionID         int64   `json:"actionId"`         // 所属步骤ID
	PartID           int64   `json:"partId"`           // 零件ID
	PartName         string  `json:"partName"`         // 零件名称
	QuantityRequired float64 `json:"quantityRequired"` // 需求数量
	Notes            string  `json:"notes"`            // 备注
	InitialStatus    string  `json:"initialStatus"`    // 初始状态，缺省为待主管审批
}

func partDisplayName(d *maintdb.PartDemand) string {
	if d.PartName != "" {
		return d.PartName
	}
	return fmt.Sprintf("Part #%d", d.PartID)
}

// loadDemandTx 加载需求及其所属工作包ID
func (s *PartDemandService) loadDemandTx(tx *gorm.DB, demandID int64) (*maintdb.PartDemand, *maintdb.Action, error) {
	var demand maintdb.PartDemand
	if err := tx.First(&demand, demandID).Error; err != nil {
		return nil, nil, HandleDBError(err, "part demand", demandID)
	}
	var action maintdb.Action
	if err := tx.First(&action, demand.ActionID).Error; err != nil {
		return nil, nil, HandleDBError(err, "action", demand.ActionID)
	}
	return &demand, &action, nil
}

// Issue 发放零件
// 已发放的需求不可重复发放
func (s *PartDemandService) Issue(demandID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		demand, action, err := s.loadDemandTx(tx, demandID)
		if err != nil {
			return err
		}
		if demand.Status == maintdb.PartDemandStatusIssued {
			return NewInvalidTransitionError("part demand", string(demand.Status), string(maintdb.PartDemandStatusIssued))
		}

		if err := tx.Model(demand).Updates(map[string]interface{}{
			"status":        maintdb.PartDemandStatusIssued,
			"updated_by_id": actor.UserID,
		}).Error; err != nil {
			return NewServerError("failed to issue part demand", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarratePartIssued(partDisplayName(demand), demand.QuantityRequired, actor.Username), false)
	})
}

// CancelByTechnician 技术员取消需求
// 已发放的需求视为已消耗，不可取消；取消必须给出原因
func (s *PartDemandService) CancelByTechnician(demandID int64, actor Actor, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError("cancellation comment is required")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		demand, action, err := s.loadDemandTx(tx, demandID)
		if err != nil {
			return err
		}
		if demand.Status == maintdb.PartDemandStatusIssued {
			return NewInvalidTransitionError("part demand", string(demand.Status), string(maintdb.PartDemandStatusCancelledTechnician))
		}

		if err := tx.Model(demand).Updates(map[string]interface{}{
			"status":        maintdb.PartDemandStatusCancelledTechnician,
			"updated_by_id": actor.UserID,
		}).Error; err != nil {
			return NewServerError("failed to cancel part demand", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarratePartCancelled(partDisplayName(demand), demand.QuantityRequired, actor.Username, reason), false)
	})
}

// UndoToPlanned 将已取消的需求重置为已计划
func (s *PartDemandService) UndoToPlanned(demandID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		demand, action, err := s.loadDemandTx(tx, demandID)
		if err != nil {
			return err
		}
		if !demand.Status.IsCancelled() {
			return NewInvalidTransitionError("part demand", string(demand.Status), string(maintdb.PartDemandStatusPlanned))
		}

		if err := tx.Model(demand).Updates(map[string]interface{}{
			"status":        maintdb.PartDemandStatusPlanned,
			"updated_by_id": actor.UserID,
		}).Error; err != nil {
			return NewServerError("failed to reset part demand", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarratePartResetToPlanned(partDisplayName(demand), demand.QuantityRequired, actor.Username), false)
	})
}

// Update 更新零件需求
// 非法优先级静默忽略，保持宽松语义；非法状态拒绝
func (s *PartDemandService) Update(demandID int64, actor Actor, dto PartDemandUpdateDTO) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		demand, action, err := s.loadDemandTx(tx, demandID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_by_id": actor.UserID}
		narratedStatus := ""

		if dto.Status != nil {
			status := maintdb.PartDemandStatus(*dto.Status)
			if !maintdb.ValidPartDemandStatus(status) {
				return NewValidationError("invalid part demand status")
			}
			updates["status"] = status
			narratedStatus = string(status)
		}
		if dto.Priority != nil {
			if p := maintdb.Priority(*dto.Priority); maintdb.ValidPriority(p) {
				updates["priority"] = p
			}
		}
		if dto.QuantityRequired != nil {
			if *dto.QuantityRequired <= 0 {
				return NewValidationError("quantity must be greater than 0")
			}
			updates["quantity_required"] = *dto.QuantityRequired
			demand.QuantityRequired = *dto.QuantityRequired
		}
		if dto.Notes != nil {
			updates["notes"] = *dto.Notes
		}

		if err := tx.Model(demand).Updates(updates).Error; err != nil {
			return NewServerError("failed to update part demand", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarratePartUpdated(partDisplayName(demand), demand.QuantityRequired, actor.Username, narratedStatus), true)
	})
}

// CreateForAction 为步骤创建零件需求
func (s *PartDemandService) CreateForAction(actor Actor, dto PartDemandCreateDTO) (*maintdb.PartDemand, error) {
	if dto.QuantityRequired <= 0 {
		return nil, NewValidationError("quantity must be greater than 0")
	}

	initialStatus := maintdb.PartDemandStatusPendingManager
	if dto.InitialStatus != "" {
		status := maintdb.PartDemandStatus(dto.InitialStatus)
		if !maintdb.ValidPartDemandStatus(status) {
			return nil, NewValidationError("invalid part demand status")
		}
		initialStatus = status
	}

	var demand *maintdb.PartDemand
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var action maintdb.Action
		if err := tx.First(&action, dto.ActionID).Error; err != nil {
			return HandleDBError(err, "action", dto.ActionID)
		}

		requestedBy := actor.UserID
		demand = &maintdb.PartDemand{
			ActionID:         dto.ActionID,
			PartID:           dto.PartID,
			PartName:         dto.PartName,
			QuantityRequired: dto.QuantityRequired,
			Status:           initialStatus,
			Priority:         maintdb.PriorityMedium,
			Notes:            dto.Notes,
			RequestedByID:    &requestedBy,
			CreatedByID:      &requestedBy,
			UpdatedByID:      &requestedBy,
		}
		if err := tx.Create(demand).Error; err != nil {
			return NewServerError("failed to create part demand", err)
		}

		return s.comments.narrateTx(tx, action.MaintenanceActionSetID, actor,
			NarratePartDemandCreated(partDisplayName(demand), demand.QuantityRequired, actor.Username, dto.Notes), false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("part demand created",
		zap.Int64("demandID", demand.ID),
		zap.Int64("actionID", dto.ActionID),
		zap.Int64("userID", actor.UserID))
	return demand, nil
}
