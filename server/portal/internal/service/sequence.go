package service

import (
	"fmt"

	"fleet-ng/models/maintdb"

	"gorm.io/gorm"
)

// 插入位置取值
const (
	InsertAtEnd       = "end"
	InsertAtBeginning = "beginning"
	InsertAfter       = "after"
)

// shiftForInsertionTx 为插入腾出序号并返回新步骤的序号
// 工作包内步骤序号始终保持稠密的 1..N
func shiftForInsertionTx(tx *gorm.DB, setID int64, insertPosition string, afterActionID *int64) (int, error) {
	var actions []maintdb.Action
	if err := tx.Where("maintenance_action_set_id = ?", setID).
		Order("sequence_order ASC").
		Find(&actions).Error; err != nil {
		return 0, NewServerError("failed to query actions for sequencing", err)
	}

	switch insertPosition {
	case InsertAtEnd, InsertAtBeginning, InsertAfter:
	default:
		return 0, NewValidationError(fmt.Sprintf("invalid insert position: %s", insertPosition))
	}

	if len(actions) == 0 {
		return 1, nil
	}

	switch insertPosition {
	case InsertAtEnd:
		return actions[len(actions)-1].SequenceOrder + 1, nil

	case InsertAtBeginning:
		if err := tx.Model(&maintdb.Action{}).
			Where("maintenance_action_set_id = ?", setID).
			Update("sequence_order", gorm.Expr("sequence_order + 1")).Error; err != nil {
			return 0, NewServerError("failed to shift actions", err)
		}
		return 1, nil

	default: // InsertAfter
		if afterActionID == nil {
			return 0, NewValidationError("after_action_id required when insert position is 'after'")
		}
		var target *maintdb.Action
		for i := range actions {
			if actions[i].ID == *afterActionID {
				target = &actions[i]
				break
			}
		}
		if target == nil {
			return 0, NewNotFoundError("action", *afterActionID)
		}
		if err := tx.Model(&maintdb.Action{}).
			Where("maintenance_action_set_id = ? AND sequence_order > ?", setID, target.SequenceOrder).
			Update("sequence_order", gorm.Expr("sequence_order + 1")).Error; err != nil {
			return 0, NewServerError("failed to shift actions", err)
		}
		return target.SequenceOrder + 1, nil
	}
}

// resequenceTx 删除后重排，恢复稠密的 1..N
func resequenceTx(tx *gorm.DB, setID int64) error {
	var actions []maintdb.Action
	if err := tx.Where("maintenance_action_set_id = ?", setID).
		Order("sequence_order ASC, id ASC").
		Find(&actions).Error; err != nil {
		return NewServerError("failed to query actions for resequencing", err)
	}
	for i := range actions {
		expected := i + 1
		if actions[i].SequenceOrder == expected {
			continue
		}
		if err := tx.Model(&actions[i]).Update("sequence_order", expected).Error; err != nil {
			return NewServerError("failed to resequence actions", err)
		}
	}
	return nil
}

// reorderActionTx 把步骤移动到新序号并平移其余步骤
func reorderActionTx(tx *gorm.DB, action *maintdb.Action, newOrder int) error {
	if newOrder < 1 {
		return NewValidationError("sequence order must be at least 1")
	}

	var total int64
	if err := tx.Model(&maintdb.Action{}).
		Where("maintenance_action_set_id = ?", action.MaintenanceActionSetID).
		Count(&total).Error; err != nil {
		return NewServerError("failed to count actions", err)
	}
	if int64(newOrder) > total {
		return NewValidationError(fmt.Sprintf("sequence order cannot exceed %d", total))
	}

	current := action.SequenceOrder
	if current == newOrder {
		return nil
	}

	if newOrder < current {
		// 前移：(new..current) 区间整体后移
		if err := tx.Model(&maintdb.Action{}).
			Where("maintenance_action_set_id = ? AND id <> ? AND sequence_order >= ? AND sequence_order < ?",
				action.MaintenanceActionSetID, action.ID, newOrder, current).
			Update("sequence_order", gorm.Expr("sequence_order + 1")).Error; err != nil {
			return NewServerError("failed to shift actions", err)
		}
	} else {
		// 后移：(current..new] 区间整体前移
		if err := tx.Model(&maintdb.Action{}).
			Where("maintenance_action_set_id = ? AND id <> ? AND sequence_order > ? AND sequence_order <= ?",
				action.MaintenanceActionSetID, action.ID, current, newOrder).
			Update("sequence_order", gorm.Expr("sequence_order - 1")).Error; err != nil {
			return NewServerError("failed to shift actions", err)
		}
	}

	if err := tx.Model(action).Update("sequence_order", newOrder).Error; err != nil {
		return NewServerError("failed to set new sequence order", err)
	}
	action.SequenceOrder = newOrder
	return nil
}
