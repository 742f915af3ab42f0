package service

import (
	"fmt"
	"strings"
)

// 机器生成评论的统一文案
// 叙述格式与流转逻辑解耦，保证审计轨迹措辞一致

// NarrateActionCreated 步骤创建
func NarrateActionCreated(actionName, username string) string {
	return fmt.Sprintf("Action created: '%s' by %s", actionName, username)
}

// NarrateActionDuplicated 步骤复制
func NarrateActionDuplicated(actionName, username string) string {
	return fmt.Sprintf("Action duplicated: '%s' by %s", actionName, username)
}

// NarrateActionDeleted 步骤删除
func NarrateActionDeleted(actionName, username string) string {
	return fmt.Sprintf("Action deleted: '%s' by %s", actionName, username)
}

// NarrateMaintenanceCompleted 维护完成
func NarrateMaintenanceCompleted(username, comment string) string {
	return strings.TrimSpace(fmt.Sprintf("Maintenance completed by %s. %s", username, comment))
}

// NarrateBlockerCreated 阻塞创建
func NarrateBlockerCreated(username, reason string, billableHoursLost *float64) string {
	base := fmt.Sprintf("Blocked status created by %s. Reason: %s", username, reason)
	if billableHoursLost != nil {
		base += fmt.Sprintf(" | Billable hours lost: %v", *billableHoursLost)
	}
	return base
}

// NarrateBlockerEnded 阻塞解除
func NarrateBlockerEnded(username, comment string) string {
	if comment != "" {
		return fmt.Sprintf("Blocked status ended by %s. %s", username, comment)
	}
	return fmt.Sprintf("Blocked status ended by %s. Maintenance work resumed.", username)
}

// NarratePartIssued 零件发放
func NarratePartIssued(partName string, quantity float64, username string) string {
	return fmt.Sprintf("Part issued: %s x%v by %s", partName, quantity, username)
}

// NarratePartCancelled 零件需求取消
func NarratePartCancelled(partName string, quantity float64, username, reason string) string {
	return fmt.Sprintf("Part demand cancelled: %s x%v by %s. Reason: %s", partName, quantity, username, reason)
}

// NarratePartResetToPlanned 零件需求重置
func NarratePartResetToPlanned(partName string, quantity float64, username string) string {
	return fmt.Sprintf("Part demand reset to planned: %s x%v by %s", partName, quantity, username)
}

// NarratePartUpdated 零件需求更新
func NarratePartUpdated(partName string, quantity float64, username, status string) string {
	msg := fmt.Sprintf("Part demand updated: %s x%v by %s", partName, quantity, username)
	if status != "" {
		msg += fmt.Sprintf(". Status: %s", status)
	}
	return msg
}

// NarratePartDemandCreated 零件需求创建
func NarratePartDemandCreated(partName string, quantity float64, username, notes string) string {
	msg := fmt.Sprintf("Part demand created: %s x%v by %s", partName, quantity, username)
	if notes != "" {
		msg += fmt.Sprintf(". Notes: %s", notes)
	}
	return msg
}

// NarrateToolRequirementCreated 工具需求创建
func NarrateToolRequirementCreated(toolName, actionName, username string) string {
	return fmt.Sprintf("Tool requirement created: %s for action '%s' by %s", toolName, actionName, username)
}

// NarrateToolRequirementUpdated 工具需求更新
func NarrateToolRequirementUpdated(toolName, actionName, username, status string) string {
	msg := fmt.Sprintf("Tool requirement updated: %s for action '%s' by %s", toolName, actionName, username)
	if status != "" {
		msg += fmt.Sprintf(". Status: %s", status)
	}
	return msg
}

// NarrateToolRequirementDeleted 工具需求删除
func NarrateToolRequirementDeleted(toolName, actionName, username string) string {
	return fmt.Sprintf("Tool requirement deleted: %s from action '%s' by %s", toolName, actionName, username)
}

// ActionPrefix 步骤评论前缀
func ActionPrefix(sequenceOrder int, actionName string) string {
	return fmt.Sprintf("[Action #%d: %s]", sequenceOrder, actionName)
}

// NarrateStatusChanged 状态变更
func NarrateStatusChanged(prefix, oldStatus, newStatus string) string {
	return fmt.Sprintf("%s Status changed from %s to %s", prefix, oldStatus, newStatus)
}

// NarrateAutoAssigned 自动指派
func NarrateAutoAssigned(username, reason string) string {
	return fmt.Sprintf("Auto-assigned to %s (%s)", username, reason)
}

// NarrateMaintenanceCreated 维修单创建
func NarrateMaintenanceCreated(taskName, username string) string {
	return fmt.Sprintf("Maintenance created: %s by %s", taskName, username)
}

// NarrateMaintenanceStarted 维修开工
func NarrateMaintenanceStarted(username string) string {
	return fmt.Sprintf("Maintenance started by %s", username)
}

// NarrateMaintenanceCancelled 维修取消
func NarrateMaintenanceCancelled(username, notes string) string {
	text := fmt.Sprintf("Maintenance cancelled by %s", username)
	if notes != "" {
		text += ". Notes: " + notes
	}
	return text
}
