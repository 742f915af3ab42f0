package service

import (
	"strings"

	"fleet-ng/models/maintdb"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentService 评论服务
// 评论账本只追加：编辑生成新行并把旧行标记为 edit，删除只做软删除
type CommentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCommentService 创建评论服务
func NewCommentService(db *gorm.DB, logger *zap.Logger) *CommentService {
	return &CommentService{db: db, logger: logger}
}

// AddComment 为工作包追加评论
func (s *CommentService) AddComment(setID int64, actor Actor, content string, isHumanMade bool, repliedToID *int64) (*maintdb.Comment, error) {
	var comment *maintdb.Comment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		comment, txErr = s.addCommentTx(tx, setID, actor, content, isHumanMade, repliedToID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// addCommentTx 在既有事务内追加评论，供各服务在同一事务里留痕
func (s *CommentService) addCommentTx(tx *gorm.DB, setID int64, actor Actor, content string, isHumanMade bool, repliedToID *int64) (*maintdb.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("comment content is required")
	}

	if repliedToID != nil {
		var parent maintdb.Comment
		if err := tx.First(&parent, *repliedToID).Error; err != nil {
			return nil, HandleDBError(err, "comment", *repliedToID)
		}
		if parent.MaintenanceActionSetID != setID {
			return nil, NewValidationError("reply target does not belong to this maintenance action set")
		}
		if parent.IsDeleted() {
			return nil, NewValidationError("cannot reply to deleted comment")
		}
	}

	comment := &maintdb.Comment{
		MaintenanceActionSetID: setID,
		Content:                content,
		CreatedByID:            actor.UserID,
		IsHumanMade:            isHumanMade,
		RepliedToCommentID:     repliedToID,
	}
	if err := tx.Create(comment).Error; err != nil {
		return nil, NewServerError("failed to create comment", err)
	}
	return comment, nil
}

// narrateTx 追加一条机器生成的叙述评论
// 文案按 " | " 拆分为多条，保持单条评论单一事实
func (s *CommentService) narrateTx(tx *gorm.DB, setID int64, actor Actor, text string, isHumanMade bool) error {
	for _, part := range strings.Split(text, " | ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := s.addCommentTx(tx, setID, actor, part, isHumanMade, nil); err != nil {
			return err
		}
	}
	return nil
}

// EditComment 编辑评论
// 旧行标记为 edit，新行通过 previous_comment_id 链接旧行，附件迁移到新行
func (s *CommentService) EditComment(commentID int64, actor Actor, newContent string) (*maintdb.Comment, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, NewValidationError("comment content is required")
	}

	var newComment *maintdb.Comment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var old maintdb.Comment
		if err := tx.First(&old, commentID).Error; err != nil {
			return HandleDBError(err, "comment", commentID)
		}
		if old.CreatedByID != actor.UserID {
			return NewPermissionDeniedError("you can only edit your own comments")
		}
		if !old.IsVisible() {
			return NewInvalidStateError("only visible comments can be edited")
		}

		hidden := maintdb.CommentHiddenEdit
		if err := tx.Model(&old).Update("user_viewable", hidden).Error; err != nil {
			return NewServerError("failed to supersede comment", err)
		}

		prevID := old.ID
		newComment = &maintdb.Comment{
			MaintenanceActionSetID: old.MaintenanceActionSetID,
			Content:                newContent,
			CreatedByID:            actor.UserID,
			IsHumanMade:            old.IsHumanMade,
			RepliedToCommentID:     old.RepliedToCommentID,
			PreviousCommentID:      &prevID,
		}
		if err := tx.Create(newComment).Error; err != nil {
			return NewServerError("failed to create edited comment", err)
		}

		if err := tx.Model(&maintdb.CommentAttachment{}).
			Where("comment_id = ?", old.ID).
			Update("comment_id", newComment.ID).Error; err != nil {
			return NewServerError("failed to move comment attachments", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment edited",
		zap.Int64("oldCommentID", commentID),
		zap.Int64("newCommentID", newComment.ID),
		zap.Int64("userID", actor.UserID))
	return newComment, nil
}

// DeleteComment 软删除评论
func (s *CommentService) DeleteComment(commentID int64, actor Actor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var comment maintdb.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return HandleDBError(err, "comment", commentID)
		}
		if comment.CreatedByID != actor.UserID {
			return NewPermissionDeniedError("you can only delete your own comments")
		}
		if comment.IsDeleted() {
			return NewInvalidStateError("comment is already deleted")
		}
		hidden := maintdb.CommentHiddenDeleted
		if err := tx.Model(&comment).Update("user_viewable", hidden).Error; err != nil {
			return NewServerError("failed to delete comment", err)
		}
		return nil
	})
}

// VisibleComments 取工作包下全部可见评论，按时间正序
func (s *CommentService) VisibleComments(setID int64) ([]maintdb.Comment, error) {
	var comments []maintdb.Comment
	err := s.db.Where("maintenance_action_set_id = ? AND user_viewable IS NULL", setID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, NewServerError("failed to query comments", err)
	}
	return comments, nil
}

// HumanComments 取工作包下人工发表的可见评论
func (s *CommentService) HumanComments(setID int64) ([]maintdb.Comment, error) {
	var comments []maintdb.Comment
	err := s.db.Where("maintenance_action_set_id = ? AND user_viewable IS NULL AND is_human_made = ?", setID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, NewServerError("failed to query human comments", err)
	}
	return comments, nil
}

// LastComment 取工作包最近一条可见评论，用于活动概览
func (s *CommentService) LastComment(setID int64) (*maintdb.Comment, error) {
	var comment maintdb.Comment
	err := s.db.Where("maintenance_action_set_id = ? AND user_viewable IS NULL", setID).
		Order("created_at DESC, id DESC").
		First(&comment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, NewServerError("failed to query last comment", err)
	}
	return &comment, nil
}

// EditHistory 取评论编辑历史，最旧在前
// 从链上任一成员出发：先沿后继找到最新版本，再沿 previous_comment_id 回溯
// visited 集合防御脏数据造成的环
func (s *CommentService) EditHistory(commentID int64) ([]maintdb.Comment, error) {
	var current maintdb.Comment
	if err := s.db.First(&current, commentID).Error; err != nil {
		return nil, HandleDBError(err, "comment", commentID)
	}

	visited := map[int64]bool{current.ID: true}

	// 先找到链头（最新版本）
	for {
		var next maintdb.Comment
		err := s.db.Where("previous_comment_id = ?", current.ID).First(&next).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, NewServerError("failed to walk comment edit chain", err)
		}
		if visited[next.ID] {
			s.logger.Warn("comment edit chain contains a cycle",
				zap.Int64("commentID", commentID),
				zap.Int64("cycleAt", next.ID))
			break
		}
		visited[next.ID] = true
		current = next
	}

	// 回溯收集全链
	history := []maintdb.Comment{current}
	seen := map[int64]bool{current.ID: true}
	for current.PreviousCommentID != nil {
		prevID := *current.PreviousCommentID
		if seen[prevID] {
			s.logger.Warn("comment edit chain contains a cycle",
				zap.Int64("commentID", commentID),
				zap.Int64("cycleAt", prevID))
			break
		}
		var prev maintdb.Comment
		if err := s.db.First(&prev, prevID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, NewServerError("failed to walk comment edit chain", err)
		}
		seen[prev.ID] = true
		history = append(history, prev)
		current = prev
	}

	// 反转为最旧在前
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
