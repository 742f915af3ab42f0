package maintdb

// 评论可见性取值，存储在 user_viewable 字段
// 空值表示评论可见
const (
	CommentHiddenEdit    = "edit"    // 已被新版本替代
	CommentHiddenDeleted = "deleted" // 已软删除
)

// Comment 评论模型
// 评论只追加不改写：编辑生成新行并通过 previous_comment_id 链接旧行
type Comment struct {
	BaseModel
	MaintenanceActionSetID int64   `gorm:"column:maintenance_action_set_id;type:bigint;index"` // 所属工作包ID
	Content                string  `gorm:"column:content;type:text"`                           // 评论内容
	CreatedByID            int64   `gorm:"column:created_by_id;type:bigint"`                   // 作者ID
	IsHumanMade            bool    `gorm:"column:is_human_made;type:tinyint(1);default:0"`     // 是否人工评论
	RepliedToCommentID     *int64  `gorm:"column:replied_to_comment_id;type:bigint"`           // 回复的评论ID
	PreviousCommentID      *int64  `gorm:"column:previous_comment_id;type:bigint"`             // 被本条替代的旧评论ID
	UserViewable           *string `gorm:"column:user_viewable;type:varchar(20)"`              // 可见性标记，空表示可见
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// IsVisible 判断评论是否对用户可见
func (c *Comment) IsVisible() bool {
	return c.UserViewable == nil
}

// IsDeleted 判断评论是否已被软删除
func (c *Comment) IsDeleted() bool {
	return c.UserViewable != nil && *c.UserViewable == CommentHiddenDeleted
}

// CommentAttachment 评论附件关联模型
// 只维护关联关系，附件二进制内容由外部系统保存
type CommentAttachment struct {
	BaseModel
	CommentID    int64 `gorm:"column:comment_id;type:bigint;index"`        // 所属评论ID
	AttachmentID int64 `gorm:"column:attachment_id;type:bigint"`           // 附件ID
	DisplayOrder int   `gorm:"column:display_order;type:int;default:1"`    // 展示顺序
}

// TableName 指定表名
func (CommentAttachment) TableName() string {
	return "comment_attachments"
}
