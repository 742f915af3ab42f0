package migrations

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(upAddCommentEditChain, downAddCommentEditChain)
}

// 评论表增加编辑链与可见性标记，历史数据默认可见且视为人工评论
func upAddCommentEditChain(tx *sql.Tx) error {
	// 1. 增加 previous_comment_id 列，指向被本条替换的旧版本
	_, err := tx.Exec(`
		ALTER TABLE comments
		ADD COLUMN previous_comment_id BIGINT NULL
		COMMENT '编辑链中被替换的旧版本ID' AFTER replied_to_comment_id;
	`)
	if err != nil {
		return err
	}

	// 2. 增加 user_viewable 列，NULL=可见，edit/deleted=已隐藏
	_, err = tx.Exec(`
		ALTER TABLE comments
		ADD COLUMN user_viewable VARCHAR(20) NULL
		COMMENT '可见性标记：NULL 可见，edit 被编辑替换，deleted 已删除' AFTER previous_comment_id;
	`)
	if err != nil {
		return err
	}

	// 3. 增加 is_human_made 列，存量评论均为人工录入
	_, err = tx.Exec(`
		ALTER TABLE comments
		ADD COLUMN is_human_made TINYINT(1) NOT NULL DEFAULT 1
		COMMENT '是否人工评论' AFTER created_by_id;
	`)
	if err != nil {
		return err
	}

	// 4. 编辑链查询走 previous_comment_id 两个方向，建索引
	_, err = tx.Exec(`
		CREATE INDEX idx_comments_previous_comment_id ON comments (previous_comment_id);
	`)
	return err
}

// 回滚更改
func downAddCommentEditChain(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP INDEX idx_comments_previous_comment_id ON comments;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`ALTER TABLE comments DROP COLUMN is_human_made;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`ALTER TABLE comments DROP COLUMN user_viewable;`); err != nil {
		return err
	}
	_, err := tx.Exec(`ALTER TABLE comments DROP COLUMN previous_comment_id;`)
	return err
}
