package model

import "time"

// Comment mirrors tb_comment. ChildIDs 冗余保存直接回复的ID（插入顺序即时间顺序），
// 与 parent_id 反向关联保持一致。
type Comment struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BlogID       int64     `gorm:"column:blog_id;index" json:"blogId"`
	BlogAuthorID int64     `gorm:"column:blog_author_id" json:"blogAuthorId"`
	AuthorID     int64     `gorm:"column:author_id" json:"authorId"`
	Body         string    `gorm:"column:body" json:"comment"`
	ParentID     *int64    `gorm:"column:parent_id;index" json:"parentId,omitempty"`
	IsReply      bool      `gorm:"column:is_reply" json:"isReply"`
	ChildIDs     []int64   `gorm:"column:child_ids;serializer:json" json:"children"`
	CreateTime   time.Time `gorm:"column:create_time;autoCreateTime" json:"commentedAt"`
}

func (Comment) TableName() string { return "tb_comment" }
