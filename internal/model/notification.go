package model

import "time"

// Notification mirrors tb_notification. Type 为 comment 或 reply。
type Notification struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type            string    `gorm:"column:type" json:"type"`
	BlogID          int64     `gorm:"column:blog_id;index" json:"blogId"`
	CommentID       int64     `gorm:"column:comment_id;index" json:"commentId"`
	RepliedOnID     *int64    `gorm:"column:replied_on_id" json:"repliedOnId,omitempty"`
	NotificationFor int64     `gorm:"column:notification_for;index" json:"notificationFor"`
	UserID          int64     `gorm:"column:user_id" json:"userId"`
	Seen            bool      `gorm:"column:seen" json:"seen"`
	CreateTime      time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
}

func (Notification) TableName() string { return "tb_notification" }
