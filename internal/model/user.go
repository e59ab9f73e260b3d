package model

import "time"

// User mirrors tb_user.
type User struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"column:email;uniqueIndex" json:"email"`
	Username   string    `gorm:"column:username;uniqueIndex" json:"username"`
	FullName   string    `gorm:"column:full_name" json:"fullname"`
	Password   string    `gorm:"column:password" json:"-"`
	ProfileImg string    `gorm:"column:profile_img" json:"profileImg"`
	TotalPosts int64     `gorm:"column:total_posts" json:"totalPosts"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"updateTime"`
}

func (User) TableName() string { return "tb_user" }
