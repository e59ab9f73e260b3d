package model

import "time"

// Blog mirrors tb_blog. TotalComments/TotalParentComments 是冗余计数器，
// 随评论的增删做增量更新，不做全表扫描重算。
type Blog struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BlogID              string    `gorm:"column:blog_id;uniqueIndex" json:"blogId"`
	AuthorID            int64     `gorm:"column:author_id;index" json:"authorId"`
	Title               string    `gorm:"column:title" json:"title"`
	Description         string    `gorm:"column:des" json:"des"`
	Banner              string    `gorm:"column:banner" json:"banner"`
	Content             string    `gorm:"column:content" json:"content"`
	Tags                []string  `gorm:"column:tags;serializer:json" json:"tags"`
	Draft               bool      `gorm:"column:draft" json:"draft"`
	TotalComments       int64     `gorm:"column:total_comments" json:"totalComments"`
	TotalParentComments int64     `gorm:"column:total_parent_comments" json:"totalParentComments"`
	PublishedAt         time.Time `gorm:"column:published_at;autoCreateTime" json:"publishedAt"`
	UpdateTime          time.Time `gorm:"column:update_time;autoUpdateTime" json:"updateTime"`
	AuthorName          string    `gorm:"-" json:"authorName,omitempty"`
	AuthorImg           string    `gorm:"-" json:"authorImg,omitempty"`
}

func (Blog) TableName() string { return "tb_blog" }
