package dto

import "time"

// UserDTO 登录用户的公开信息
type UserDTO struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullname"`
	ProfileImg string `json:"profileImg"`
}

// SignupForm 注册表单
type SignupForm struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninForm 登录表单
type SigninForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult 登录/注册成功后下发的会话信息
type LoginResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	FullName    string `json:"fullname"`
	ProfileImg  string `json:"profile_img"`
}

// AddCommentForm 发表评论/回复
type AddCommentForm struct {
	BlogID       int64  `json:"blogId"`
	BlogAuthorID int64  `json:"blogAuthorId"`
	Body         string `json:"comment"`
	ReplyingTo   *int64 `json:"replyingTo"`
	// ParentLevel 由客户端按上下文提供，回复的层级 = 父级层级 + 1
	ParentLevel int `json:"parentLevel"`
}

// CommentPageForm 顶级评论分页
type CommentPageForm struct {
	BlogID int64 `json:"blogId"`
	Skip   int   `json:"skip"`
}

// ReplyPageForm 回复分页
type ReplyPageForm struct {
	CommentID int64 `json:"commentId"`
	Skip      int   `json:"skip"`
	// ParentLevel 含义同 AddCommentForm
	ParentLevel int `json:"parentLevel"`
}

// DeleteCommentForm 删除评论
type DeleteCommentForm struct {
	ID int64 `json:"id"`
}

// CommentDTO 返回给客户端的评论节点，ChildrenLevel 为扁平树中的嵌套层级
type CommentDTO struct {
	ID            int64     `json:"id"`
	Body          string    `json:"comment"`
	CommentedAt   time.Time `json:"commentedAt"`
	AuthorID      int64     `json:"authorId"`
	ParentID      *int64    `json:"parentId,omitempty"`
	ChildIDs      []int64   `json:"children"`
	ChildrenLevel int       `json:"childrenLevel"`
	CommentedBy   *UserDTO  `json:"commentedBy,omitempty"`
}

// ReplyPage 回复分页响应
type ReplyPage struct {
	Replies []CommentDTO `json:"replies"`
}

// CreateBlogForm 发布博客
type CreateBlogForm struct {
	Title       string   `json:"title"`
	Description string   `json:"des"`
	Banner      string   `json:"banner"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Draft       bool     `json:"draft"`
}
