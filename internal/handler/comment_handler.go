package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/dto/result"
	"inkwell-backend/internal/middleware"
	"inkwell-backend/internal/service"
)

// CommentHandler 评论相关接口
type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentSvc *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentSvc}
}

func (h *CommentHandler) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/comment")
	group.POST("", h.addComment)
	group.POST("/of-blog", h.listOfBlog)
	group.POST("/replies", h.listReplies)
	group.POST("/delete", h.deleteComment)
}

// addComment 发表评论或回复，需要登录
func (h *CommentHandler) addComment(ctx *gin.Context) {
	var form dto.AddCommentForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	comment, err := h.commentService.Create(ctx.Request.Context(), form, user)
	if err != nil {
		ctx.JSON(commentErrStatus(err), result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(comment))
}

// listOfBlog 顶级评论分页，匿名可读
func (h *CommentHandler) listOfBlog(ctx *gin.Context) {
	var form dto.CommentPageForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	comments, err := h.commentService.ListTopLevel(ctx.Request.Context(), form.BlogID, form.Skip)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(comments))
}

// listReplies 某条评论的回复分页，匿名可读
func (h *CommentHandler) listReplies(ctx *gin.Context) {
	var form dto.ReplyPageForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	level := form.ParentLevel + 1
	replies, err := h.commentService.ListReplies(ctx.Request.Context(), form.CommentID, form.Skip, level)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(dto.ReplyPage{Replies: replies}))
}

// deleteComment 删除评论及其回复子树，需要登录
func (h *CommentHandler) deleteComment(ctx *gin.Context) {
	var form dto.DeleteCommentForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	if err := h.commentService.Delete(ctx.Request.Context(), form.ID, user.ID); err != nil {
		ctx.JSON(commentErrStatus(err), result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}

// commentErrStatus 把服务层错误映射为 HTTP 状态码
func commentErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyComment), errors.Is(err, service.ErrParentOtherBlog):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrBlogNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
