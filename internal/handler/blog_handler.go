package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/dto/result"
	"inkwell-backend/internal/middleware"
	"inkwell-backend/internal/service"
	"inkwell-backend/internal/utils"
)

// BlogHandler 博客发布与查询接口
type BlogHandler struct {
	blogService *service.BlogService
}

func NewBlogHandler(blogSvc *service.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogSvc}
}

func (h *BlogHandler) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/blog")
	group.POST("", h.createBlog)
	group.GET("/latest", h.queryLatest)
	group.GET("/detail/:blogId", h.queryDetail)
}

// createBlog 发布博客，需要登录
func (h *BlogHandler) createBlog(ctx *gin.Context) {
	var form dto.CreateBlogForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	blog, err := h.blogService.Create(ctx.Request.Context(), form, user.ID)
	if err != nil {
		ctx.JSON(blogErrStatus(err), result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(gin.H{"id": blog.BlogID}))
}

// queryLatest 按发布时间分页查询最新博客
func (h *BlogHandler) queryLatest(ctx *gin.Context) {
	page := utils.ParsePage(ctx.Query("current"), 1)
	blogs, err := h.blogService.QueryLatest(ctx.Request.Context(), page)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(blogs))
}

// queryDetail 按 blogId 查询博客详情
func (h *BlogHandler) queryDetail(ctx *gin.Context) {
	blogID := ctx.Param("blogId")
	blog, err := h.blogService.FindByBlogID(ctx.Request.Context(), blogID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	if blog == nil {
		ctx.JSON(http.StatusNotFound, result.Fail("博客不存在"))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(blog))
}

func blogErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrBlogTitleRequired),
		errors.Is(err, service.ErrBlogDesTooLong),
		errors.Is(err, service.ErrBlogBannerRequired),
		errors.Is(err, service.ErrBlogContentRequired),
		errors.Is(err, service.ErrBlogTagsInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
