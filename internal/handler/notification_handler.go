package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell-backend/internal/dto/result"
	"inkwell-backend/internal/middleware"
	"inkwell-backend/internal/service"
	"inkwell-backend/internal/utils"
)

// NotificationHandler 站内通知接口
type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationSvc}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/notification")
	group.GET("/list", h.list)
	group.POST("/seen", h.markSeen)
}

// list 分页查询当前用户的通知
func (h *NotificationHandler) list(ctx *gin.Context) {
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	page := utils.ParsePage(ctx.Query("current"), 1)
	notifications, err := h.notificationService.ListForUser(ctx.Request.Context(), user.ID, page)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(notifications))
}

// markSeen 标记单条通知已读
func (h *NotificationHandler) markSeen(ctx *gin.Context) {
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	var form struct {
		ID int64 `json:"id"`
	}
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	if err := h.notificationService.MarkSeen(ctx.Request.Context(), user.ID, form.ID); err != nil {
		ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}
