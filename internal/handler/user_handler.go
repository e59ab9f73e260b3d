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

// UserHandler 用户注册登录相关接口
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userService: userSvc}
}

func (h *UserHandler) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/user")
	group.POST("/signup", h.signup)
	group.POST("/signin", h.signin)
	group.POST("/logout", h.logout)
	group.GET("/me", h.me)
}

func (h *UserHandler) signup(ctx *gin.Context) {
	var form dto.SignupForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	login, err := h.userService.Signup(ctx.Request.Context(), form)
	if err != nil {
		ctx.JSON(userErrStatus(err), result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(login))
}

func (h *UserHandler) signin(ctx *gin.Context) {
	var form dto.SigninForm
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, result.Fail("invalid payload"))
		return
	}
	login, err := h.userService.Signin(ctx.Request.Context(), form)
	if err != nil {
		ctx.JSON(userErrStatus(err), result.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(login))
}

func (h *UserHandler) logout(ctx *gin.Context) {
	token := middleware.ExtractToken(ctx)
	if token != "" {
		if err := h.userService.Logout(ctx.Request.Context(), token); err != nil {
			ctx.JSON(http.StatusInternalServerError, result.Fail(err.Error()))
			return
		}
	}
	ctx.JSON(http.StatusOK, result.Ok())
}

// me 返回当前登录用户信息
func (h *UserHandler) me(ctx *gin.Context) {
	user, ok := middleware.GetLoginUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, result.Fail("未登录"))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(user))
}

func userErrStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrFullNameTooShort),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmailExists):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmailNotFound),
		errors.Is(err, service.ErrWrongPassword):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
