package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"inkwell-backend/internal/handler"
	"inkwell-backend/internal/middleware"
	"inkwell-backend/internal/service"
)

// RegisterRoutes 挂载登录中间件并注册全部业务路由
func RegisterRoutes(engine *gin.Engine, services *service.Registry, uploadDir string, rdb *redis.Client) {
	engine.Use(middleware.LoginMiddleware(rdb))

	handler.NewUserHandler(services.User).RegisterRoutes(engine)
	handler.NewBlogHandler(services.Blog).RegisterRoutes(engine)
	handler.NewCommentHandler(services.Comment).RegisterRoutes(engine)
	handler.NewNotificationHandler(services.Notification).RegisterRoutes(engine)
	handler.NewUploadHandler(uploadDir).RegisterRoutes(engine)
}
