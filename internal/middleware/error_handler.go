package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell-backend/internal/dto/result"
)

// ErrorHandler 将 panic 转换为统一的 JSON 响应
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", zap.Any("error", rec))
				ctx.JSON(http.StatusInternalServerError, result.Fail("服务器异常"))
				ctx.Abort()
			}
		}()
		ctx.Next()
	}
}
