package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/dto/result"
	"inkwell-backend/internal/utils"
)

const loginUserContextKey = "loginUser"

// LoginMiddleware 校验 Bearer token 登录态。token 为服务端签发的随机串，
// 对应的用户信息保存在 redis hash 中，命中后顺带刷新有效期。
func LoginMiddleware(rdb *redis.Client) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		needAuth := !isAnonymousPath(ctx.Request.URL.Path)
		token := ExtractToken(ctx)
		if token == "" {
			if needAuth {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.Fail("未登录"))
				return
			}
			ctx.Next()
			return
		}
		key := utils.LOGIN_USER_KEY + token
		data, err := rdb.HGetAll(ctx.Request.Context(), key).Result()
		if err != nil {
			if needAuth {
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, result.Fail("登录验证失败"))
			} else {
				ctx.Next()
			}
			return
		}
		if len(data) == 0 {
			if needAuth {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.Fail("登录状态已失效"))
			} else {
				ctx.Next()
			}
			return
		}
		id, _ := strconv.ParseInt(data["id"], 10, 64)
		user := &dto.UserDTO{
			ID:         id,
			Username:   data["username"],
			FullName:   data["fullname"],
			ProfileImg: data["profileImg"],
		}
		ctx.Set(loginUserContextKey, user)
		// 刷新token有效期
		rdb.Expire(ctx, key, time.Duration(utils.LOGIN_USER_TTL)*time.Second)
		ctx.Next()
	}
}

// GetLoginUser 从 Gin Context 中读取登录用户信息
func GetLoginUser(ctx *gin.Context) (*dto.UserDTO, bool) {
	v, exists := ctx.Get(loginUserContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*dto.UserDTO)
	return user, ok
}

// isAnonymousPath 这些路径放行 不需要登录即可访问
func isAnonymousPath(path string) bool {
	switch path {
	case "/user/signup", "/user/signin", "/blog/latest", "/comment/of-blog", "/comment/replies", "/healthz", "/readyz", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/blog/detail/")
}

// ExtractToken 提取 Authorization: Bearer <token>
func ExtractToken(ctx *gin.Context) string {
	auth := ctx.GetHeader("Authorization")
	if auth != "" {
		if token, found := strings.CutPrefix(auth, "Bearer "); found {
			return token
		}
		return auth
	}
	return ctx.Query("token")
}
