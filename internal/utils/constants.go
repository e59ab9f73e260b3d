package utils

const (
	// LOGIN_USER_KEY redis 中保存登录用户信息的 key 前缀
	LOGIN_USER_KEY = "login:token:"
	// LOGIN_USER_TTL 登录态有效期（秒）
	LOGIN_USER_TTL = 36000

	// CACHE_LATEST_BLOGS_KEY 最新博客首页缓存 key
	CACHE_LATEST_BLOGS_KEY = "cache:blog:latest"
	// CACHE_LATEST_BLOGS_TTL 缓存有效期（分钟）
	CACHE_LATEST_BLOGS_TTL = 10

	// COMMENT_PAGE_SIZE 评论与回复分页固定为每页 5 条
	COMMENT_PAGE_SIZE = 5
	// MAX_PAGE_SIZE 博客列表分页大小
	MAX_PAGE_SIZE = 10

	// IMAGE_UPLOAD_DIR 博客配图默认存储目录
	IMAGE_UPLOAD_DIR = "uploads"
)
