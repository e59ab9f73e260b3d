package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/model"
	"inkwell-backend/internal/utils"
)

var (
	ErrBlogTitleRequired   = errors.New("标题不能为空")
	ErrBlogDesTooLong      = errors.New("简介不能为空且不超过 200 字")
	ErrBlogBannerRequired  = errors.New("发布博客需要配图")
	ErrBlogContentRequired = errors.New("正文不能为空")
	ErrBlogTagsInvalid     = errors.New("标签数量需在 1-10 个之间")
)

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// BlogService 处理博客的发布与列表查询
type BlogService struct {
	db  *gorm.DB
	rdb *redis.Client
	log *zap.Logger
}

// NewBlogService 创建 BlogService 实例
func NewBlogService(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *BlogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BlogService{db: db, rdb: rdb, log: log}
}

// Create 发布或存草稿。发布成功后累加作者的 total_posts 并失效首页缓存。
func (s *BlogService) Create(ctx context.Context, form dto.CreateBlogForm, authorID int64) (*model.Blog, error) {
	if strings.TrimSpace(form.Title) == "" {
		return nil, ErrBlogTitleRequired
	}
	if !form.Draft {
		if form.Description == "" || len(form.Description) > 200 {
			return nil, ErrBlogDesTooLong
		}
		if form.Banner == "" {
			return nil, ErrBlogBannerRequired
		}
		if form.Content == "" {
			return nil, ErrBlogContentRequired
		}
		if len(form.Tags) == 0 || len(form.Tags) > 10 {
			return nil, ErrBlogTagsInvalid
		}
	}

	tags := make([]string, len(form.Tags))
	for i, tag := range form.Tags {
		tags[i] = strings.ToLower(tag)
	}

	blog := &model.Blog{
		BlogID:      makeBlogID(form.Title),
		AuthorID:    authorID,
		Title:       form.Title,
		Description: form.Description,
		Banner:      form.Banner,
		Content:     form.Content,
		Tags:        tags,
		Draft:       form.Draft,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(blog).Error; err != nil {
			return err
		}
		if form.Draft {
			return nil
		}
		return tx.Model(&model.User{}).
			Where("id = ?", authorID).
			UpdateColumn("total_posts", gorm.Expr("total_posts + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidateLatestCache(ctx)
	return blog, nil
}

// QueryLatest 返回最新发布的博客页，首页做 cache-aside
func (s *BlogService) QueryLatest(ctx context.Context, page int) ([]model.Blog, error) {
	if page == 1 && s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, utils.CACHE_LATEST_BLOGS_KEY).Result(); err == nil {
			var blogs []model.Blog
			if err := json.Unmarshal([]byte(cached), &blogs); err == nil {
				return blogs, nil
			}
		}
	}

	var blogs []model.Blog
	offset := (page - 1) * utils.MAX_PAGE_SIZE
	if offset < 0 {
		offset = 0
	}
	err := s.db.WithContext(ctx).
		Where("draft = ?", false).
		Order("published_at DESC, id DESC").
		Offset(offset).
		Limit(utils.MAX_PAGE_SIZE).
		Find(&blogs).Error
	if err != nil {
		return nil, err
	}

	if page == 1 && s.rdb != nil {
		if raw, err := json.Marshal(blogs); err == nil {
			if err := s.rdb.Set(ctx, utils.CACHE_LATEST_BLOGS_KEY, raw,
				time.Duration(utils.CACHE_LATEST_BLOGS_TTL)*time.Minute).Err(); err != nil {
				s.log.Warn("latest blogs cache write failed", zap.Error(err))
			}
		}
	}
	return blogs, nil
}

// FindByBlogID 按公开 blog_id 查博客，未找到返回 nil
func (s *BlogService) FindByBlogID(ctx context.Context, blogID string) (*model.Blog, error) {
	var blog model.Blog
	err := s.db.WithContext(ctx).Where("blog_id = ?", blogID).First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blog, nil
}

// invalidateLatestCache 发布后删除首页缓存，读路径重建
func (s *BlogService) invalidateLatestCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, utils.CACHE_LATEST_BLOGS_KEY).Err(); err != nil {
		s.log.Warn("latest blogs cache invalidate failed", zap.Error(err))
	}
}

// makeBlogID 由标题生成 slug 并附加随机后缀保证唯一
func makeBlogID(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(title, "-"), "-")
	if slug == "" {
		slug = "blog"
	}
	return strings.ToLower(slug) + "-" + utils.RandomString(10)
}
