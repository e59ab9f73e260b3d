package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/mapper"
	"inkwell-backend/internal/model"
	"inkwell-backend/internal/observability"
	"inkwell-backend/internal/utils"
)

var (
	ErrEmptyComment    = errors.New("评论内容不能为空")
	ErrBlogNotFound    = errors.New("博客不存在")
	ErrCommentNotFound = errors.New("评论不存在")
	ErrParentNotFound  = errors.New("被回复的评论不存在")
	ErrNotAuthorized   = errors.New("无权限删除该评论")
	ErrParentOtherBlog = errors.New("被回复的评论不属于该博客")
)

// CommentService 处理评论的发表、分页读取与级联删除，
// 同时维护博客上的冗余计数器 total_comments / total_parent_comments。
type CommentService struct {
	db       *gorm.DB
	notifier *NotificationService
	metrics  *observability.CommentMetrics
	log      *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(db *gorm.DB, notifier *NotificationService, metrics *observability.CommentMetrics, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{db: db, notifier: notifier, metrics: metrics, log: log}
}

// Create 发表评论或回复。
// 同一事务内完成：存评论、把新 id 追加到父评论 child_ids（父行加锁，
// 并发回复互不覆盖）、按是否顶级评论增量更新博客计数器。
// 通知在事务提交后异步发出，失败不回滚评论。
func (s *CommentService) Create(ctx context.Context, form dto.AddCommentForm, author *dto.UserDTO) (*dto.CommentDTO, error) {
	start := time.Now()
	if form.Body == "" {
		s.metrics.ObserveCommentOp("create", "empty_body", time.Since(start))
		return nil, ErrEmptyComment
	}

	comment := &model.Comment{
		BlogID:       form.BlogID,
		BlogAuthorID: form.BlogAuthorID,
		AuthorID:     author.ID,
		Body:         form.Body,
		ParentID:     form.ReplyingTo,
		IsReply:      form.ReplyingTo != nil,
		ChildIDs:     []int64{},
	}

	var repliedAuthorID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blog model.Blog
		if err := tx.First(&blog, form.BlogID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBlogNotFound
			}
			return err
		}
		comment.BlogAuthorID = blog.AuthorID

		if comment.ParentID != nil {
			// 对父评论行加锁后再追加 child_ids：两个并发回复会在这里串行化，
			// 两条 id 都会落进数组，不会出现读-改-写互相覆盖
			var parent model.Comment
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&parent, *comment.ParentID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			if parent.BlogID != form.BlogID {
				return ErrParentOtherBlog
			}
			repliedAuthorID = parent.AuthorID

			if err := tx.Create(comment).Error; err != nil {
				return err
			}
			parent.ChildIDs = append(parent.ChildIDs, comment.ID)
			if err := tx.Model(&parent).Select("child_ids").Updates(&parent).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"total_comments": gorm.Expr("total_comments + 1"),
		}
		if !comment.IsReply {
			updates["total_parent_comments"] = gorm.Expr("total_parent_comments + 1")
		}
		return tx.Model(&model.Blog{}).Where("id = ?", form.BlogID).UpdateColumns(updates).Error
	})
	if err != nil {
		s.metrics.ObserveCommentOp("create", opReason(err), time.Since(start))
		return nil, err
	}

	// 回复通知发给被回复评论的作者，顶级评论通知博客作者
	event := notificationEvent{
		Type:            "comment",
		BlogID:          comment.BlogID,
		CommentID:       comment.ID,
		NotificationFor: comment.BlogAuthorID,
		UserID:          comment.AuthorID,
	}
	if comment.IsReply {
		event.Type = "reply"
		event.RepliedOnID = comment.ParentID
		event.NotificationFor = repliedAuthorID
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, event)
	}

	level := 0
	if comment.IsReply {
		level = form.ParentLevel + 1
	}
	s.metrics.ObserveCommentOp("create", "ok", time.Since(start))
	out := toCommentDTO(comment, level)
	out.CommentedBy = author
	return &out, nil
}

// ListTopLevel 返回某博客的一页顶级评论（每页 5 条，commentedAt 倒序），
// 并补齐评论者的公开资料。
func (s *CommentService) ListTopLevel(ctx context.Context, blogID int64, skip int) ([]dto.CommentDTO, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Where("blog_id = ? AND parent_id IS NULL", blogID).
		Order("create_time DESC, id DESC").
		Offset(utils.ClampSkip(skip)).
		Limit(utils.COMMENT_PAGE_SIZE).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return s.withProfiles(ctx, comments, 0)
}

// ListReplies 返回某条评论的一页直接回复，层级由调用方按父级层级+1 给出。
func (s *CommentService) ListReplies(ctx context.Context, parentID int64, skip, level int) ([]dto.CommentDTO, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("create_time DESC, id DESC").
		Offset(utils.ClampSkip(skip)).
		Limit(utils.COMMENT_PAGE_SIZE).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return s.withProfiles(ctx, comments, level)
}

// Delete 删除评论及其整个回复子树。
// 级联用迭代的工作队列按层收集后一次性删除，深层回复不会打爆调用栈。
// 只有评论作者或博客作者可以删除。
func (s *CommentService) Delete(ctx context.Context, id, requesterID int64) error {
	start := time.Now()
	var removed []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment model.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if requesterID != comment.AuthorID && requesterID != comment.BlogAuthorID {
			return ErrNotAuthorized
		}

		removed = []int64{comment.ID}
		frontier := []int64{comment.ID}
		for len(frontier) > 0 {
			var childIDs []int64
			if err := tx.Model(&model.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			if len(childIDs) == 0 {
				break
			}
			removed = append(removed, childIDs...)
			frontier = childIDs
		}

		if err := tx.Where("id IN ?", removed).Delete(&model.Comment{}).Error; err != nil {
			return err
		}

		// 从父评论 child_ids 中摘除被删的 id；
		// 父评论可能已被并发删除，此时跳过摘除，级联继续
		if comment.ParentID != nil {
			var parent model.Comment
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&parent, *comment.ParentID).Error
			switch {
			case err == nil:
				pruned := make([]int64, 0, len(parent.ChildIDs))
				for _, cid := range parent.ChildIDs {
					if cid != comment.ID {
						pruned = append(pruned, cid)
					}
				}
				parent.ChildIDs = pruned
				if err := tx.Model(&parent).Select("child_ids").Updates(&parent).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// no-op
			default:
				return err
			}
		}

		// 计数器下限钳制为 0，正常流程不会触发
		n := int64(len(removed))
		updates := map[string]interface{}{
			"total_comments": gorm.Expr("CASE WHEN total_comments >= ? THEN total_comments - ? ELSE 0 END", n, n),
		}
		if comment.ParentID == nil {
			updates["total_parent_comments"] = gorm.Expr("CASE WHEN total_parent_comments >= 1 THEN total_parent_comments - 1 ELSE 0 END")
		}
		return tx.Model(&model.Blog{}).Where("id = ?", comment.BlogID).UpdateColumns(updates).Error
	})
	if err != nil {
		s.metrics.ObserveCommentOp("delete", opReason(err), time.Since(start))
		return err
	}

	// 通知清理是尽力而为：幂等，失败只记日志，不影响已完成的删除
	if s.notifier != nil {
		if err := s.notifier.DeleteByCommentIDs(ctx, removed); err != nil {
			s.log.Warn("notification cleanup failed",
				zap.Int64("commentId", id),
				zap.Int("removed", len(removed)),
				zap.Error(err),
			)
		}
	}
	s.metrics.ObserveCommentOp("delete", "ok", time.Since(start))
	s.metrics.ObserveCascade(len(removed))
	return nil
}

// withProfiles 批量查出评论者资料并组装 DTO
func (s *CommentService) withProfiles(ctx context.Context, comments []model.Comment, level int) ([]dto.CommentDTO, error) {
	out := make([]dto.CommentDTO, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}

	idSet := make(map[int64]struct{}, len(comments))
	authorIDs := make([]int64, 0, len(comments))
	for _, c := range comments {
		if _, ok := idSet[c.AuthorID]; !ok {
			idSet[c.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	profiles := make(map[int64]*dto.UserDTO, len(users))
	for i := range users {
		profiles[users[i].ID] = mapper.ToUserDTO(&users[i])
	}

	for i := range comments {
		d := toCommentDTO(&comments[i], level)
		d.CommentedBy = profiles[comments[i].AuthorID]
		out = append(out, d)
	}
	return out, nil
}

func toCommentDTO(c *model.Comment, level int) dto.CommentDTO {
	childIDs := c.ChildIDs
	if childIDs == nil {
		childIDs = []int64{}
	}
	return dto.CommentDTO{
		ID:            c.ID,
		Body:          c.Body,
		CommentedAt:   c.CreateTime,
		AuthorID:      c.AuthorID,
		ParentID:      c.ParentID,
		ChildIDs:      childIDs,
		ChildrenLevel: level,
	}
}

// opReason 把业务错误折叠成指标标签
func opReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyComment):
		return "empty_body"
	case errors.Is(err, ErrBlogNotFound), errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrParentNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAuthorized):
		return "forbidden"
	default:
		return "error"
	}
}
