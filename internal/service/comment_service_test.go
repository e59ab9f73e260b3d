package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/model"
)

// newTestDB 为每个测试开一个独立的内存 sqlite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}, &model.Blog{}, &model.Comment{}, &model.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestCommentService(t *testing.T, db *gorm.DB) *CommentService {
	t.Helper()
	notifier := NewNotificationService(db, nil, nil, nil, nil, nil, nil)
	return NewCommentService(db, notifier, nil, nil)
}

func seedUser(t *testing.T, db *gorm.DB, fullName string) *model.User {
	t.Helper()
	user := &model.User{
		Email:    fmt.Sprintf("%s@example.com", fullName),
		Username: fullName,
		FullName: fullName,
		Password: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedBlog(t *testing.T, db *gorm.DB, author *model.User) *model.Blog {
	t.Helper()
	blog := &model.Blog{
		BlogID:   fmt.Sprintf("test-blog-%d", author.ID),
		AuthorID: author.ID,
		Title:    "测试博客",
		Banner:   "/banner.png",
		Content:  "正文",
	}
	if err := db.Create(blog).Error; err != nil {
		t.Fatalf("seed blog: %v", err)
	}
	return blog
}

func asDTO(u *model.User) *dto.UserDTO {
	return &dto.UserDTO{ID: u.ID, Username: u.Username, FullName: u.FullName}
}

// setCommentTime 固定 create_time，让分页排序可预期
func setCommentTime(t *testing.T, db *gorm.DB, id int64, ts time.Time) {
	t.Helper()
	if err := db.Model(&model.Comment{}).Where("id = ?", id).Update("create_time", ts).Error; err != nil {
		t.Fatalf("set comment time: %v", err)
	}
}

func blogCounters(t *testing.T, db *gorm.DB, blogID int64) (int64, int64) {
	t.Helper()
	var blog model.Blog
	if err := db.First(&blog, blogID).Error; err != nil {
		t.Fatalf("reload blog: %v", err)
	}
	return blog.TotalComments, blog.TotalParentComments
}

func TestCreateTopLevelComment(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	created, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "不错的文章"}, asDTO(commenter))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ChildrenLevel != 0 {
		t.Fatalf("childrenLevel = %d, want 0", created.ChildrenLevel)
	}
	if created.CommentedBy == nil || created.CommentedBy.ID != commenter.ID {
		t.Fatalf("commentedBy not set: %+v", created.CommentedBy)
	}
	if len(created.ChildIDs) != 0 {
		t.Fatalf("new comment must start with empty children: %v", created.ChildIDs)
	}

	total, parents := blogCounters(t, db, blog.ID)
	if total != 1 || parents != 1 {
		t.Fatalf("counters = (%d, %d), want (1, 1)", total, parents)
	}

	// 顶级评论通知博客作者，同步落库
	var notifications []model.Notification
	if err := db.Where("comment_id = ?", created.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	n := notifications[0]
	if n.Type != "comment" || n.NotificationFor != blogAuthor.ID || n.UserID != commenter.ID {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestCreateReplyAppendsToParentChildren(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	parent, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "父评论"}, asDTO(alice))
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	reply, err := svc.Create(ctx, dto.AddCommentForm{
		BlogID:      blog.ID,
		Body:        "回复",
		ReplyingTo:  &parent.ID,
		ParentLevel: 0,
	}, asDTO(bob))
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if reply.ChildrenLevel != 1 {
		t.Fatalf("reply level = %d, want 1", reply.ChildrenLevel)
	}

	var stored model.Comment
	if err := db.First(&stored, parent.ID).Error; err != nil {
		t.Fatalf("reload parent: %v", err)
	}
	if len(stored.ChildIDs) != 1 || stored.ChildIDs[0] != reply.ID {
		t.Fatalf("parent childIds = %v, want [%d]", stored.ChildIDs, reply.ID)
	}

	// 回复只涨总数，不涨顶级计数
	total, parents := blogCounters(t, db, blog.ID)
	if total != 2 || parents != 1 {
		t.Fatalf("counters = (%d, %d), want (2, 1)", total, parents)
	}

	// 回复通知发给被回复评论的作者
	var n model.Notification
	if err := db.Where("comment_id = ?", reply.ID).First(&n).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if n.Type != "reply" || n.NotificationFor != alice.ID || n.RepliedOnID == nil || *n.RepliedOnID != parent.ID {
		t.Fatalf("unexpected reply notification: %+v", n)
	}
}

func TestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")
	blog := seedBlog(t, db, author)
	otherBlog := seedBlog(t, db, other)

	ctx := context.Background()
	if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: ""}, asDTO(author)); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("empty body: got %v", err)
	}
	if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: 9999, Body: "x"}, asDTO(author)); !errors.Is(err, ErrBlogNotFound) {
		t.Fatalf("missing blog: got %v", err)
	}
	missing := int64(9999)
	if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "x", ReplyingTo: &missing}, asDTO(author)); !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("missing parent: got %v", err)
	}

	// 父评论属于另一篇博客时拒绝
	parent, err := svc.Create(ctx, dto.AddCommentForm{BlogID: otherBlog.ID, Body: "elsewhere"}, asDTO(other))
	if err != nil {
		t.Fatalf("create on other blog: %v", err)
	}
	if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "x", ReplyingTo: &parent.ID}, asDTO(author)); !errors.Is(err, ErrParentOtherBlog) {
		t.Fatalf("cross-blog parent: got %v", err)
	}

	// 失败的请求不能留下任何痕迹
	total, parents := blogCounters(t, db, blog.ID)
	if total != 0 || parents != 0 {
		t.Fatalf("counters after failures = (%d, %d), want (0, 0)", total, parents)
	}
}

func TestTopLevelPagination(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	author := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	blog := seedBlog(t, db, author)

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, 7)
	for i := 0; i < 7; i++ {
		c, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: fmt.Sprintf("评论 %d", i)}, asDTO(commenter))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		setCommentTime(t, db, c.ID, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, c.ID)
	}

	page1, err := svc.ListTopLevel(ctx, blog.ID, 0)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 5 {
		t.Fatalf("page 1 len = %d, want 5", len(page1))
	}
	// 最新的在前
	for i, c := range page1 {
		if want := ids[6-i]; c.ID != want {
			t.Fatalf("page 1 pos %d = id %d, want %d", i, c.ID, want)
		}
	}

	page2, err := svc.ListTopLevel(ctx, blog.ID, 5)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 len = %d, want 2", len(page2))
	}
	if page2[0].ID != ids[1] || page2[1].ID != ids[0] {
		t.Fatalf("page 2 = [%d %d], want [%d %d]", page2[0].ID, page2[1].ID, ids[1], ids[0])
	}

	for _, c := range page1 {
		if c.ChildrenLevel != 0 {
			t.Fatalf("top-level comment %d has level %d", c.ID, c.ChildrenLevel)
		}
		if c.CommentedBy == nil || c.CommentedBy.FullName != "commenter" {
			t.Fatalf("profile missing on comment %d", c.ID)
		}
	}
}

func TestListRepliesUsesCallerLevel(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	author := seedUser(t, db, "author")
	commenter := seedUser(t, db, "commenter")
	blog := seedBlog(t, db, author)

	ctx := context.Background()
	parent, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "父评论"}, asDTO(author))
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, dto.AddCommentForm{
			BlogID:     blog.ID,
			Body:       fmt.Sprintf("回复 %d", i),
			ReplyingTo: &parent.ID,
		}, asDTO(commenter)); err != nil {
			t.Fatalf("create reply %d: %v", i, err)
		}
	}

	replies, err := svc.ListReplies(ctx, parent.ID, 0, 1)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(replies) != 3 {
		t.Fatalf("replies = %d, want 3", len(replies))
	}
	for _, r := range replies {
		if r.ChildrenLevel != 1 {
			t.Fatalf("reply %d level = %d, want 1", r.ID, r.ChildrenLevel)
		}
		if r.ParentID == nil || *r.ParentID != parent.ID {
			t.Fatalf("reply %d parent = %v", r.ID, r.ParentID)
		}
	}
}

// 删除中间层评论：整棵子树消失，父评论 child_ids 摘除，计数器按实际删除数回落
func TestDeleteCascadesSubtree(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	root, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "root"}, asDTO(alice))
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	mid, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "mid", ReplyingTo: &root.ID, ParentLevel: 0}, asDTO(bob))
	if err != nil {
		t.Fatalf("create mid: %v", err)
	}
	leaf1, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "leaf1", ReplyingTo: &mid.ID, ParentLevel: 1}, asDTO(alice))
	if err != nil {
		t.Fatalf("create leaf1: %v", err)
	}
	leaf2, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "leaf2", ReplyingTo: &mid.ID, ParentLevel: 1}, asDTO(alice))
	if err != nil {
		t.Fatalf("create leaf2: %v", err)
	}
	deep, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "deep", ReplyingTo: &leaf1.ID, ParentLevel: 2}, asDTO(bob))
	if err != nil {
		t.Fatalf("create deep: %v", err)
	}
	sibling, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "sibling"}, asDTO(alice))
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}

	// 子树里的交叉回复产生了真实的通知行
	var before int64
	if err := db.Model(&model.Notification{}).Count(&before).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if before == 0 {
		t.Fatalf("expected notifications before delete")
	}

	if err := svc.Delete(ctx, mid.ID, bob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var remaining []int64
	if err := db.Model(&model.Comment{}).Order("id").Pluck("id", &remaining).Error; err != nil {
		t.Fatalf("pluck: %v", err)
	}
	if len(remaining) != 2 || remaining[0] != root.ID || remaining[1] != sibling.ID {
		t.Fatalf("remaining = %v, want [%d %d]", remaining, root.ID, sibling.ID)
	}

	// root 的 child_ids 不再包含 mid
	var storedRoot model.Comment
	if err := db.First(&storedRoot, root.ID).Error; err != nil {
		t.Fatalf("reload root: %v", err)
	}
	if len(storedRoot.ChildIDs) != 0 {
		t.Fatalf("root childIds = %v, want empty", storedRoot.ChildIDs)
	}

	// mid 子树共 4 条，total 6-4=2；mid 不是顶级评论，parent 计数不变
	total, parents := blogCounters(t, db, blog.ID)
	if total != 2 || parents != 2 {
		t.Fatalf("counters = (%d, %d), want (2, 2)", total, parents)
	}

	// 通知随整棵子树清理，包括 replied_on 指向被删评论的
	var count int64
	if err := db.Model(&model.Notification{}).
		Where("comment_id IN ? OR replied_on_id IN ?",
			[]int64{mid.ID, leaf1.ID, leaf2.ID, deep.ID},
			[]int64{mid.ID, leaf1.ID, leaf2.ID, deep.ID}).
		Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 0 {
		t.Fatalf("stale notifications left: %d", count)
	}
}

func TestDeleteTopLevelAdjustsParentCounter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	alice := seedUser(t, db, "alice")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	root, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "root"}, asDTO(alice))
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "reply", ReplyingTo: &root.ID}, asDTO(alice)); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	if err := svc.Delete(ctx, root.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	total, parents := blogCounters(t, db, blog.ID)
	if total != 0 || parents != 0 {
		t.Fatalf("counters = (%d, %d), want (0, 0)", total, parents)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	alice := seedUser(t, db, "alice")
	mallory := seedUser(t, db, "mallory")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	c, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "alice says"}, asDTO(alice))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, c.ID, mallory.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger delete: got %v", err)
	}
	var count int64
	if err := db.Model(&model.Comment{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rejected delete must leave the comment, count = %d", count)
	}

	// 博客作者可以删除别人的评论
	if err := svc.Delete(ctx, c.ID, blogAuthor.ID); err != nil {
		t.Fatalf("blog author delete: %v", err)
	}
	if err := svc.Delete(ctx, c.ID, blogAuthor.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("double delete: got %v", err)
	}
}

// 混合增删之后计数器必须与实际行数一致
func TestCountersStayConsistent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCommentService(t, db)
	blogAuthor := seedUser(t, db, "author")
	alice := seedUser(t, db, "alice")
	blog := seedBlog(t, db, blogAuthor)

	ctx := context.Background()
	user := asDTO(alice)
	var tops []int64
	for i := 0; i < 3; i++ {
		c, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: fmt.Sprintf("top %d", i)}, user)
		if err != nil {
			t.Fatalf("create top %d: %v", i, err)
		}
		tops = append(tops, c.ID)
		for j := 0; j < 2; j++ {
			if _, err := svc.Create(ctx, dto.AddCommentForm{BlogID: blog.ID, Body: "reply", ReplyingTo: &c.ID}, user); err != nil {
				t.Fatalf("create reply: %v", err)
			}
		}
	}
	if err := svc.Delete(ctx, tops[1], alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var rows, parentRows int64
	if err := db.Model(&model.Comment{}).Where("blog_id = ?", blog.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if err := db.Model(&model.Comment{}).Where("blog_id = ? AND parent_id IS NULL", blog.ID).Count(&parentRows).Error; err != nil {
		t.Fatalf("count parent rows: %v", err)
	}
	total, parents := blogCounters(t, db, blog.ID)
	if total != rows || parents != parentRows {
		t.Fatalf("counters (%d, %d) diverged from rows (%d, %d)", total, parents, rows, parentRows)
	}
}
