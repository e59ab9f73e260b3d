package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-backend/internal/observability"
)

// Registry 聚合全部业务 Service，方便注入 handler
type Registry struct {
	User         *UserService
	Blog         *BlogService
	Comment      *CommentService
	Notification *NotificationService
}

// NewRegistry 使用共享 DB / Redis / Kafka 构建所有服务
func NewRegistry(
	db *gorm.DB,
	rdb *redis.Client,
	notifyWriter *kafka.Writer,
	notifyRetryWriter *kafka.Writer,
	notifyReader *kafka.Reader,
	notifyRetryReader *kafka.Reader,
	metrics *observability.CommentMetrics,
	log *zap.Logger,
) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	notificationSvc := NewNotificationService(db, notifyWriter, notifyRetryWriter, notifyReader, notifyRetryReader, metrics, log)
	return &Registry{
		User:         NewUserService(db, rdb),
		Blog:         NewBlogService(db, rdb, log),
		Comment:      NewCommentService(db, notificationSvc, metrics, log),
		Notification: notificationSvc,
	}
}
