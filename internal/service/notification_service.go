package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inkwell-backend/internal/model"
	"inkwell-backend/internal/observability"
	"inkwell-backend/internal/utils"
)

const notifyMaxRetryCount = 3

// notificationEvent 评论/回复产生的通知消息
type notificationEvent struct {
	Type            string `json:"type"`
	BlogID          int64  `json:"blogId"`
	CommentID       int64  `json:"commentId"`
	RepliedOnID     *int64 `json:"repliedOnId,omitempty"`
	NotificationFor int64  `json:"notificationFor"`
	UserID          int64  `json:"userId"`
	RetryCount      int    `json:"retryCount"`
	NextRetryAt     int64  `json:"nextRetryAt"`
	LastError       string `json:"lastError,omitempty"`
}

// NotificationService 负责通知的投递、查询与清理。
// 配置了 Kafka 时走异步管道（主 topic + 重试 topic）；
// 未配置时退化为同步落库。通知只保证尽力而为，评论本身的持久化永远优先。
type NotificationService struct {
	db          *gorm.DB
	writer      *kafka.Writer
	retryWriter *kafka.Writer
	reader      *kafka.Reader
	retryReader *kafka.Reader
	metrics     *observability.CommentMetrics
	log         *zap.Logger
}

// NewNotificationService 创建服务并按需启动消费协程
func NewNotificationService(
	db *gorm.DB,
	writer *kafka.Writer,
	retryWriter *kafka.Writer,
	reader *kafka.Reader,
	retryReader *kafka.Reader,
	metrics *observability.CommentMetrics,
	log *zap.Logger,
) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	svc := &NotificationService{
		db:          db,
		writer:      writer,
		retryWriter: retryWriter,
		reader:      reader,
		retryReader: retryReader,
		metrics:     metrics,
		log:         log,
	}
	if svc.reader != nil {
		go svc.consumeNotifications(context.Background())
	}
	if svc.retryReader != nil {
		go svc.consumeRetryNotifications(context.Background())
	}
	return svc
}

// Notify 投递一条通知。发布失败退化为同步插入，插入再失败只记日志：
// 评论已经提交，通知丢失可以接受。
func (s *NotificationService) Notify(ctx context.Context, event notificationEvent) {
	if s.writer == nil {
		if err := s.insert(ctx, event); err != nil {
			s.log.Warn("notification insert failed",
				zap.Int64("commentId", event.CommentID),
				zap.Error(err),
			)
		}
		return
	}
	if err := s.publish(ctx, s.writer, event); err != nil {
		s.log.Warn("notification publish failed, falling back to direct insert",
			zap.Int64("commentId", event.CommentID),
			zap.Error(err),
		)
		if err := s.insert(ctx, event); err != nil {
			s.log.Warn("notification fallback insert failed",
				zap.Int64("commentId", event.CommentID),
				zap.Error(err),
			)
		}
	}
}

// DeleteByCommentIDs 删除引用了这些评论的全部通知。
// 幂等：评论或通知已不存在时不报错。
func (s *NotificationService) DeleteByCommentIDs(ctx context.Context, commentIDs []int64) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("comment_id IN ? OR replied_on_id IN ?", commentIDs, commentIDs).
		Delete(&model.Notification{}).Error
}

// ListForUser 返回发给某用户的通知，新的在前
func (s *NotificationService) ListForUser(ctx context.Context, userID int64, page int) ([]model.Notification, error) {
	var notifications []model.Notification
	offset := (page - 1) * utils.MAX_PAGE_SIZE
	if offset < 0 {
		offset = 0
	}
	err := s.db.WithContext(ctx).
		Where("notification_for = ?", userID).
		Order("create_time DESC, id DESC").
		Offset(offset).
		Limit(utils.MAX_PAGE_SIZE).
		Find(&notifications).Error
	return notifications, err
}

// MarkSeen 将某用户的一条通知标记为已读
func (s *NotificationService) MarkSeen(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND notification_for = ?", id, userID).
		UpdateColumn("seen", true).Error
}

// insert 将事件落为通知记录。自己给自己评论/回复不产生通知。
func (s *NotificationService) insert(ctx context.Context, event notificationEvent) error {
	if event.NotificationFor == event.UserID {
		return nil
	}
	notification := &model.Notification{
		Type:            event.Type,
		BlogID:          event.BlogID,
		CommentID:       event.CommentID,
		RepliedOnID:     event.RepliedOnID,
		NotificationFor: event.NotificationFor,
		UserID:          event.UserID,
	}
	return s.db.WithContext(ctx).Create(notification).Error
}

// publish 写入 Kafka，注入追踪头并埋点
func (s *NotificationService) publish(ctx context.Context, writer *kafka.Writer, event notificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	message := kafka.Message{
		// 以 blogId 作为 key，同一博客的通知落到同一分区保持顺序
		Key:   []byte(strconv.FormatInt(event.BlogID, 10)),
		Value: data,
	}
	topic := writer.Topic
	if topic == "" {
		topic = "unknown"
	}
	spanCtx, span := observability.StartKafkaProduceSpan(ctx, topic)
	defer span.End()
	observability.InjectKafkaHeaders(spanCtx, &message.Headers)
	if err := writer.WriteMessages(spanCtx, message); err != nil {
		span.RecordError(err)
		s.metrics.ObserveKafkaPublish(topic, "error")
		return err
	}
	s.metrics.ObserveKafkaPublish(topic, "success")
	return nil
}

// consumeNotifications 主 topic 消费端：落库失败进入重试 topic
func (s *NotificationService) consumeNotifications(ctx context.Context) {
	s.consumeLoop(ctx, s.reader, "consumeNotifications")
}

// consumeRetryNotifications 重试 topic 消费端，按回退时间再次落库
func (s *NotificationService) consumeRetryNotifications(ctx context.Context) {
	s.consumeLoop(ctx, s.retryReader, "consumeRetryNotifications")
}

// consumeLoop 通用消费循环：拉取、反序列化、埋点、提交 offset
func (s *NotificationService) consumeLoop(ctx context.Context, reader *kafka.Reader, name string) {
	s.log.Info(name + " started")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error(name+" fetch message error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var event notificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			s.log.Error(name+" parse message error", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		topic := msg.Topic
		if topic == "" {
			topic = "unknown"
		}
		consumeCtx := observability.ExtractKafkaContext(ctx, msg.Headers)
		consumeCtx, span := observability.StartKafkaConsumeSpan(consumeCtx, topic)
		start := time.Now()

		if err := s.handleEvent(consumeCtx, event); err != nil {
			span.RecordError(err)
			s.metrics.ObserveKafkaConsume(topic, "retry", time.Since(start))
		} else {
			s.metrics.ObserveKafkaConsume(topic, "success", time.Since(start))
		}
		span.End()

		if err := reader.CommitMessages(ctx, msg); err != nil {
			s.log.Error(name+" commit error", zap.Error(err), zap.Int64("commentId", event.CommentID))
		}
	}
}

// handleEvent 落库一条通知，失败转入重试，重试耗尽后丢弃并留痕
func (s *NotificationService) handleEvent(ctx context.Context, event notificationEvent) error {
	if event.NextRetryAt > 0 {
		if delay := time.Until(time.Unix(event.NextRetryAt, 0)); delay > 0 {
			time.Sleep(delay)
		}
	}

	err := s.insert(ctx, event)
	if err == nil {
		return nil
	}

	event.RetryCount++
	event.LastError = err.Error()
	if event.RetryCount > notifyMaxRetryCount || s.retryWriter == nil {
		// 通知只保证尽力而为，重试耗尽后放弃
		s.metrics.ObserveRetry("dropped")
		s.log.Error("notification dropped after retries",
			zap.Int64("commentId", event.CommentID),
			zap.Int("retryCount", event.RetryCount),
			zap.Error(err),
		)
		return nil
	}
	event.NextRetryAt = time.Now().Add(notifyRetryBackoff(event.RetryCount)).Unix()
	s.metrics.ObserveRetry("retry")
	if pubErr := s.publish(ctx, s.retryWriter, event); pubErr != nil {
		s.log.Error("notification retry publish failed",
			zap.Int64("commentId", event.CommentID),
			zap.Error(pubErr),
		)
	}
	return err
}

// notifyRetryBackoff 指数回退，最大 30 秒
func notifyRetryBackoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return time.Second
	}
	backoff := time.Second * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Second {
		return 30 * time.Second
	}
	return backoff
}
