package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommentMetrics 定义评论域相关的指标
type CommentMetrics struct {
	commentOpsTotal     *prometheus.CounterVec
	commentOpLatency    *prometheus.HistogramVec
	cascadeSize         prometheus.Histogram
	kafkaPublishTotal   *prometheus.CounterVec
	kafkaConsumeTotal   *prometheus.CounterVec
	kafkaConsumeLatency *prometheus.HistogramVec
	retryTotal          *prometheus.CounterVec
}

func NewCommentMetrics(registry *prometheus.Registry, serviceName string) *CommentMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}

	constLabels := prometheus.Labels{}
	if serviceName != "" {
		constLabels["service"] = serviceName
	}

	commentOpsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "comment",
		Subsystem:   "service",
		Name:        "operations_total",
		Help:        "Total comment operations.",
		ConstLabels: constLabels,
	}, []string{"op", "result"})

	commentOpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "comment",
		Subsystem:   "service",
		Name:        "operation_duration_seconds",
		Help:        "Comment operation duration in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"op"})

	// 级联删除一次移除的评论数分布
	cascadeSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "comment",
		Subsystem:   "service",
		Name:        "cascade_delete_size",
		Help:        "Number of comments removed per cascading delete.",
		Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		ConstLabels: constLabels,
	})

	kafkaPublishTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "comment",
		Subsystem:   "kafka",
		Name:        "publish_total",
		Help:        "Total kafka publish attempts.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	kafkaConsumeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "comment",
		Subsystem:   "kafka",
		Name:        "consume_total",
		Help:        "Total kafka consume results.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	kafkaConsumeLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "comment",
		Subsystem:   "kafka",
		Name:        "consume_duration_seconds",
		Help:        "Kafka consume handling duration in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	retryTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "comment",
		Subsystem:   "kafka",
		Name:        "retry_total",
		Help:        "Total retry or dropped notification events.",
		ConstLabels: constLabels,
	}, []string{"phase"})

	registry.MustRegister(commentOpsTotal, commentOpLatency, cascadeSize, kafkaPublishTotal, kafkaConsumeTotal, kafkaConsumeLatency, retryTotal)

	return &CommentMetrics{
		commentOpsTotal:     commentOpsTotal,
		commentOpLatency:    commentOpLatency,
		cascadeSize:         cascadeSize,
		kafkaPublishTotal:   kafkaPublishTotal,
		kafkaConsumeTotal:   kafkaConsumeTotal,
		kafkaConsumeLatency: kafkaConsumeLatency,
		retryTotal:          retryTotal,
	}
}

// ObserveCommentOp 记录一次评论操作的结果与耗时
func (m *CommentMetrics) ObserveCommentOp(op, result string, duration time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.commentOpsTotal.WithLabelValues(op, result).Inc()
	m.commentOpLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveCascade 记录一次级联删除移除的评论数
func (m *CommentMetrics) ObserveCascade(removed int) {
	if m == nil {
		return
	}
	m.cascadeSize.Observe(float64(removed))
}

// ObserveKafkaPublish 记录一次 Kafka 消息发布的结果
func (m *CommentMetrics) ObserveKafkaPublish(topic, result string) {
	if m == nil {
		return
	}
	m.kafkaPublishTotal.WithLabelValues(topic, result).Inc()
}

// ObserveKafkaConsume 记录一次 Kafka 消息消费的结果与耗时
func (m *CommentMetrics) ObserveKafkaConsume(topic, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.kafkaConsumeTotal.WithLabelValues(topic, result).Inc()
	m.kafkaConsumeLatency.WithLabelValues(topic, result).Observe(duration.Seconds())
}

// ObserveRetry 记录一次重试或丢弃事件
func (m *CommentMetrics) ObserveRetry(phase string) {
	if m == nil {
		return
	}
	m.retryTotal.WithLabelValues(phase).Inc()
}
