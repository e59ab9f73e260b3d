package observability

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "inkwell-backend"

// kafkaHeaderCarrier 实现 TextMapCarrier，用于在 Kafka 消息头中注入和提取追踪信息
type kafkaHeaderCarrier struct {
	headers *[]kafka.Header
}

func (c kafkaHeaderCarrier) Get(key string) string {
	if c.headers == nil {
		return ""
	}
	for _, h := range *c.headers {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}

func (c kafkaHeaderCarrier) Set(key, value string) {
	if c.headers == nil {
		return
	}
	headers := *c.headers
	for i, h := range headers {
		if strings.EqualFold(h.Key, key) {
			headers[i].Value = []byte(value)
			*c.headers = headers
			return
		}
	}
	headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	*c.headers = headers
}

func (c kafkaHeaderCarrier) Keys() []string {
	if c.headers == nil {
		return nil
	}
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// InjectKafkaHeaders 将当前跟踪上下文写入 kafka headers 中
func InjectKafkaHeaders(ctx context.Context, headers *[]kafka.Header) {
	if headers == nil {
		return
	}
	otel.GetTextMapPropagator().Inject(ctx, kafkaHeaderCarrier{headers: headers})
}

// ExtractKafkaContext 从 kafka headers 中读取 trace 上下文
func ExtractKafkaContext(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := kafkaHeaderCarrier{headers: &headers}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// StartKafkaProduceSpan 为 Kafka 生产操作创建 Span
func StartKafkaProduceSpan(ctx context.Context, topic string) (context.Context, trace.Span) {
	if topic == "" {
		topic = "unknown"
	}
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "kafka.produce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
		),
	)
}

// StartKafkaConsumeSpan 为 Kafka 消费操作创建 Span
func StartKafkaConsumeSpan(ctx context.Context, topic string) (context.Context, trace.Span) {
	if topic == "" {
		topic = "unknown"
	}
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
		),
	)
}
