// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"testops-assistant-go/internal/config"
	"testops-assistant-go/pkg/events"
	"testops-assistant-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceTurnEvent 发送一条轮次完成事件到 Kafka。
// 事件是尽力而为的：失败只记录日志，不影响本轮结果。
func ProduceTurnEvent(ctx context.Context, event events.TurnCompletedEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: eventBytes,
	})
}

// Close 关闭生产者连接。
func Close() {
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}
