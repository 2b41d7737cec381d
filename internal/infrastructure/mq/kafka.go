package mq

import (
	"context"
	"fmt"

	"fxtransfer/internal/config"
	"fxtransfer/pkg/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Producer 同步 Kafka 生产者，OutboxSender 通过它投递转账通知
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer 按配置创建 Kafka 生产者
func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll // 等待所有副本确认
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true // SyncProducer 必须开启

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("创建 Kafka 生产者失败: %w", err)
	}

	logger.L().Info("Kafka 生产者创建成功", zap.Strings("brokers", cfg.Brokers))
	return NewProducerWith(producer), nil
}

// NewProducerWith 包装已有的 SyncProducer
func NewProducerWith(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

// Send 发送一条消息，key 用于分区，保证同一转账单的消息有序
func (p *Producer) Send(ctx context.Context, topic, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("发送 Kafka 消息失败: %w", err)
	}
	logger.Ctx(ctx).Debug("Kafka 消息已发送",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
