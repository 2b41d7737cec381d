package job

import (
	"context"
	"time"

	"fxtransfer/internal/config"
	"fxtransfer/internal/model"
	"fxtransfer/internal/repository"
	"fxtransfer/pkg/logger"

	"go.uber.org/zap"
)

// Publisher 消息投递，生产环境是 mq.Producer
type Publisher interface {
	Send(ctx context.Context, topic, key, value string) error
}

// OutboxSender 轮询本地消息表，把转账成功通知投递到 Kafka
//
// 至少投递一次：状态更新失败时消息会被再次发送，消费方按 transfer_no 去重。
type OutboxSender struct {
	outboxRepo    repository.OutboxRepository
	publisher     Publisher
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
	maxRetryCount int
	log           *zap.Logger
}

func NewOutboxSender(outboxRepo repository.OutboxRepository, publisher Publisher, cfg *config.OutboxConfig) *OutboxSender {
	interval := cfg.Interval()
	if interval <= 0 {
		interval = time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxSender{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		stopCh:        make(chan struct{}),
		interval:      interval,
		batchSize:     batchSize,
		maxRetryCount: cfg.MaxRetryCount,
		log:           logger.L().With(zap.String("component", "OutboxSender")),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("消息发送任务启动", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("收到停止信号，任务退出")
			return
		case <-s.stopCh:
			s.log.Info("任务停止")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.Error("查询消息失败", zap.Error(err))
		return
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return
		}
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := s.publisher.Send(ctx, msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			s.log.Error("更新消息状态失败", zap.Int64("id", msg.ID), zap.Error(updateErr))
		} else {
			s.log.Debug("消息发送成功", zap.Int64("id", msg.ID), zap.String("topic", msg.Topic), zap.String("key", msg.MessageKey))
		}
		return
	}

	s.log.Warn("消息发送失败", zap.Int64("id", msg.ID), zap.Error(err))

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.Error("增加重试次数失败", zap.Int64("id", msg.ID), zap.Error(err))
	}

	if msg.RetryCount+1 >= s.maxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.Error("标记消息失败状态失败", zap.Int64("id", msg.ID), zap.Error(err))
		} else {
			s.log.Error("消息超过最大重试次数，标记为失败", zap.Int64("id", msg.ID), zap.String("key", msg.MessageKey))
		}
	}
}
