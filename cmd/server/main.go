package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fxtransfer/internal/config"
	"fxtransfer/internal/handler"
	"fxtransfer/internal/infrastructure/cache"
	"fxtransfer/internal/infrastructure/database"
	"fxtransfer/internal/infrastructure/mq"
	"fxtransfer/internal/job"
	"fxtransfer/internal/repository"
	"fxtransfer/internal/repository/memory"
	"fxtransfer/internal/service"
	"fxtransfer/pkg/idgen"
	"fxtransfer/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "服务启动失败: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	if err := idgen.Init(int64(cfg.Server.WorkerID)); err != nil {
		return err
	}

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store = memory.NewStore()
		log.Warn("使用内存存储，数据不会持久化")
	default:
		db, err := database.InitMySQL(&cfg.MySQL)
		if err != nil {
			return err
		}
		store = repository.NewGormStore(db)
	}

	// 汇率来源，开启 Redis 时走缓存
	rates := store.FxRates()
	if cfg.Redis.Enabled {
		redisClient, err := cache.InitRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		rates = cache.NewCachedRateRepository(rates, redisClient, cfg.Redis.RateTTL())
	}

	accountService := service.NewAccountService(store, rates)
	if cfg.Storage.Seed {
		if err := accountService.Seed(ctx); err != nil {
			return err
		}
	}
	transferService := service.NewTransferServiceFromConfig(store, rates, cfg, log)

	// 转账通知
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(&cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		outboxSender := job.NewOutboxSender(store.Outbox(), producer, &cfg.Outbox)
		go outboxSender.Start(ctx)
	}

	router := handler.SetupRouter(handler.NewHandler(transferService, accountService))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("服务启动", zap.Int("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务异常: %w", err)
	}

	log.Info("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("服务关闭异常", zap.Error(err))
	}

	log.Info("服务已关闭")
	return nil
}
