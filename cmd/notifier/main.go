// Notifier 主程序
// 功能：消费通知队列，投递客户邮件与管理端 Webhook 提醒
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	notificationdomain "github.com/wyfcoding/ecommerce/internal/notification/domain"
	notificationmysql "github.com/wyfcoding/ecommerce/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/notifier/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting NotifierService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(&notificationdomain.Notification{}); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化消费者
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
	}
	emailConsumer, err := mq.NewConsumer(kafkaCfg, cfg.Notification.EmailTopic)
	if err != nil {
		logger.Fatal(ctx, "Failed to create email consumer", "error", err)
	}
	defer emailConsumer.Close()

	adminConsumer, err := mq.NewConsumer(kafkaCfg, cfg.Notification.AdminTopic)
	if err != nil {
		logger.Fatal(ctx, "Failed to create admin consumer", "error", err)
	}
	defer adminConsumer.Close()

	// 5. 初始化投递循环
	repo := notificationmysql.NewNotificationRepository(database.DB)
	emailSender := sender.NewSMTPSender(cfg.Notification.SMTPAddr, cfg.Notification.SMTPFrom)
	webhookSender := sender.NewWebhookSender()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	emailWorker := notificationapp.NewWorker(emailConsumer, repo, emailSender, webhookSender)
	adminWorker := notificationapp.NewWorker(adminConsumer, repo, emailSender, webhookSender)

	done := make(chan struct{}, 2)
	go func() {
		defer func() { done <- struct{}{} }()
		if err := emailWorker.Run(runCtx); err != nil {
			logger.Error(runCtx, "email worker stopped", "error", err)
		}
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		if err := adminWorker.Run(runCtx); err != nil {
			logger.Error(runCtx, "admin worker stopped", "error", err)
		}
	}()

	// 6. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down NotifierService")
	cancel()
	<-done
	<-done
	logger.Info(ctx, "NotifierService stopped")
}
