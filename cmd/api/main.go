// API 服务主程序
// 功能：商品目录、购物车、结账向导、订单与账号的统一 HTTP 入口
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	authapp "github.com/wyfcoding/ecommerce/internal/auth/application"
	authdomain "github.com/wyfcoding/ecommerce/internal/auth/domain"
	authmysql "github.com/wyfcoding/ecommerce/internal/auth/infrastructure/persistence/mysql"
	authhttp "github.com/wyfcoding/ecommerce/internal/auth/interfaces/http"
	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/ecommerce/internal/checkout/application"
	checkoutredis "github.com/wyfcoding/ecommerce/internal/checkout/infrastructure/persistence/redis"
	checkouthttp "github.com/wyfcoding/ecommerce/internal/checkout/interfaces/http"
	customerapp "github.com/wyfcoding/ecommerce/internal/customer/application"
	customerdomain "github.com/wyfcoding/ecommerce/internal/customer/domain"
	customermysql "github.com/wyfcoding/ecommerce/internal/customer/infrastructure/persistence/mysql"
	customerhttp "github.com/wyfcoding/ecommerce/internal/customer/interfaces/http"
	discountapp "github.com/wyfcoding/ecommerce/internal/discount/application"
	discountdomain "github.com/wyfcoding/ecommerce/internal/discount/domain"
	discountmysql "github.com/wyfcoding/ecommerce/internal/discount/infrastructure/persistence/mysql"
	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/realtime"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/api/config.toml", "path to config file")
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
	logger.Info(ctx, "Starting APIService",
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

	if err := database.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.Cart{},
		&cartdomain.CartItem{},
		&cartdomain.WishlistItem{},
		&discountdomain.DiscountCode{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.DeliveryPayment{},
		&customerdomain.Profile{},
		&authdomain.User{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化 Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化 Kafka 生产者
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	// 6. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	registry := prometheus.NewRegistry()
	metricsInstance.Register(registry)
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.Serve(registry, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 7. 初始化限流器
	qpsLimiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	attemptStore := ratelimit.NewRedisAttemptStore(redisCache.GetClient())
	loginLimiter := ratelimit.NewAttemptLimiter(attemptStore, "login", ratelimit.AttemptPolicy{
		MaxAttempts: cfg.RateLimit.Login.MaxAttempts,
		Window:      time.Duration(cfg.RateLimit.Login.WindowSeconds) * time.Second,
		Lockout:     time.Duration(cfg.RateLimit.Login.LockoutSeconds) * time.Second,
	})
	discountLimiter := ratelimit.NewAttemptLimiter(attemptStore, "discount", ratelimit.AttemptPolicy{
		MaxAttempts: cfg.RateLimit.Discount.MaxAttempts,
		Window:      time.Duration(cfg.RateLimit.Discount.WindowSeconds) * time.Second,
		Lockout:     time.Duration(cfg.RateLimit.Discount.LockoutSeconds) * time.Second,
	})

	// 8. 初始化仓储
	productRepo := catalogmysql.NewProductRepository(database.DB)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	wishlistRepo := cartmysql.NewWishlistRepository(database.DB)
	discountRepo := discountmysql.NewDiscountRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	profileRepo := customermysql.NewProfileRepository(database.DB)
	userRepo := authmysql.NewUserRepository(database.DB)
	sessionRepo := checkoutredis.NewSessionRepository(redisCache, 30*time.Minute)
	statusPublisher := realtime.NewRedisStatusPublisher(redisCache)

	// 9. 初始化应用服务
	notifier := notificationapp.NewEnqueuer(producer, cfg.Notification, metricsInstance)
	catalogService := catalogapp.NewCatalogQueryService(productRepo)
	cartService := cartapp.NewCartService(cartRepo, wishlistRepo, productRepo)
	discountValidator := discountapp.NewValidator(discountRepo, discountLimiter).WithMetrics(metricsInstance)
	checkoutService := checkoutapp.NewCheckoutService(
		sessionRepo, cartRepo, productRepo, orderRepo, discountValidator, notifier,
		checkoutapp.PricingFromConfig(cfg.Shipping), cfg.Payment, metricsInstance,
	)
	orderService := orderapp.NewOrderService(orderRepo, statusPublisher, notifier, metricsInstance)
	profileService := customerapp.NewProfileService(profileRepo)
	authService := authapp.NewAuthService(userRepo, loginLimiter, cfg.Auth, metricsInstance)

	// 10. 创建 HTTP 服务器
	router := gin.New()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware(metricsInstance))
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(qpsLimiter, cfg.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	// 公开路由
	public := router.Group("")
	cataloghttp.NewCatalogHandler(catalogService).RegisterRoutes(public)
	authhttp.NewAuthHandler(authService).RegisterRoutes(public)

	// 需登录路由
	authed := router.Group("")
	authed.Use(middleware.AuthRequired(cfg.Auth.JWTSecret))
	carthttp.NewCartHandler(cartService).RegisterRoutes(authed)
	checkouthttp.NewCheckoutHandler(checkoutService).RegisterRoutes(authed)
	customerhttp.NewProfileHandler(profileService).RegisterRoutes(authed)
	orderHandler := orderhttp.NewOrderHandler(orderService, statusPublisher)
	orderHandler.RegisterRoutes(authed)

	// 管理端路由
	admin := router.Group("")
	admin.Use(middleware.AuthRequired(cfg.Auth.JWTSecret), middleware.AdminRequired())
	orderHandler.RegisterAdminRoutes(admin)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 11. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down APIService")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Metrics server shutdown error", "error", err)
		}
	}

	logger.Info(ctx, "APIService stopped")
}
