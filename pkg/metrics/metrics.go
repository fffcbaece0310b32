// Package metrics 提供 Prometheus helper，包含本服务的业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 下单计数
	OrdersPlacedTotal prometheus.Counter
	// 订单取消计数
	OrdersCancelledTotal prometheus.Counter
	// 折扣码尝试计数（按结果区分）
	DiscountAttemptsTotal *prometheus.CounterVec
	// 限流锁定触发计数
	LockoutsTotal *prometheus.CounterVec
	// 通知入队计数（按结果区分）
	NotificationsEnqueuedTotal *prometheus.CounterVec
	// 进行中的结账会话数
	CheckoutSessionsActive prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		OrdersPlacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "orders_placed_total",
			Help:      "Total orders placed",
		}),
		OrdersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}),
		DiscountAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "discount_attempts_total",
			Help:      "Discount code validation attempts by result",
		}, []string{"result"}),
		LockoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "lockouts_total",
			Help:      "Rate limiter lockouts by scope",
		}, []string{"scope"}),
		NotificationsEnqueuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "notifications_enqueued_total",
			Help:      "Notification enqueue operations by result",
		}, []string{"result"}),
		CheckoutSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shop",
			Subsystem: serviceName,
			Name:      "checkout_sessions_active",
			Help:      "Checkout sessions currently open",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersPlacedTotal,
		m.OrdersCancelledTotal,
		m.DiscountAttemptsTotal,
		m.LockoutsTotal,
		m.NotificationsEnqueuedTotal,
		m.CheckoutSessionsActive,
	)
}

// Serve 启动独立的指标 HTTP 服务
func Serve(reg *prometheus.Registry, port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "Metrics server failed", "error", err)
		}
	}()
	return srv
}
