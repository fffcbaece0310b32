// Package application 结账流程的应用层：向导推进、折扣应用与下单
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/checkout/domain"
	discountapp "github.com/wyfcoding/ecommerce/internal/discount/application"
	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

var (
	// ErrEmptyCart 购物车为空时不能结账
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoSession 没有进行中的结账会话
	ErrNoSession = errors.New("no active checkout session")
	// ErrDiscountNoLongerValid 下单时折扣已不满足门槛，已被移除
	ErrDiscountNoLongerValid = errors.New("applied discount no longer meets the minimum order")
)

// Notifier 下单后的通知入队接口，实现方保证不抛错不阻塞
type Notifier interface {
	OrderPlaced(ctx context.Context, event notificationapp.OrderPlacedEvent)
}

// PricingFromConfig 把配置里的整数金额转成领域定价参数
func PricingFromConfig(cfg config.ShippingConfig) domain.PricingConfig {
	return domain.PricingConfig{
		CapitalToken:          strings.ToLower(cfg.CapitalToken),
		CapitalStandardFee:    decimal.NewFromInt(cfg.CapitalStandardFee),
		CapitalExpressFee:     decimal.NewFromInt(cfg.CapitalExpressFee),
		OutsideFlatFee:        decimal.NewFromInt(cfg.OutsideFlatFee),
		FreeShippingThreshold: decimal.NewFromInt(cfg.FreeShippingThreshold),
	}
}

// CheckoutService 结账应用服务。
// 会话状态全部在服务端，接口幂等可重入，刷新页面不丢进度。
type CheckoutService struct {
	sessions  domain.SessionRepository
	carts     cartdomain.CartRepository
	products  catalogdomain.ProductRepository
	orders    orderdomain.OrderRepository
	validator *discountapp.Validator
	notifier  Notifier
	pricing   domain.PricingConfig
	payment   config.PaymentConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewCheckoutService 构造函数
func NewCheckoutService(
	sessions domain.SessionRepository,
	carts cartdomain.CartRepository,
	products catalogdomain.ProductRepository,
	orders orderdomain.OrderRepository,
	validator *discountapp.Validator,
	notifier Notifier,
	pricing domain.PricingConfig,
	payment config.PaymentConfig,
	m *metrics.Metrics,
) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		carts:     carts,
		products:  products,
		orders:    orders,
		validator: validator,
		notifier:  notifier,
		pricing:   pricing,
		payment:   payment,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock 替换时钟，测试用
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// Start 开始或恢复结账。购物车为空直接拒绝。
func (s *CheckoutService) Start(ctx context.Context, userID string) (*SessionView, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Step == domain.StepPlaced {
		session = domain.NewSession(userID)
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		s.metrics.CheckoutSessionsActive.Inc()
	}
	return s.view(session, cart), nil
}

// Current 当前会话视图，没有会话返回 ErrNoSession
func (s *CheckoutService) Current(ctx context.Context, userID string) (*SessionView, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(session, cart), nil
}

// SubmitShipping 提交收货信息
func (s *CheckoutService) SubmitShipping(ctx context.Context, userID string, info domain.ShippingInfo) (*SessionView, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := session.SubmitShipping(info, s.pricing); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, cart), nil
}

// SubmitDeliveryPayment 提交区外订单的运费预付凭证
func (s *CheckoutService) SubmitDeliveryPayment(ctx context.Context, userID string, info domain.DeliveryPaymentInfo) (*SessionView, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := session.SubmitDeliveryPayment(info, s.payment.WalletProviders); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, cart), nil
}

// Back 回退一步
func (s *CheckoutService) Back(ctx context.Context, userID string) (*SessionView, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := session.Back(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, cart), nil
}

// ApplyDiscount 校验并应用折扣码，不叠加，新码覆盖旧码
func (s *CheckoutService) ApplyDiscount(ctx context.Context, userID, rawCode string) (*DiscountOutcome, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.validator.Validate(ctx, userID, rawCode, cart.Subtotal())
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return &DiscountOutcome{Message: result.Message}, nil
	}

	session.ApplyDiscount(domain.AppliedDiscount{
		CodeID:   result.Code.ID,
		Code:     result.Code.Code,
		Type:     result.Code.Type,
		Value:    result.Code.Value,
		MinOrder: result.Code.MinOrder,
	})
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	view := s.view(session, cart)
	return &DiscountOutcome{Applied: true, View: view}, nil
}

// RemoveDiscount 移除已应用的折扣
func (s *CheckoutService) RemoveDiscount(ctx context.Context, userID string) (*SessionView, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.RemoveDiscount()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, cart), nil
}

// PlaceOrder 下单。
// 订单与行项目在单事务内创建；创建失败时会话停留在确认页、购物车原样保留。
// 成功后的通知、清购物车、删会话都是尽力而为，失败只记日志。
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID, email string) (*orderdomain.Order, error) {
	session, cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !session.ReadyToPlace() {
		return nil, fmt.Errorf("%w: cannot place order from %s", domain.ErrInvalidTransition, session.Step)
	}

	subtotal := cart.Subtotal()
	if session.Discount != nil && subtotal.LessThan(session.Discount.MinOrder) {
		// 购物车在确认页之后被改小，折扣不再满足门槛
		session.RemoveDiscount()
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return nil, ErrDiscountNoLongerValid
	}

	snapshots, err := s.productSnapshots(ctx, cart)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(session, cart, subtotal, snapshots, email)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.OrdersPlacedTotal.Inc()
	s.notifier.OrderPlaced(ctx, s.placedEvent(order))

	if err := s.carts.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "failed to clear cart after order", "user_id", userID, "error", err)
	}
	if err := session.MarkPlaced(); err != nil {
		logger.Error(ctx, "failed to finalize checkout session", "user_id", userID, "error", err)
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		logger.Error(ctx, "failed to delete checkout session", "user_id", userID, "error", err)
		// 删不掉就把会话推进到终态，下次结账不会恢复到旧确认页
		if err := s.sessions.Save(ctx, session); err != nil {
			logger.Error(ctx, "failed to save placed session", "user_id", userID, "error", err)
		}
	}
	s.metrics.CheckoutSessionsActive.Dec()

	logger.Info(ctx, "order placed",
		"order_number", order.OrderNumber, "user_id", userID, "grand_total", order.GrandTotal.String())
	return order, nil
}

// DiscountLockout 页面加载时渲染折扣锁定警告用
func (s *CheckoutService) DiscountLockout(ctx context.Context, userID string) (bool, int, error) {
	return s.validator.LockoutStatus(ctx, userID)
}

func (s *CheckoutService) load(ctx context.Context, userID string) (*domain.Session, *cartdomain.Cart, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrNoSession
	}
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if cart.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}
	return session, cart, nil
}

func (s *CheckoutService) totals(session *domain.Session, cart *cartdomain.Cart) TotalsView {
	subtotal := cart.Subtotal()
	totals := TotalsView{Subtotal: subtotal, GrandTotal: subtotal}

	var shippingFee decimal.Decimal
	if session.Shipping != nil {
		quote := s.pricing.Quote(session.Zone, session.Shipping.Method, subtotal)
		shippingFee = quote.Cost
		totals.ShippingFee = shippingFee
		totals.FreeShippingApplied = quote.FreeThresholdApplied
	}

	discount := session.Discount.Amount(subtotal)
	totals.DiscountAmount = discount
	totals.GrandTotal = domain.GrandTotal(subtotal, shippingFee, discount)
	return totals
}

func (s *CheckoutService) view(session *domain.Session, cart *cartdomain.Cart) *SessionView {
	view := &SessionView{
		Step:                     session.Step,
		Zone:                     session.Zone,
		Shipping:                 session.Shipping,
		DeliveryPaymentSubmitted: session.DeliveryPayment != nil,
		Items:                    buildItemViews(cart),
		Totals:                   s.totals(session, cart),
	}
	if session.Zone == domain.ZoneOutside {
		view.PaymentInstructions = &PaymentInstructions{
			CollectionNumber: s.payment.CollectionNumber,
			WalletProviders:  s.payment.WalletProviders,
		}
	}
	if session.Discount != nil {
		view.Discount = &DiscountView{
			Code:   session.Discount.Code,
			Type:   string(session.Discount.Type),
			Amount: session.Discount.Amount(cart.Subtotal()),
		}
	}
	return view
}

type productSnapshot struct {
	Name     string
	ImageURL string
}

// 行项目快照需要商品名和主图，下架或已删除的商品退化为 ID
func (s *CheckoutService) productSnapshots(ctx context.Context, cart *cartdomain.Cart) (map[string]productSnapshot, error) {
	snapshots := make(map[string]productSnapshot, len(cart.Items))
	for _, it := range cart.Items {
		if _, ok := snapshots[it.ProductID]; ok {
			continue
		}
		product, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			snapshots[it.ProductID] = productSnapshot{Name: product.Name, ImageURL: product.ImageURL}
		} else {
			snapshots[it.ProductID] = productSnapshot{Name: it.ProductID}
		}
	}
	return snapshots, nil
}

func (s *CheckoutService) buildOrder(session *domain.Session, cart *cartdomain.Cart, subtotal decimal.Decimal, snapshots map[string]productSnapshot, email string) *orderdomain.Order {
	quote := s.pricing.Quote(session.Zone, session.Shipping.Method, subtotal)
	discount := session.Discount.Amount(subtotal)

	order := &orderdomain.Order{
		OrderNumber:    s.newOrderNumber(),
		UserID:         session.UserID,
		Email:          email,
		Status:         orderdomain.StatusPending,
		Subtotal:       subtotal,
		ShippingFee:    quote.Cost,
		DiscountAmount: discount,
		GrandTotal:     domain.GrandTotal(subtotal, quote.Cost, discount),
		ShippingZone:   string(session.Zone),
		ShippingMethod: string(quote.Method),
		FirstName:      session.Shipping.FirstName,
		LastName:       session.Shipping.LastName,
		Phone:          session.Shipping.Phone,
		Address:        session.Shipping.Address,
		City:           session.Shipping.City,
		PostalCode:     session.Shipping.PostalCode,
	}
	if session.Discount != nil {
		order.DiscountCode = session.Discount.Code
	}

	for _, it := range cart.Items {
		snap := snapshots[it.ProductID]
		order.Items = append(order.Items, orderdomain.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  snap.Name,
			ProductImage: snap.ImageURL,
			Quantity:     it.Quantity,
			Size:         it.Size,
			ColorName:    it.ColorName,
			ColorHex:     it.ColorHex,
			UnitPrice:    it.Price,
			LineTotal:    it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}

	if session.Zone == domain.ZoneOutside && session.DeliveryPayment != nil {
		order.DeliveryPayment = &orderdomain.DeliveryPayment{
			Provider:      strings.ToLower(strings.TrimSpace(session.DeliveryPayment.Provider)),
			SenderPhone:   session.DeliveryPayment.SenderPhone,
			TransactionID: session.DeliveryPayment.TransactionID,
		}
	}
	return order
}

func (s *CheckoutService) placedEvent(order *orderdomain.Order) notificationapp.OrderPlacedEvent {
	event := notificationapp.OrderPlacedEvent{
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		CustomerName:   strings.TrimSpace(order.FirstName + " " + order.LastName),
		Email:          order.Email,
		Phone:          order.Phone,
		Address:        order.Address,
		City:           order.City,
		PostalCode:     order.PostalCode,
		Zone:           order.ShippingZone,
		ShippingMethod: order.ShippingMethod,
		Subtotal:       order.Subtotal,
		ShippingFee:    order.ShippingFee,
		DiscountCode:   order.DiscountCode,
		DiscountAmount: order.DiscountAmount,
		GrandTotal:     order.GrandTotal,
		PlacedAt:       s.now(),
	}
	for _, it := range order.Items {
		event.Items = append(event.Items, notificationapp.OrderLine{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Size:        it.Size,
			ColorName:   it.ColorName,
			LineTotal:   it.LineTotal,
		})
	}
	if order.DeliveryPayment != nil {
		event.DeliveryPayment = &notificationapp.WalletRef{
			Provider:      order.DeliveryPayment.Provider,
			SenderPhone:   order.DeliveryPayment.SenderPhone,
			TransactionID: order.DeliveryPayment.TransactionID,
		}
	}
	return event
}

// 订单号：日期 + 随机段，可读且避免自增 ID 泄露订单量
func (s *CheckoutService) newOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s",
		s.now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}
