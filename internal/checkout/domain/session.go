package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	discountdomain "github.com/wyfcoding/ecommerce/internal/discount/domain"
)

// Step 结账向导步骤。
// 有效序列：shipping → review（首都区）
// 或 shipping → delivery_payment → review（区外）。
type Step string

const (
	// StepShipping 填写收货信息
	StepShipping Step = "shipping"
	// StepDeliveryPayment 区外订单的运费预付凭证
	StepDeliveryPayment Step = "delivery_payment"
	// StepReview 确认订单
	StepReview Step = "review"
	// StepPlaced 已下单，终态
	StepPlaced Step = "placed"
)

var (
	// ErrInvalidTransition 当前步骤不允许该操作
	ErrInvalidTransition = errors.New("invalid checkout step transition")
	// ErrFirstNameRequired 名字必填
	ErrFirstNameRequired = errors.New("first name is required")
	// ErrInvalidPhone 手机号格式不合法
	ErrInvalidPhone = errors.New("invalid Bangladesh phone number")
	// ErrAddressTooShort 地址至少 10 个字符
	ErrAddressTooShort = errors.New("address must be at least 10 characters")
	// ErrCityRequired 城市必填
	ErrCityRequired = errors.New("city is required")
	// ErrExpressNotAvailable 区外不提供加急配送
	ErrExpressNotAvailable = errors.New("express shipping is not available outside the capital zone")
	// ErrWalletProviderInvalid 钱包渠道不在支持列表内
	ErrWalletProviderInvalid = errors.New("unsupported mobile wallet provider")
	// ErrWalletPhoneRequired 付款手机号必填
	ErrWalletPhoneRequired = errors.New("sender phone number is required")
	// ErrTransactionIDRequired 交易号必填
	ErrTransactionIDRequired = errors.New("transaction id is required")
)

// 孟加拉本地手机号：01XXXXXXXXX / +8801XXXXXXXXX / 8801XXXXXXXXX，
// 01 后首位 3-9。
var phonePattern = regexp.MustCompile(`^(?:\+?8801|01)[3-9][0-9]{8}$`)

// ValidPhone 校验孟加拉手机号格式
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// ShippingInfo 收货信息表单
type ShippingInfo struct {
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	City       string         `json:"city"`
	PostalCode string         `json:"postal_code"`
	Method     ShippingMethod `json:"method"`
}

// Validate 表单校验。地址长度是启发式的"信息量下限"，不是结构化解析。
func (s ShippingInfo) Validate() error {
	if strings.TrimSpace(s.FirstName) == "" {
		return ErrFirstNameRequired
	}
	if !ValidPhone(s.Phone) {
		return ErrInvalidPhone
	}
	if len(strings.TrimSpace(s.Address)) < 10 {
		return ErrAddressTooShort
	}
	if strings.TrimSpace(s.City) == "" {
		return ErrCityRequired
	}
	return nil
}

// DeliveryPaymentInfo 区外订单的运费预付凭证。
// 仅记录用户自述的钱包付款信息，不对接任何支付网关，由管理员线下对账。
type DeliveryPaymentInfo struct {
	Provider      string `json:"provider"`
	SenderPhone   string `json:"sender_phone"`
	TransactionID string `json:"transaction_id"`
}

// Validate 凭证校验，provider 必须在配置的渠道列表内
func (d DeliveryPaymentInfo) Validate(providers []string) error {
	provider := strings.ToLower(strings.TrimSpace(d.Provider))
	found := false
	for _, p := range providers {
		if provider == p {
			found = true
			break
		}
	}
	if !found {
		return ErrWalletProviderInvalid
	}
	if strings.TrimSpace(d.SenderPhone) == "" {
		return ErrWalletPhoneRequired
	}
	if strings.TrimSpace(d.TransactionID) == "" {
		return ErrTransactionIDRequired
	}
	return nil
}

// AppliedDiscount 会话内的折扣快照，同一时间至多一个
type AppliedDiscount struct {
	CodeID   uint                        `json:"code_id"`
	Code     string                      `json:"code"`
	Type     discountdomain.DiscountType `json:"type"`
	Value    decimal.Decimal             `json:"value"`
	MinOrder decimal.Decimal             `json:"min_order"`
}

// Amount 按快照计算折扣金额
func (d *AppliedDiscount) Amount(subtotal decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return DiscountAmount(subtotal, &discountdomain.DiscountCode{Type: d.Type, Value: d.Value})
}

// Session 结账会话。
// 步骤转移只能通过方法进行，步骤与配送区的非法组合在构造上不可表达：
// delivery_payment 只在区外路径出现。
type Session struct {
	UserID          string               `json:"user_id"`
	Step            Step                 `json:"step"`
	Zone            Zone                 `json:"zone"`
	Shipping        *ShippingInfo        `json:"shipping,omitempty"`
	DeliveryPayment *DeliveryPaymentInfo `json:"delivery_payment,omitempty"`
	Discount        *AppliedDiscount     `json:"discount,omitempty"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewSession 从收货步骤开始新会话
func NewSession(userID string) *Session {
	return &Session{
		UserID:    userID,
		Step:      StepShipping,
		UpdatedAt: time.Now(),
	}
}

// SubmitShipping 提交收货信息并前进。
// 首都区直接进入确认页；区外先进入运费预付步骤。
func (s *Session) SubmitShipping(info ShippingInfo, cfg PricingConfig) error {
	if s.Step != StepShipping {
		return fmt.Errorf("%w: cannot submit shipping from %s", ErrInvalidTransition, s.Step)
	}
	if err := info.Validate(); err != nil {
		return err
	}

	zone := cfg.ClassifyZone(info.City)
	if info.Method == "" {
		info.Method = ShippingStandard
	}
	if zone == ZoneOutside {
		if info.Method == ShippingExpress {
			return ErrExpressNotAvailable
		}
		info.Method = ShippingStandard
	}

	s.Shipping = &info
	s.Zone = zone
	if zone == ZoneOutside {
		s.Step = StepDeliveryPayment
	} else {
		s.DeliveryPayment = nil
		s.Step = StepReview
	}
	s.UpdatedAt = time.Now()
	return nil
}

// SubmitDeliveryPayment 提交运费预付凭证并进入确认页，仅区外路径可用
func (s *Session) SubmitDeliveryPayment(info DeliveryPaymentInfo, providers []string) error {
	if s.Step != StepDeliveryPayment || s.Zone != ZoneOutside {
		return fmt.Errorf("%w: cannot submit delivery payment from %s/%s", ErrInvalidTransition, s.Step, s.Zone)
	}
	if err := info.Validate(providers); err != nil {
		return err
	}

	s.DeliveryPayment = &info
	s.Step = StepReview
	s.UpdatedAt = time.Now()
	return nil
}

// Back 回退一步。确认页按配送区回到上一步；预付步骤回到收货信息。
func (s *Session) Back() error {
	switch s.Step {
	case StepReview:
		if s.Zone == ZoneOutside {
			s.Step = StepDeliveryPayment
		} else {
			s.Step = StepShipping
		}
	case StepDeliveryPayment:
		s.Step = StepShipping
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, s.Step)
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ApplyDiscount 应用折扣，不叠加：已有折扣时需先移除
func (s *Session) ApplyDiscount(d AppliedDiscount) {
	s.Discount = &d
	s.UpdatedAt = time.Now()
}

// RemoveDiscount 移除已应用的折扣
func (s *Session) RemoveDiscount() {
	s.Discount = nil
	s.UpdatedAt = time.Now()
}

// ReadyToPlace 是否可以下单：必须停在确认页，且区外路径必须有预付凭证
func (s *Session) ReadyToPlace() bool {
	if s.Step != StepReview || s.Shipping == nil {
		return false
	}
	if s.Zone == ZoneOutside && s.DeliveryPayment == nil {
		return false
	}
	return true
}

// MarkPlaced 下单成功后标记终态
func (s *Session) MarkPlaced() error {
	if !s.ReadyToPlace() {
		return fmt.Errorf("%w: cannot place order from %s", ErrInvalidTransition, s.Step)
	}
	s.Step = StepPlaced
	s.UpdatedAt = time.Now()
	return nil
}

// SessionRepository 结账会话仓储接口，每个用户至多一个进行中的会话
type SessionRepository interface {
	// Get 获取用户当前会话，不存在返回 nil
	Get(ctx context.Context, userID string) (*Session, error)
	// Save 保存会话并刷新过期时间
	Save(ctx context.Context, session *Session) error
	// Delete 删除会话
	Delete(ctx context.Context, userID string) error
}
