package application

import (
	"github.com/shopspring/decimal"

	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/checkout/domain"
)

// TotalsView 金额明细，全部为派生值，每次请求即时重算
type TotalsView struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	ShippingFee         decimal.Decimal `json:"shipping_fee"`
	FreeShippingApplied bool            `json:"free_shipping_applied"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
}

// DiscountView 已应用折扣的展示信息
type DiscountView struct {
	Code   string          `json:"code"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// ItemView 结账页的购物车行
type ItemView struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	ColorName string          `json:"color_name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PaymentInstructions 区外客户预付运费所需的收款信息
type PaymentInstructions struct {
	CollectionNumber string   `json:"collection_number"`
	WalletProviders  []string `json:"wallet_providers"`
}

// SessionView 结账会话的对外视图
type SessionView struct {
	Step                     domain.Step          `json:"step"`
	Zone                     domain.Zone          `json:"zone,omitempty"`
	Shipping                 *domain.ShippingInfo `json:"shipping,omitempty"`
	DeliveryPaymentSubmitted bool                 `json:"delivery_payment_submitted"`
	PaymentInstructions      *PaymentInstructions `json:"payment_instructions,omitempty"`
	Discount                 *DiscountView        `json:"discount,omitempty"`
	Items                    []ItemView           `json:"items"`
	Totals                   TotalsView           `json:"totals"`
}

// DiscountOutcome 应用折扣码的结果：要么生效，要么带一条面向用户的提示
type DiscountOutcome struct {
	Applied bool         `json:"applied"`
	Message string       `json:"message,omitempty"`
	View    *SessionView `json:"session,omitempty"`
}

func buildItemViews(cart *cartdomain.Cart) []ItemView {
	items := make([]ItemView, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, ItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			ColorName: it.ColorName,
			UnitPrice: it.Price,
			LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return items
}
