// Package domain 结账流程的领域模型：运费定价、折扣计算与分步状态机
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	discountdomain "github.com/wyfcoding/ecommerce/internal/discount/domain"
)

// Zone 配送区域
type Zone string

const (
	// ZoneCapital 首都配送区：低价、可加急
	ZoneCapital Zone = "capital"
	// ZoneOutside 首都以外：统一运费，不提供加急
	ZoneOutside Zone = "outside"
)

// ShippingMethod 配送方式
type ShippingMethod string

const (
	// ShippingStandard 标准配送
	ShippingStandard ShippingMethod = "standard"
	// ShippingExpress 加急配送，仅首都区可选
	ShippingExpress ShippingMethod = "express"
)

// PricingConfig 定价参数，全部来自配置，不允许散落硬编码
type PricingConfig struct {
	// 首都城市匹配词，小写
	CapitalToken string
	// 首都区标准运费
	CapitalStandardFee decimal.Decimal
	// 首都区加急运费
	CapitalExpressFee decimal.Decimal
	// 首都区外统一运费
	OutsideFlatFee decimal.Decimal
	// 免邮门槛，仅首都区标准配送适用
	FreeShippingThreshold decimal.Decimal
}

// ClassifyZone 按城市名划分配送区。
// 城市名去空格转小写后，只要包含首都匹配词即算首都区。
// 包含式匹配是有意保留的宽松规则，不要悄悄收紧。
func (c PricingConfig) ClassifyZone(city string) Zone {
	normalized := strings.ToLower(strings.TrimSpace(city))
	if strings.Contains(normalized, c.CapitalToken) {
		return ZoneCapital
	}
	return ZoneOutside
}

// ShippingQuote 运费报价，派生值，随输入变化即时重算，从不落库
type ShippingQuote struct {
	Cost                 decimal.Decimal `json:"cost"`
	Method               ShippingMethod  `json:"method"`
	FreeThresholdApplied bool            `json:"free_threshold_applied"`
}

// Quote 计算运费。
// 首都区标准配送达到免邮门槛则免运费；加急永远全价；区外统一运费且无视配送方式。
func (c PricingConfig) Quote(zone Zone, method ShippingMethod, subtotal decimal.Decimal) ShippingQuote {
	if zone == ZoneOutside {
		return ShippingQuote{Cost: c.OutsideFlatFee, Method: ShippingStandard}
	}

	if method == ShippingExpress {
		return ShippingQuote{Cost: c.CapitalExpressFee, Method: ShippingExpress}
	}

	if subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return ShippingQuote{Cost: decimal.Zero, Method: ShippingStandard, FreeThresholdApplied: true}
	}
	return ShippingQuote{Cost: c.CapitalStandardFee, Method: ShippingStandard}
}

// DiscountAmount 计算折扣金额。
// 百分比类型四舍五入到整塔卡；固定金额封顶到小计，避免总额为负。
func DiscountAmount(subtotal decimal.Decimal, code *discountdomain.DiscountCode) decimal.Decimal {
	if code == nil {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch code.Type {
	case discountdomain.DiscountTypePercentage:
		amount = subtotal.Mul(code.Value).Div(decimal.NewFromInt(100)).Round(0)
	case discountdomain.DiscountTypeFixed:
		amount = code.Value
	default:
		return decimal.Zero
	}

	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

// GrandTotal 应付总额 = 小计 + 运费 − 折扣，最低为零
func GrandTotal(subtotal, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
