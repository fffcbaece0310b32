package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	discountdomain "github.com/wyfcoding/ecommerce/internal/discount/domain"
)

func testPricing() PricingConfig {
	return PricingConfig{
		CapitalToken:          "dhaka",
		CapitalStandardFee:    decimal.NewFromInt(100),
		CapitalExpressFee:     decimal.NewFromInt(200),
		OutsideFlatFee:        decimal.NewFromInt(160),
		FreeShippingThreshold: decimal.NewFromInt(5000),
	}
}

func TestClassifyZone(t *testing.T) {
	cfg := testPricing()

	tests := []struct {
		city string
		want Zone
	}{
		{"Dhaka", ZoneCapital},
		{"dhaka", ZoneCapital},
		{"  DHAKA  ", ZoneCapital},
		{"North Dhaka", ZoneCapital},
		{"Dhaka Cantonment", ZoneCapital},
		{"Chittagong", ZoneOutside},
		{"Sylhet", ZoneOutside},
		{"", ZoneOutside},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.ClassifyZone(tt.city), "city=%q", tt.city)
	}
}

func TestQuoteCapitalStandard(t *testing.T) {
	cfg := testPricing()

	q := cfg.Quote(ZoneCapital, ShippingStandard, decimal.NewFromInt(3000))
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, ShippingStandard, q.Method)
	assert.False(t, q.FreeThresholdApplied)
}

func TestQuoteFreeShippingThreshold(t *testing.T) {
	cfg := testPricing()

	// 恰好达到门槛即免邮
	q := cfg.Quote(ZoneCapital, ShippingStandard, decimal.NewFromInt(5000))
	assert.True(t, q.Cost.IsZero())
	assert.True(t, q.FreeThresholdApplied)

	q = cfg.Quote(ZoneCapital, ShippingStandard, decimal.NewFromInt(4999))
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(100)))
	assert.False(t, q.FreeThresholdApplied)
}

func TestQuoteExpressNeverFree(t *testing.T) {
	cfg := testPricing()

	// 加急不参与免邮，6000 照收 200
	q := cfg.Quote(ZoneCapital, ShippingExpress, decimal.NewFromInt(6000))
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, ShippingExpress, q.Method)
	assert.False(t, q.FreeThresholdApplied)
}

func TestQuoteOutsideFlatFee(t *testing.T) {
	cfg := testPricing()

	// 区外统一 160，免邮门槛和加急均不适用
	for _, subtotal := range []int64{500, 4000, 10000} {
		q := cfg.Quote(ZoneOutside, ShippingStandard, decimal.NewFromInt(subtotal))
		assert.True(t, q.Cost.Equal(decimal.NewFromInt(160)), "subtotal=%d", subtotal)
		assert.Equal(t, ShippingStandard, q.Method)
		assert.False(t, q.FreeThresholdApplied)
	}

	q := cfg.Quote(ZoneOutside, ShippingExpress, decimal.NewFromInt(10000))
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, ShippingStandard, q.Method)
}

func TestDiscountAmountPercentage(t *testing.T) {
	code := &discountdomain.DiscountCode{
		Type:  discountdomain.DiscountTypePercentage,
		Value: decimal.NewFromInt(10),
	}

	got := DiscountAmount(decimal.NewFromInt(5000), code)
	assert.True(t, got.Equal(decimal.NewFromInt(500)))

	// 四舍五入到整塔卡：1555 的 10% 是 155.5，进到 156
	got = DiscountAmount(decimal.NewFromInt(1555), code)
	assert.True(t, got.Equal(decimal.NewFromInt(156)))
}

func TestDiscountAmountFixedClamped(t *testing.T) {
	code := &discountdomain.DiscountCode{
		Type:  discountdomain.DiscountTypeFixed,
		Value: decimal.NewFromInt(800),
	}

	got := DiscountAmount(decimal.NewFromInt(2000), code)
	assert.True(t, got.Equal(decimal.NewFromInt(800)))

	// 固定金额超过小计时封顶到小计
	got = DiscountAmount(decimal.NewFromInt(500), code)
	assert.True(t, got.Equal(decimal.NewFromInt(500)))
}

func TestDiscountAmountNil(t *testing.T) {
	assert.True(t, DiscountAmount(decimal.NewFromInt(1000), nil).IsZero())
}

func TestGrandTotalFlooredAtZero(t *testing.T) {
	got := GrandTotal(decimal.NewFromInt(100), decimal.NewFromInt(0), decimal.NewFromInt(500))
	assert.True(t, got.IsZero())
}

func TestGrandTotalScenarios(t *testing.T) {
	cfg := testPricing()

	// 首都区标准配送，小计 3000：运费 100，总额 3100
	q := cfg.Quote(ZoneCapital, ShippingStandard, decimal.NewFromInt(3000))
	total := GrandTotal(decimal.NewFromInt(3000), q.Cost, decimal.Zero)
	assert.True(t, total.Equal(decimal.NewFromInt(3100)))

	// 首都区加急，小计 6000：运费 200 不免，总额 6200
	q = cfg.Quote(ZoneCapital, ShippingExpress, decimal.NewFromInt(6000))
	total = GrandTotal(decimal.NewFromInt(6000), q.Cost, decimal.Zero)
	assert.True(t, total.Equal(decimal.NewFromInt(6200)))

	// 区外，小计 4000：运费 160，总额 4160
	q = cfg.Quote(ZoneOutside, ShippingStandard, decimal.NewFromInt(4000))
	total = GrandTotal(decimal.NewFromInt(4000), q.Cost, decimal.Zero)
	assert.True(t, total.Equal(decimal.NewFromInt(4160)))

	// 小计 5000 叠加 10% 折扣码：免邮 + 折 500，总额 4500
	code := &discountdomain.DiscountCode{
		Type:      discountdomain.DiscountTypePercentage,
		Value:     decimal.NewFromInt(10),
		MinOrder:  decimal.NewFromInt(2000),
		IsActive:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	q = cfg.Quote(ZoneCapital, ShippingStandard, decimal.NewFromInt(5000))
	assert.True(t, q.FreeThresholdApplied)
	discount := DiscountAmount(decimal.NewFromInt(5000), code)
	total = GrandTotal(decimal.NewFromInt(5000), q.Cost, discount)
	assert.True(t, total.Equal(decimal.NewFromInt(4500)))
}
