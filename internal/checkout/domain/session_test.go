package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	discountdomain "github.com/wyfcoding/ecommerce/internal/discount/domain"
)

var testProviders = []string{"bkash", "nagad", "rocket"}

func validShipping(city string) ShippingInfo {
	return ShippingInfo{
		FirstName: "Rahim",
		LastName:  "Uddin",
		Phone:     "01712345678",
		Address:   "House 12, Road 5, Dhanmondi",
		City:      city,
		Method:    ShippingStandard,
	}
}

func validDeliveryPayment() DeliveryPaymentInfo {
	return DeliveryPaymentInfo{
		Provider:      "bkash",
		SenderPhone:   "01812345678",
		TransactionID: "TXN12345",
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"01712345678", "+8801712345678", "8801912345678", " 01312345678 "}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), "phone=%q", p)
	}

	invalid := []string{"", "0171234567", "017123456789", "01212345678", "+88017123456", "12345678901", "0171234567a"}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), "phone=%q", p)
	}
}

func TestShippingInfoValidate(t *testing.T) {
	info := validShipping("Dhaka")
	assert.NoError(t, info.Validate())

	blankName := info
	blankName.FirstName = "  "
	assert.ErrorIs(t, blankName.Validate(), ErrFirstNameRequired)

	badPhone := info
	badPhone.Phone = "12345"
	assert.ErrorIs(t, badPhone.Validate(), ErrInvalidPhone)

	shortAddr := info
	shortAddr.Address = "House 1"
	assert.ErrorIs(t, shortAddr.Validate(), ErrAddressTooShort)

	noCity := info
	noCity.City = ""
	assert.ErrorIs(t, noCity.Validate(), ErrCityRequired)
}

func TestDeliveryPaymentInfoValidate(t *testing.T) {
	info := validDeliveryPayment()
	assert.NoError(t, info.Validate(testProviders))

	// 渠道名不区分大小写
	upper := info
	upper.Provider = " BKash "
	assert.NoError(t, upper.Validate(testProviders))

	unknown := info
	unknown.Provider = "paypal"
	assert.ErrorIs(t, unknown.Validate(testProviders), ErrWalletProviderInvalid)

	noPhone := info
	noPhone.SenderPhone = ""
	assert.ErrorIs(t, noPhone.Validate(testProviders), ErrWalletPhoneRequired)

	noTxn := info
	noTxn.TransactionID = " "
	assert.ErrorIs(t, noTxn.Validate(testProviders), ErrTransactionIDRequired)
}

func TestCapitalFlowSkipsDeliveryPayment(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")
	assert.Equal(t, StepShipping, s.Step)

	require.NoError(t, s.SubmitShipping(validShipping("Dhaka"), cfg))
	assert.Equal(t, StepReview, s.Step)
	assert.Equal(t, ZoneCapital, s.Zone)
	assert.Nil(t, s.DeliveryPayment)
	assert.True(t, s.ReadyToPlace())
}

func TestOutsideFlowRequiresDeliveryPayment(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")

	require.NoError(t, s.SubmitShipping(validShipping("Sylhet"), cfg))
	assert.Equal(t, StepDeliveryPayment, s.Step)
	assert.Equal(t, ZoneOutside, s.Zone)
	assert.False(t, s.ReadyToPlace())

	require.NoError(t, s.SubmitDeliveryPayment(validDeliveryPayment(), testProviders))
	assert.Equal(t, StepReview, s.Step)
	assert.True(t, s.ReadyToPlace())
}

func TestOutsideRejectsExpress(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")

	info := validShipping("Khulna")
	info.Method = ShippingExpress
	assert.ErrorIs(t, s.SubmitShipping(info, cfg), ErrExpressNotAvailable)
	assert.Equal(t, StepShipping, s.Step)
}

func TestDeliveryPaymentRejectedOnCapitalPath(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")

	require.NoError(t, s.SubmitShipping(validShipping("Dhaka"), cfg))
	err := s.SubmitDeliveryPayment(validDeliveryPayment(), testProviders)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBackNavigation(t *testing.T) {
	cfg := testPricing()

	// 首都区：确认页回到收货信息
	s := NewSession("u1")
	require.NoError(t, s.SubmitShipping(validShipping("Dhaka"), cfg))
	require.NoError(t, s.Back())
	assert.Equal(t, StepShipping, s.Step)

	// 区外：确认页回到预付步骤，再回到收货信息
	s = NewSession("u2")
	require.NoError(t, s.SubmitShipping(validShipping("Barisal"), cfg))
	require.NoError(t, s.SubmitDeliveryPayment(validDeliveryPayment(), testProviders))
	require.NoError(t, s.Back())
	assert.Equal(t, StepDeliveryPayment, s.Step)
	require.NoError(t, s.Back())
	assert.Equal(t, StepShipping, s.Step)

	// 起点不可再回退
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition)
}

func TestReEnterShippingSwitchesZone(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")

	require.NoError(t, s.SubmitShipping(validShipping("Rajshahi"), cfg))
	require.NoError(t, s.SubmitDeliveryPayment(validDeliveryPayment(), testProviders))
	require.NoError(t, s.Back())
	require.NoError(t, s.Back())

	// 改成首都城市后直达确认页，旧的预付凭证被清掉
	require.NoError(t, s.SubmitShipping(validShipping("Dhaka"), cfg))
	assert.Equal(t, StepReview, s.Step)
	assert.Equal(t, ZoneCapital, s.Zone)
	assert.Nil(t, s.DeliveryPayment)
}

func TestMarkPlaced(t *testing.T) {
	cfg := testPricing()
	s := NewSession("u1")

	assert.ErrorIs(t, s.MarkPlaced(), ErrInvalidTransition)

	require.NoError(t, s.SubmitShipping(validShipping("Dhaka"), cfg))
	require.NoError(t, s.MarkPlaced())
	assert.Equal(t, StepPlaced, s.Step)

	// 终态不可再操作
	assert.ErrorIs(t, s.SubmitShipping(validShipping("Dhaka"), cfg), ErrInvalidTransition)
	assert.ErrorIs(t, s.Back(), ErrInvalidTransition)
}

func TestApplyDiscountSnapshot(t *testing.T) {
	s := NewSession("u1")
	s.ApplyDiscount(AppliedDiscount{
		CodeID:   7,
		Code:     "SAVE10",
		Type:     discountdomain.DiscountTypePercentage,
		Value:    decimal.NewFromInt(10),
		MinOrder: decimal.NewFromInt(2000),
	})
	require.NotNil(t, s.Discount)
	assert.True(t, s.Discount.Amount(decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(500)))

	s.RemoveDiscount()
	assert.Nil(t, s.Discount)

	var none *AppliedDiscount
	assert.True(t, none.Amount(decimal.NewFromInt(1000)).IsZero())
}
