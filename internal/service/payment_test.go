package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frunko/frunko/internal/models"
	"github.com/frunko/frunko/internal/paytm"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMerchantKey = "test-merchant-key"

func newFakeGateway(t *testing.T, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPaymentEnv(t *testing.T, gatewayURL string) (*repo.GormRepo, *PaymentService) {
	t.Helper()
	r := newTestRepo(t)
	client := paytm.NewClient(paytm.Config{
		MerchantID:  "FRUNKO_MID",
		MerchantKey: testMerchantKey,
		Website:     "WEBSTAGING",
		GatewayURL:  gatewayURL,
		CallbackURL: "http://localhost:8080/api/payment/callback",
	})
	return r, &PaymentService{Repo: r, Client: client}
}

func seedOrder(t *testing.T, r *repo.GormRepo, order *models.Order) {
	t.Helper()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	require.NoError(t, r.DB.Create(order).Error)
}

func signedCallback(orderID, txnID, status string) transport.PaytmCallback {
	cb := transport.PaytmCallback{
		OrderID:   orderID,
		TxnID:     txnID,
		Status:    status,
		TxnAmount: "950.00",
		RespCode:  "01",
		RespMsg:   "Txn Success",
	}
	cb.Checksum = paytm.Sign(cb.SignedParams(), testMerchantKey)
	return cb
}

const tokenResponse = `{"body":{"resultInfo":{"resultStatus":"S","resultMsg":"Success"},"txnToken":"TOKEN-123"}}`
const rejectResponse = `{"body":{"resultInfo":{"resultStatus":"F","resultMsg":"invalid merchant"}}}`

func TestInitiate_BindsGatewayOrderAfterToken(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	userID := uuid.New()
	order := &models.Order{UserID: userID, TotalAmount: dec("950")}
	seedOrder(t, r, order)

	result, err := svc.Initiate(context.Background(), userID, transport.InitiatePaymentRequest{
		OrderID: order.ID,
		Amount:  dec("950"),
		Email:   "diner@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "TOKEN-123", result.TxnToken)
	assert.Equal(t, "FRUNKO_MID", result.MID)
	assert.Equal(t, "950.00", result.Amount)
	assert.True(t, strings.HasPrefix(result.OrderID, "FRUNKO_"), "gateway order id %q", result.OrderID)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.OrderID, stored.PaytmOrderID)
	assert.Equal(t, "paytm", stored.PaymentMethod)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
}

func TestInitiate_GatewayRejectionLeavesOrderUntouched(t *testing.T) {
	srv := newFakeGateway(t, rejectResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	userID := uuid.New()
	order := &models.Order{UserID: userID, TotalAmount: dec("100")}
	seedOrder(t, r, order)

	_, err := svc.Initiate(context.Background(), userID, transport.InitiatePaymentRequest{
		OrderID: order.ID,
		Amount:  dec("100"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, paytm.ErrGatewayRejected)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PaytmOrderID)
	assert.Empty(t, stored.PaymentMethod)
}

func TestInitiate_GatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	r, svc := newPaymentEnv(t, srv.URL)

	userID := uuid.New()
	order := &models.Order{UserID: userID, TotalAmount: dec("100")}
	seedOrder(t, r, order)

	_, err := svc.Initiate(context.Background(), userID, transport.InitiatePaymentRequest{
		OrderID: order.ID,
		Amount:  dec("100"),
	})
	assert.ErrorIs(t, err, paytm.ErrGatewayUnreachable)
}

func TestInitiate_OtherUsersOrderLooksAbsent(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("100")}
	seedOrder(t, r, order)

	_, err := svc.Initiate(context.Background(), uuid.New(), transport.InitiatePaymentRequest{
		OrderID: order.ID,
		Amount:  dec("100"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInitiate_ReInitiateOverwritesBinding(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	userID := uuid.New()
	order := &models.Order{UserID: userID, TotalAmount: dec("100")}
	seedOrder(t, r, order)

	first, err := svc.Initiate(context.Background(), userID, transport.InitiatePaymentRequest{OrderID: order.ID, Amount: dec("100")})
	require.NoError(t, err)
	second, err := svc.Initiate(context.Background(), userID, transport.InitiatePaymentRequest{OrderID: order.ID, Amount: dec("100")})
	require.NoError(t, err)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, second.OrderID, stored.PaytmOrderID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
}

func TestHandleCallback_SuccessSettlesOrder(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_1", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	result := svc.HandleCallback(context.Background(), signedCallback("FRUNKO_abc_1", "TXN-1", paytm.TxnSuccess))
	assert.True(t, result.Success)
	assert.Equal(t, "TXN-1", result.TxnID)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "TXN-1", stored.PaytmTxnID)
	require.NotNil(t, stored.PaidAt)
}

func TestHandleCallback_ForgedChecksumChangesNothing(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_2", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	cb := signedCallback("FRUNKO_abc_2", "TXN-EVIL", paytm.TxnSuccess)
	cb.TxnAmount = "0.01" // tampered after signing

	result := svc.HandleCallback(context.Background(), cb)
	assert.False(t, result.Success)

	// the row must be byte-for-byte untouched, not merely "not paid"
	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.PaytmTxnID)
	assert.Nil(t, stored.PaidAt)
}

func TestHandleCallback_UnsignedPayloadChangesNothing(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_6", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	// a bare form post with a known gateway order id and no checksum at all
	result := svc.HandleCallback(context.Background(), transport.PaytmCallback{
		OrderID: "FRUNKO_abc_6",
		TxnID:   "TXN-FORGED",
		Status:  "TXN_FAILURE",
	})
	assert.False(t, result.Success)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.PaytmTxnID)
}

func TestHandleCallback_ReplayIsIdempotent(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_3", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	cb := signedCallback("FRUNKO_abc_3", "TXN-3", paytm.TxnSuccess)
	first := svc.HandleCallback(context.Background(), cb)
	require.True(t, first.Success)

	afterFirst, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, afterFirst.PaidAt)

	replay := svc.HandleCallback(context.Background(), cb)
	assert.True(t, replay.Success)

	afterReplay, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, afterReplay.PaymentStatus)
	assert.Equal(t, afterFirst.PaytmTxnID, afterReplay.PaytmTxnID)
	require.NotNil(t, afterReplay.PaidAt)
	assert.True(t, afterFirst.PaidAt.Equal(*afterReplay.PaidAt), "paid_at must not move on replay")
}

func TestHandleCallback_FailureSettlesOrder(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_4", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	result := svc.HandleCallback(context.Background(), signedCallback("FRUNKO_abc_4", "TXN-4", "TXN_FAILURE"))
	assert.False(t, result.Success)

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)
}

func TestHandleCallback_FailureAfterPaidIsIgnored(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)

	order := &models.Order{UserID: uuid.New(), TotalAmount: dec("950"), PaytmOrderID: "FRUNKO_abc_5", PaymentMethod: "paytm"}
	seedOrder(t, r, order)

	svc.HandleCallback(context.Background(), signedCallback("FRUNKO_abc_5", "TXN-5", paytm.TxnSuccess))
	svc.HandleCallback(context.Background(), signedCallback("FRUNKO_abc_5", "TXN-LATE", "TXN_FAILURE"))

	stored, err := r.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "TXN-5", stored.PaytmTxnID)
}

func TestHandleCallback_UnknownGatewayOrderStillAnswers(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	_, svc := newPaymentEnv(t, srv.URL)

	result := svc.HandleCallback(context.Background(), signedCallback("FRUNKO_ghost_1", "TXN-X", paytm.TxnSuccess))
	assert.True(t, result.Success, "verified verdict is reported even with no matching order")
}

// Full checkout: validate coupon, place the discounted order, initiate payment,
// receive the signed gateway callback.
func TestCheckoutFlow(t *testing.T) {
	srv := newFakeGateway(t, tokenResponse)
	r, svc := newPaymentEnv(t, srv.URL)
	coupons := &CouponService{Repo: r}
	orders := &OrderService{Repo: r, Coupons: coupons}

	seedCoupon(t, r, models.Coupon{
		Code:          "FRUNKO5",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: dec("5"),
		IsActive:      true,
	})

	ctx := context.Background()
	validation, err := coupons.Validate(ctx, "FRUNKO5", dec("1000"))
	require.NoError(t, err)
	require.Equal(t, "950.00", validation.FinalAmount.StringFixed(2))

	userID := uuid.New()
	order, err := orders.CreateOrder(ctx, userID, transport.CreateOrderRequest{
		Items:          []transport.CreateOrderItem{{Name: "thali", Quantity: 2, Price: dec("500")}},
		TotalAmount:    validation.FinalAmount,
		CouponCode:     "FRUNKO5",
		DiscountAmount: validation.Discount,
	})
	require.NoError(t, err)

	initiated, err := svc.Initiate(ctx, userID, transport.InitiatePaymentRequest{
		OrderID: order.ID,
		Amount:  validation.FinalAmount,
	})
	require.NoError(t, err)

	result := svc.HandleCallback(ctx, signedCallback(initiated.OrderID, "TXN-E2E", paytm.TxnSuccess))
	require.True(t, result.Success)

	settled, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, settled.PaymentStatus)
	assert.Equal(t, "TXN-E2E", settled.PaytmTxnID)
	assert.NotNil(t, settled.PaidAt)
	assert.Equal(t, "FRUNKO5", settled.CouponCode)

	var coupon models.Coupon
	require.NoError(t, r.DB.Where("code = ?", "FRUNKO5").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)
}
