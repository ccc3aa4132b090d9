package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMoMo(endpoint string, client *http.Client) *MoMo {
	m := NewMoMo(MoMoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access-key",
		SecretKey:   "momo-test-secret",
		Endpoint:    endpoint,
		IPNURL:      "https://shop.test/ipn",
	}, client)
	m.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return m
}

func momoIPNParams(m *MoMo, resultCode string) url.Values {
	params := url.Values{}
	params.Set("partnerCode", m.cfg.PartnerCode)
	params.Set("orderId", "ORD-abc")
	params.Set("requestId", "ORD-abc-1")
	params.Set("amount", "450000")
	params.Set("orderInfo", "3 seats on trip 7")
	params.Set("orderType", "momo_wallet")
	params.Set("transId", "987654321")
	params.Set("resultCode", resultCode)
	params.Set("message", "Successful.")
	params.Set("payType", "qr")
	params.Set("responseTime", "1741944600000")
	params.Set("extraData", "")

	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		m.cfg.AccessKey, params.Get("amount"), params.Get("extraData"), params.Get("message"),
		params.Get("orderId"), params.Get("orderInfo"), params.Get("orderType"),
		params.Get("partnerCode"), params.Get("payType"), params.Get("requestId"),
		params.Get("responseTime"), params.Get("resultCode"), params.Get("transId"))
	params.Set("signature", hmacSHA256Hex(m.cfg.SecretKey, raw))
	return params
}

func TestMoMo_VerifySuccessfulCapture(t *testing.T) {
	m := testMoMo("", nil)

	res, err := m.Verify(momoIPNParams(m, "0"))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "ORD-abc", res.MerchantRef)
	assert.Equal(t, "987654321", res.GatewayTxnNo)
	assert.Equal(t, int64(450000), res.AmountCents)
}

func TestMoMo_VerifyFailedPayment(t *testing.T) {
	m := testMoMo("", nil)

	res, err := m.Verify(momoIPNParams(m, "1006"))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "1006", res.ResponseCode)
}

func TestMoMo_VerifyRejectsTamperedPayload(t *testing.T) {
	m := testMoMo("", nil)

	params := momoIPNParams(m, "0")
	params.Set("amount", "1")

	_, err := m.Verify(params)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestMoMo_VerifyRejectsMissingSignature(t *testing.T) {
	m := testMoMo("", nil)

	_, err := m.Verify(url.Values{"orderId": {"ORD-abc"}})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestMoMo_InitiateReturnsPayURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/gateway/api/create", r.URL.Path)
		w.Write([]byte(`{"payUrl":"https://pay.momo.vn/abc","resultCode":0,"message":"Success"}`))
	}))
	defer srv.Close()

	m := testMoMo(srv.URL, srv.Client())
	res, err := m.Initiate(context.Background(), InitiateRequest{
		MerchantRef: "ORD-abc",
		AmountCents: 450000,
		OrderInfo:   "3 seats on trip 7",
		ReturnURL:   "https://shop.test/return",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.momo.vn/abc", res.PaymentURL)
	assert.NotEmpty(t, res.GatewayRef)
}

func TestMoMo_InitiateRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultCode":41,"message":"Duplicate orderId"}`))
	}))
	defer srv.Close()

	m := testMoMo(srv.URL, srv.Client())
	_, err := m.Initiate(context.Background(), InitiateRequest{MerchantRef: "ORD-abc"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, MethodMoMo, gwErr.Provider)
	assert.Equal(t, "initiate", gwErr.Op)
}

func TestMoMo_RefundSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/gateway/api/refund", r.URL.Path)
		w.Write([]byte(`{"resultCode":0,"message":"Success"}`))
	}))
	defer srv.Close()

	m := testMoMo(srv.URL, srv.Client())
	err := m.Refund(context.Background(), RefundRequest{
		MerchantRef:  "ORD-abc",
		GatewayTxnNo: "987654321",
		AmountCents:  150000,
		Reason:       "customer request",
	})
	assert.NoError(t, err)
}
