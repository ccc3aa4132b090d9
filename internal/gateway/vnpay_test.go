package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVNPay(payURL, apiURL string, client *http.Client) *VNPay {
	v := NewVNPay(VNPayConfig{
		TmnCode:    "TESTTMN",
		HashSecret: "vnpay-test-secret",
		PayURL:     payURL,
		APIURL:     apiURL,
	}, client)
	v.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return v
}

func TestVNPay_InitiateBuildsSignedURL(t *testing.T) {
	v := testVNPay("https://pay.test/paymentv2", "", nil)

	res, err := v.Initiate(context.Background(), InitiateRequest{
		MerchantRef: "ORD-abc",
		AmountCents: 450000,
		OrderInfo:   "3 seats on trip 7",
		ReturnURL:   "https://shop.test/return",
		ClientIP:    "203.0.113.9",
	})
	require.NoError(t, err)

	u, err := url.Parse(res.PaymentURL)
	require.NoError(t, err)
	params := u.Query()

	// Amounts go out in hundredths.
	assert.Equal(t, "45000000", params.Get("vnp_Amount"))
	assert.Equal(t, "ORD-abc", params.Get("vnp_TxnRef"))
	assert.Equal(t, "vn", params.Get("vnp_Locale"))
	assert.NotEmpty(t, params.Get("vnp_SecureHash"))

	clean := url.Values{}
	for k, vs := range params {
		if k == "vnp_SecureHash" {
			continue
		}
		clean[k] = vs
	}
	assert.Equal(t, signVNPay(clean, "vnpay-test-secret"), params.Get("vnp_SecureHash"))
}

func TestVNPay_VerifyAcceptsItsOwnSignature(t *testing.T) {
	v := testVNPay("", "", nil)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD-abc")
	params.Set("vnp_Amount", "45000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionNo", "14421795")
	params.Set("vnp_SecureHash", signVNPay(params, "vnpay-test-secret"))

	res, err := v.Verify(params)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "ORD-abc", res.MerchantRef)
	assert.Equal(t, "14421795", res.GatewayTxnNo)
	assert.Equal(t, int64(450000), res.AmountCents)
}

func TestVNPay_VerifyFailedPaymentIsStillVerified(t *testing.T) {
	v := testVNPay("", "", nil)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD-abc")
	params.Set("vnp_Amount", "45000000")
	params.Set("vnp_ResponseCode", "24")
	params.Set("vnp_SecureHash", signVNPay(params, "vnpay-test-secret"))

	res, err := v.Verify(params)
	require.NoError(t, err)

	// Code 24 is the customer cancelling: a legitimate, signed failure.
	assert.False(t, res.Success)
	assert.Equal(t, "24", res.ResponseCode)
}

func TestVNPay_VerifyRejectsTamperedAmount(t *testing.T) {
	v := testVNPay("", "", nil)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD-abc")
	params.Set("vnp_Amount", "45000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_SecureHash", signVNPay(params, "vnpay-test-secret"))
	params.Set("vnp_Amount", "100")

	_, err := v.Verify(params)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVNPay_VerifyRejectsMissingSignature(t *testing.T) {
	v := testVNPay("", "", nil)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ORD-abc")

	_, err := v.Verify(params)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVNPay_RefundSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"vnp_ResponseCode":"00","vnp_Message":"Refund success"}`))
	}))
	defer srv.Close()

	v := testVNPay("", srv.URL, srv.Client())
	err := v.Refund(context.Background(), RefundRequest{
		MerchantRef:  "ORD-abc",
		GatewayTxnNo: "14421795",
		AmountCents:  150000,
		Reason:       "customer request",
	})
	assert.NoError(t, err)
}

func TestVNPay_RefundRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vnp_ResponseCode":"91","vnp_Message":"Transaction not found"}`))
	}))
	defer srv.Close()

	v := testVNPay("", srv.URL, srv.Client())
	err := v.Refund(context.Background(), RefundRequest{MerchantRef: "ORD-abc"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, MethodVNPay, gwErr.Provider)
	assert.Equal(t, "refund", gwErr.Op)
}

func TestVNPay_RefundUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := srv.Client()
	srv.Close()

	v := testVNPay("", srv.URL, client)
	err := v.Refund(context.Background(), RefundRequest{MerchantRef: "ORD-abc"})

	var gwErr *GatewayError
	assert.ErrorAs(t, err, &gwErr)
}
