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

func testZaloPay(endpoint string, client *http.Client) *ZaloPay {
	z := NewZaloPay(ZaloPayConfig{
		AppID:    "2553",
		Key1:     "zalo-key-one",
		Key2:     "zalo-key-two",
		Endpoint: endpoint,
	}, client)
	z.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return z
}

func TestZaloPay_VerifyRecoversMerchantRef(t *testing.T) {
	z := testZaloPay("", nil)

	data := `{"app_trans_id":"250314_ORD-abc","zp_trans_id":240331000000123,"amount":450000}`
	params := url.Values{}
	params.Set("data", data)
	params.Set("mac", hmacSHA256Hex("zalo-key-two", data))

	res, err := z.Verify(params)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "ORD-abc", res.MerchantRef)
	assert.Equal(t, "240331000000123", res.GatewayTxnNo)
	assert.Equal(t, int64(450000), res.AmountCents)
}

func TestZaloPay_VerifyRejectsWrongKey(t *testing.T) {
	z := testZaloPay("", nil)

	data := `{"app_trans_id":"250314_ORD-abc","zp_trans_id":1,"amount":450000}`
	params := url.Values{}
	params.Set("data", data)
	// Signed with key1: outbound key, never valid for callbacks.
	params.Set("mac", hmacSHA256Hex("zalo-key-one", data))

	_, err := z.Verify(params)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestZaloPay_VerifyRejectsMissingFields(t *testing.T) {
	z := testZaloPay("", nil)

	_, err := z.Verify(url.Values{"data": {"{}"}})
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = z.Verify(url.Values{"mac": {"deadbeef"}})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestZaloPay_InitiatePrefixesTransID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/create", r.URL.Path)
		w.Write([]byte(`{"return_code":1,"return_message":"success","order_url":"https://qr.zalopay.vn/abc"}`))
	}))
	defer srv.Close()

	z := testZaloPay(srv.URL, srv.Client())
	res, err := z.Initiate(context.Background(), InitiateRequest{
		MerchantRef: "ORD-abc",
		AmountCents: 450000,
		OrderInfo:   "3 seats on trip 7",
		ReturnURL:   "https://shop.test/return",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://qr.zalopay.vn/abc", res.PaymentURL)
	assert.Equal(t, "250314_ORD-abc", res.GatewayRef)
}

func TestZaloPay_InitiateRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"return_code":2,"return_message":"invalid mac"}`))
	}))
	defer srv.Close()

	z := testZaloPay(srv.URL, srv.Client())
	_, err := z.Initiate(context.Background(), InitiateRequest{MerchantRef: "ORD-abc"})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, MethodZaloPay, gwErr.Provider)
}

func TestZaloPay_RefundAcceptsAsyncProcessing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/refund", r.URL.Path)
		w.Write([]byte(`{"return_code":3,"return_message":"processing"}`))
	}))
	defer srv.Close()

	z := testZaloPay(srv.URL, srv.Client())
	err := z.Refund(context.Background(), RefundRequest{
		GatewayTxnNo: "240331000000123",
		AmountCents:  150000,
		Reason:       "customer request",
	})
	assert.NoError(t, err)
}

func TestZaloPay_RefundRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"return_code":2,"return_message":"refund failed"}`))
	}))
	defer srv.Close()

	z := testZaloPay(srv.URL, srv.Client())
	err := z.Refund(context.Background(), RefundRequest{GatewayTxnNo: "1"})

	var gwErr *GatewayError
	assert.ErrorAs(t, err, &gwErr)
}
