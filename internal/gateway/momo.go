package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MoMoConfig holds the partner credentials issued by MoMo.  Endpoint is
// the base of the payment API (create/refund live under it).
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	IPNURL      string
}

// MoMo implements Adapter for MoMo's wallet flow: Initiate posts a signed
// create request and returns the payUrl, the IPN callback carries an
// HMAC-SHA256 signature over a canonical key=value string, and refunds
// post to the refund endpoint.
type MoMo struct {
	cfg    MoMoConfig
	client *http.Client
	now    func() time.Time
}

// NewMoMo returns a MoMo adapter bound to the given HTTP client.
func NewMoMo(cfg MoMoConfig, client *http.Client) *MoMo {
	return &MoMo{cfg: cfg, client: client, now: time.Now}
}

// Code returns the method code this adapter is registered under.
func (m *MoMo) Code() string { return MethodMoMo }

// Initiate posts the signed create-payment request.  A non-zero
// resultCode or transport failure is a GatewayError; the settlement
// service rolls the whole order back on it.
func (m *MoMo) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	requestID := req.MerchantRef + "-" + strconv.FormatInt(m.now().UnixMilli(), 10)
	amount := strconv.FormatInt(req.AmountCents, 10)
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=captureWallet",
		m.cfg.AccessKey, amount, m.cfg.IPNURL, req.MerchantRef, req.OrderInfo,
		m.cfg.PartnerCode, req.ReturnURL, requestID)

	body := map[string]any{
		"partnerCode": m.cfg.PartnerCode,
		"requestId":   requestID,
		"amount":      req.AmountCents,
		"orderId":     req.MerchantRef,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": req.ReturnURL,
		"ipnUrl":      m.cfg.IPNURL,
		"requestType": "captureWallet",
		"extraData":   "",
		"lang":        "vi",
		"signature":   hmacSHA256Hex(m.cfg.SecretKey, raw),
	}
	var resp struct {
		PayURL     string `json:"payUrl"`
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := postJSON(ctx, m.client, m.cfg.Endpoint+"/v2/gateway/api/create", body, &resp); err != nil {
		return nil, &GatewayError{Provider: MethodMoMo, Op: "initiate", Err: err}
	}
	if resp.ResultCode != 0 {
		return nil, &GatewayError{Provider: MethodMoMo, Op: "initiate",
			Err: fmt.Errorf("result code %d: %s", resp.ResultCode, resp.Message)}
	}
	return &InitiateResult{PaymentURL: resp.PayURL, GatewayRef: requestID}, nil
}

// Verify checks the IPN signature over MoMo's canonical parameter string.
// resultCode "0" is a successful capture; other verified codes mean the
// customer failed or cancelled payment.
func (m *MoMo) Verify(params url.Values) (*CallbackResult, error) {
	got := params.Get("signature")
	if got == "" {
		return nil, ErrSignatureMismatch
	}
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		m.cfg.AccessKey, params.Get("amount"), params.Get("extraData"), params.Get("message"),
		params.Get("orderId"), params.Get("orderInfo"), params.Get("orderType"),
		params.Get("partnerCode"), params.Get("payType"), params.Get("requestId"),
		params.Get("responseTime"), params.Get("resultCode"), params.Get("transId"))
	want := hmacSHA256Hex(m.cfg.SecretKey, raw)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return nil, ErrSignatureMismatch
	}
	amount, _ := strconv.ParseInt(params.Get("amount"), 10, 64)
	code := params.Get("resultCode")
	return &CallbackResult{
		MerchantRef:  params.Get("orderId"),
		GatewayTxnNo: params.Get("transId"),
		AmountCents:  amount,
		ResponseCode: code,
		Success:      code == "0",
	}, nil
}

// Refund posts a signed refund request against the captured transaction.
func (m *MoMo) Refund(ctx context.Context, req RefundRequest) error {
	requestID := req.MerchantRef + "-rf-" + strconv.FormatInt(m.now().UnixMilli(), 10)
	amount := strconv.FormatInt(req.AmountCents, 10)
	raw := fmt.Sprintf("accessKey=%s&amount=%s&description=%s&orderId=%s&partnerCode=%s&requestId=%s&transId=%s",
		m.cfg.AccessKey, amount, req.Reason, requestID, m.cfg.PartnerCode, requestID, req.GatewayTxnNo)

	body := map[string]any{
		"partnerCode": m.cfg.PartnerCode,
		"orderId":     requestID,
		"requestId":   requestID,
		"amount":      req.AmountCents,
		"transId":     req.GatewayTxnNo,
		"lang":        "vi",
		"description": req.Reason,
		"signature":   hmacSHA256Hex(m.cfg.SecretKey, raw),
	}
	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
	}
	if err := postJSON(ctx, m.client, m.cfg.Endpoint+"/v2/gateway/api/refund", body, &resp); err != nil {
		return &GatewayError{Provider: MethodMoMo, Op: "refund", Err: err}
	}
	if resp.ResultCode != 0 {
		return &GatewayError{Provider: MethodMoMo, Op: "refund",
			Err: fmt.Errorf("result code %d: %s", resp.ResultCode, resp.Message)}
	}
	return nil
}

func hmacSHA256Hex(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
