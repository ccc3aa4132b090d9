package gateway

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ZaloPayConfig holds the application credentials issued by ZaloPay.
// Key1 signs outbound requests, Key2 verifies inbound callbacks.
type ZaloPayConfig struct {
	AppID    string
	Key1     string
	Key2     string
	Endpoint string
}

// ZaloPay implements Adapter for ZaloPay's app-to-app flow.  Create
// requests carry an HMAC-SHA256 mac over pipe-joined fields signed with
// key1; the callback delivers a JSON `data` blob whose mac is computed
// with key2.
type ZaloPay struct {
	cfg    ZaloPayConfig
	client *http.Client
	now    func() time.Time
}

// NewZaloPay returns a ZaloPay adapter bound to the given HTTP client.
func NewZaloPay(cfg ZaloPayConfig, client *http.Client) *ZaloPay {
	return &ZaloPay{cfg: cfg, client: client, now: time.Now}
}

// Code returns the method code this adapter is registered under.
func (z *ZaloPay) Code() string { return MethodZaloPay }

// Initiate posts a create-order request.  ZaloPay requires the
// app_trans_id to be prefixed with the yymmdd of the creation date.
func (z *ZaloPay) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	now := z.now()
	appTransID := now.Format("060102") + "_" + req.MerchantRef
	appTime := strconv.FormatInt(now.UnixMilli(), 10)
	amount := strconv.FormatInt(req.AmountCents, 10)
	embed, _ := json.Marshal(map[string]string{"redirecturl": req.ReturnURL})

	raw := z.cfg.AppID + "|" + appTransID + "|" + "guest" + "|" + amount + "|" + appTime + "|" + string(embed) + "|[]"
	body := map[string]any{
		"app_id":       z.cfg.AppID,
		"app_trans_id": appTransID,
		"app_user":     "guest",
		"app_time":     now.UnixMilli(),
		"amount":       req.AmountCents,
		"description":  req.OrderInfo,
		"embed_data":   string(embed),
		"item":         "[]",
		"mac":          hmacSHA256Hex(z.cfg.Key1, raw),
	}
	var resp struct {
		ReturnCode    int    `json:"return_code"`
		ReturnMessage string `json:"return_message"`
		OrderURL      string `json:"order_url"`
		ZpTransToken  string `json:"zp_trans_token"`
	}
	if err := postJSON(ctx, z.client, z.cfg.Endpoint+"/v2/create", body, &resp); err != nil {
		return nil, &GatewayError{Provider: MethodZaloPay, Op: "initiate", Err: err}
	}
	if resp.ReturnCode != 1 {
		return nil, &GatewayError{Provider: MethodZaloPay, Op: "initiate",
			Err: fmt.Errorf("return code %d: %s", resp.ReturnCode, resp.ReturnMessage)}
	}
	return &InitiateResult{PaymentURL: resp.OrderURL, GatewayRef: appTransID}, nil
}

// Verify checks the callback mac (key2 over the raw data blob) and parses
// the embedded transaction data.  ZaloPay only delivers callbacks for
// successful payments, so a verified callback is always a success.
func (z *ZaloPay) Verify(params url.Values) (*CallbackResult, error) {
	data := params.Get("data")
	got := params.Get("mac")
	if data == "" || got == "" {
		return nil, ErrSignatureMismatch
	}
	want := hmacSHA256Hex(z.cfg.Key2, data)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return nil, ErrSignatureMismatch
	}
	var payload struct {
		AppTransID string `json:"app_trans_id"`
		ZpTransID  int64  `json:"zp_trans_id"`
		Amount     int64  `json:"amount"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, &GatewayError{Provider: MethodZaloPay, Op: "verify", Err: err}
	}
	// Strip the yymmdd_ prefix to recover the merchant reference.
	ref := payload.AppTransID
	if i := len("060102_"); len(ref) > i {
		ref = ref[i:]
	}
	return &CallbackResult{
		MerchantRef:  ref,
		GatewayTxnNo: strconv.FormatInt(payload.ZpTransID, 10),
		AmountCents:  payload.Amount,
		ResponseCode: "1",
		Success:      true,
	}, nil
}

// Refund posts a signed refund request for the ZaloPay transaction.
func (z *ZaloPay) Refund(ctx context.Context, req RefundRequest) error {
	now := z.now()
	mRefundID := now.Format("060102") + "_" + z.cfg.AppID + "_" + strconv.FormatInt(now.UnixNano(), 10)
	timestamp := strconv.FormatInt(now.UnixMilli(), 10)
	amount := strconv.FormatInt(req.AmountCents, 10)
	raw := z.cfg.AppID + "|" + req.GatewayTxnNo + "|" + amount + "|" + req.Reason + "|" + timestamp

	body := map[string]any{
		"app_id":      z.cfg.AppID,
		"m_refund_id": mRefundID,
		"zp_trans_id": req.GatewayTxnNo,
		"amount":      req.AmountCents,
		"timestamp":   now.UnixMilli(),
		"description": req.Reason,
		"mac":         hmacSHA256Hex(z.cfg.Key1, raw),
	}
	var resp struct {
		ReturnCode    int    `json:"return_code"`
		ReturnMessage string `json:"return_message"`
	}
	if err := postJSON(ctx, z.client, z.cfg.Endpoint+"/v2/refund", body, &resp); err != nil {
		return &GatewayError{Provider: MethodZaloPay, Op: "refund", Err: err}
	}
	// return_code 1 = success, 3 = processing; both accepted here because
	// ZaloPay finalizes some refunds asynchronously.
	if resp.ReturnCode != 1 && resp.ReturnCode != 3 {
		return &GatewayError{Provider: MethodZaloPay, Op: "refund",
			Err: fmt.Errorf("return code %d: %s", resp.ReturnCode, resp.ReturnMessage)}
	}
	return nil
}
