package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// VNPayConfig holds the merchant credentials and endpoints issued by
// VNPay.  PayURL is the hosted payment page, APIURL the merchant API used
// for refunds.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	APIURL     string
}

// VNPay implements Adapter for VNPay's redirect flow: Initiate builds a
// signed payment URL the client is redirected to, the provider calls back
// with signed query parameters, and refunds go through the merchant API.
// All request parameters are signed with HMAC-SHA512 over the sorted,
// URL-encoded parameter string per VNPay's checksum rules.
type VNPay struct {
	cfg    VNPayConfig
	client *http.Client
	now    func() time.Time
}

// NewVNPay returns a VNPay adapter.  The client's timeout bounds every
// outbound call; a timed-out initiation is a failure, never an assumed
// success.
func NewVNPay(cfg VNPayConfig, client *http.Client) *VNPay {
	return &VNPay{cfg: cfg, client: client, now: time.Now}
}

// Code returns the method code this adapter is registered under.
func (v *VNPay) Code() string { return MethodVNPay }

// Initiate builds the signed redirect URL.  VNPay expresses amounts in
// hundredths, hence the *100.  No network round trip is needed for the
// redirect flow, so initiation cannot fail once the parameters are built.
func (v *VNPay) Initiate(_ context.Context, req InitiateRequest) (*InitiateResult, error) {
	now := v.now().UTC()
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", v.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.AmountCents*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", req.MerchantRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_ReturnUrl", req.ReturnURL)
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_CreateDate", now.Format("20060102150405"))
	params.Set("vnp_ExpireDate", now.Add(15*time.Minute).Format("20060102150405"))
	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}
	params.Set("vnp_Locale", locale)

	signed := signVNPay(params, v.cfg.HashSecret)
	params.Set("vnp_SecureHash", signed)
	return &InitiateResult{PaymentURL: v.cfg.PayURL + "?" + params.Encode()}, nil
}

// Verify checks the callback signature and reads the outcome.  Response
// code "00" means the customer paid; any other verified code is a failed
// or abandoned payment.
func (v *VNPay) Verify(params url.Values) (*CallbackResult, error) {
	got := params.Get("vnp_SecureHash")
	if got == "" {
		return nil, ErrSignatureMismatch
	}
	clean := url.Values{}
	for k, vs := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" || len(vs) == 0 {
			continue
		}
		clean[k] = vs
	}
	want := signVNPay(clean, v.cfg.HashSecret)
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return nil, ErrSignatureMismatch
	}
	amount, _ := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	code := params.Get("vnp_ResponseCode")
	return &CallbackResult{
		MerchantRef:  params.Get("vnp_TxnRef"),
		GatewayTxnNo: params.Get("vnp_TransactionNo"),
		AmountCents:  amount / 100,
		ResponseCode: code,
		Success:      code == "00",
	}, nil
}

// Refund posts a refund command to the merchant API and treats anything
// but RspCode "00" as a gateway failure.
func (v *VNPay) Refund(ctx context.Context, req RefundRequest) error {
	now := v.now().UTC()
	requestID := fmt.Sprintf("%s-rf-%d", req.MerchantRef, now.UnixNano())
	body := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         "2.1.0",
		"vnp_Command":         "refund",
		"vnp_TmnCode":         v.cfg.TmnCode,
		"vnp_TransactionType": "02",
		"vnp_TxnRef":          req.MerchantRef,
		"vnp_Amount":          strconv.FormatInt(req.AmountCents*100, 10),
		"vnp_TransactionNo":   req.GatewayTxnNo,
		"vnp_OrderInfo":       req.Reason,
		"vnp_CreateDate":      now.Format("20060102150405"),
	}
	// Refund checksum is computed over the pipe-joined field values.
	raw := strings.Join([]string{
		body["vnp_RequestId"], body["vnp_Version"], body["vnp_Command"], body["vnp_TmnCode"],
		body["vnp_TransactionType"], body["vnp_TxnRef"], body["vnp_Amount"],
		body["vnp_TransactionNo"], body["vnp_CreateDate"], body["vnp_OrderInfo"],
	}, "|")
	body["vnp_SecureHash"] = hmacSHA512Hex(v.cfg.HashSecret, raw)

	var resp struct {
		RspCode string `json:"vnp_ResponseCode"`
		Message string `json:"vnp_Message"`
	}
	if err := postJSON(ctx, v.client, v.cfg.APIURL, body, &resp); err != nil {
		return &GatewayError{Provider: MethodVNPay, Op: "refund", Err: err}
	}
	if resp.RspCode != "00" {
		return &GatewayError{Provider: MethodVNPay, Op: "refund",
			Err: fmt.Errorf("response code %s: %s", resp.RspCode, resp.Message)}
	}
	return nil
}

// signVNPay produces the lowercase hex HMAC-SHA512 over the sorted,
// URL-encoded parameters, the same canonical form VNPay signs.
func signVNPay(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return hmacSHA512Hex(secret, b.String())
}

func hmacSHA512Hex(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// postJSON sends a JSON POST and decodes the JSON response.  Any
// transport error, non-2xx status or undecodable body is returned as-is
// for the caller to wrap.
func postJSON(ctx context.Context, client *http.Client, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
