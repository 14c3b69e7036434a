package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	Version        = "2.1.0"
	CommandPay     = "pay"
	CurrencyVND    = "VND"
	OrderTypeOther = "other"
	DefaultLocale  = "vn"

	// AmountScale 网关金额单位为 VND 的 1/100
	AmountScale = 100

	ResponseCodeSuccess = "00"

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
	ParamTxnRef         = "vnp_TxnRef"
	ParamResponseCode   = "vnp_ResponseCode"

	dateLayout = "20060102150405"
)

// GatewayZone 网关时间戳使用 GMT+7
var GatewayZone = time.FixedZone("GMT+7", 7*60*60)

var (
	ErrMissingSignature  = errors.New("vnpay: missing secure hash")
	ErrSignatureMismatch = errors.New("vnpay: secure hash mismatch")
	ErrInvalidRequest    = errors.New("vnpay: invalid payment request")
)

// Config 商户配置
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Locale     string
}

// PaymentRequest 一次支付跳转所需的业务参数
type PaymentRequest struct {
	TxnRef    string
	Amount    int64 // 整数 VND，发送前乘以 AmountScale
	OrderInfo string
	IPAddr    string
	CreatedAt time.Time
	ExpireAt  time.Time
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	return &Client{cfg: cfg}
}

// Params 组装未签名的网关参数
func (c *Client) Params(req PaymentRequest) (map[string]string, error) {
	if req.TxnRef == "" || req.Amount <= 0 {
		return nil, ErrInvalidRequest
	}
	ip := req.IPAddr
	if ip == "" {
		ip = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_Version":    Version,
		"vnp_Command":    CommandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Locale":     c.cfg.Locale,
		"vnp_CurrCode":   CurrencyVND,
		ParamTxnRef:      req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  OrderTypeOther,
		"vnp_Amount":     strconv.FormatInt(req.Amount*AmountScale, 10),
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": FormatDate(req.CreatedAt),
	}
	if !req.ExpireAt.IsZero() {
		params["vnp_ExpireDate"] = FormatDate(req.ExpireAt)
	}
	return params, nil
}

// BuildPaymentURL 生成带签名的跳转地址
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	params, err := c.Params(req)
	if err != nil {
		return "", err
	}

	canonical := Canonicalize(params)
	return c.cfg.PayURL + "?" + canonical + "&" + ParamSecureHash + "=" + Sign(c.cfg.HashSecret, canonical), nil
}

// Verify 校验回调参数签名。params 中的签名字段不参与计算。
func (c *Client) Verify(params map[string]string) error {
	provided := strings.TrimSpace(params[ParamSecureHash])
	if provided == "" {
		return ErrMissingSignature
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		signed[k] = v
	}

	decoded, err := hex.DecodeString(strings.ToLower(provided))
	if err != nil {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(Canonicalize(signed)))
	if !hmac.Equal(mac.Sum(nil), decoded) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign HMAC-SHA512，小写十六进制
func Sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Canonicalize 按编码后的键排序，值按 encodeURIComponent 规则编码且空格写作 "+"，
// 以 k=v&k=v 拼接。签名串与跳转地址的查询串相同。
func Canonicalize(params map[string]string) string {
	type pair struct{ key, value string }
	pairs := make([]pair, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, pair{key: encodeComponent(k), value: encodeComponent(v)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	return b.String()
}

// ParamsFromQuery 每个键取第一个值
func ParamsFromQuery(query url.Values) map[string]string {
	params := make(map[string]string, len(query))
	for k, values := range query {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}
	return params
}

// FormatDate yyyyMMddHHmmss，GMT+7
func FormatDate(t time.Time) string {
	return t.In(GatewayZone).Format(dateLayout)
}

const upperHex = "0123456789ABCDEF"

func encodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case isUnreserved(ch):
			b.WriteByte(ch)
		case ch == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[ch>>4])
			b.WriteByte(upperHex[ch&0x0f])
		}
	}
	return b.String()
}

func isUnreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
