package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kamaujm/tikiti/config"
	"github.com/shopspring/decimal"
)

// AuthError means the client-credentials exchange with the gateway failed.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mpesa: authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// RequestError means the gateway received the STK push request and rejected
// it immediately (non-zero ResponseCode).
type RequestError struct {
	ResponseCode string
	Description  string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("mpesa: push rejected (code %s): %s", e.ResponseCode, e.Description)
}

type Client struct {
	httpClient *http.Client
	cfg        *config.MpesaConfig
	now        func() time.Time
}

func NewClient(cfg *config.MpesaConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		now:        time.Now,
	}
}

type STKPushResponse struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseDesc      string `json:"ResponseDescription"`
	CustomerMessage   string `json:"CustomerMessage"`
}

// Authenticate exchanges the consumer key/secret for a short-lived bearer
// token. Tokens are not cached; callers authenticate per request.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	url := c.cfg.OAuthBaseURL + "/oauth/v1/generate?grant_type=client_credentials"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to create auth request: %w", err)
	}

	auth := c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa: auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mpesa: failed to read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "malformed token response"}
	}
	if tokenResp.AccessToken == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "empty access token"}
	}

	return tokenResp.AccessToken, nil
}

// InitiateSTKPush submits a push request to the payer's phone and returns the
// gateway's acceptance, including the CheckoutRequestID used to reconcile the
// asynchronous result.
func (c *Client) InitiateSTKPush(ctx context.Context, amount decimal.Decimal, phone, accountReference, description string) (*STKPushResponse, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	formattedPhone := FormatPhoneNumber(phone)
	timestamp := c.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))

	requestBody := map[string]interface{}{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount.IntPart(),
		"PartyA":            formattedPhone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       formattedPhone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  accountReference,
		"TransactionDesc":   description,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to marshal push request: %w", err)
	}

	url := c.cfg.APIBaseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to create push request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mpesa: push request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mpesa: failed to read push response: %w", err)
	}

	var pushResp STKPushResponse
	if err := json.Unmarshal(body, &pushResp); err != nil {
		return nil, fmt.Errorf("mpesa: failed to parse push response: %w", err)
	}

	if pushResp.ResponseCode != "0" {
		desc := pushResp.ResponseDesc
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		return nil, &RequestError{ResponseCode: pushResp.ResponseCode, Description: desc}
	}

	return &pushResp, nil
}

// FormatPhoneNumber normalizes a Kenyan phone number to the gateway's
// 254XXXXXXXXX format: non-digits are stripped, a single leading zero is
// dropped and the country code is prefixed when absent.
func FormatPhoneNumber(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	formatted := digits.String()
	if strings.HasPrefix(formatted, "0") {
		formatted = formatted[1:]
	}
	if !strings.HasPrefix(formatted, "254") {
		formatted = "254" + formatted
	}

	return formatted
}
