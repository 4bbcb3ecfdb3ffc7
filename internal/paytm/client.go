package paytm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// TxnSuccess is the status value the gateway sends for a settled payment.
	TxnSuccess = "TXN_SUCCESS"

	// The gateway does not document a client timeout; 10s keeps a stuck
	// initiateTransaction call from holding the checkout request forever.
	requestTimeout = 10 * time.Second
)

var (
	ErrGatewayUnreachable = errors.New("gateway unreachable")
	ErrGatewayRejected    = errors.New("gateway rejected")
)

// Config carries the per-deployment merchant credentials. It is injected into
// every component that talks to the gateway; nothing reads it from globals.
type Config struct {
	MerchantID  string
	MerchantKey string
	Website     string
	GatewayURL  string
	CallbackURL string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Config() Config { return c.cfg }

type initiateRequest struct {
	Body map[string]string `json:"body"`
	Head struct {
		Signature string `json:"signature"`
	} `json:"head"`
}

type initiateResponse struct {
	Body struct {
		ResultInfo struct {
			ResultStatus string `json:"resultStatus"`
			ResultMsg    string `json:"resultMsg"`
		} `json:"resultInfo"`
		TxnToken string `json:"txnToken"`
	} `json:"body"`
}

// InitiateTransaction asks the gateway for a hosted-checkout transaction token.
// body must already contain the gateway order id, amount and customer fields;
// merchant id, website and callback URL are filled in here. Absent optional
// fields must simply be missing from body, never empty strings.
func (c *Client) InitiateTransaction(ctx context.Context, body map[string]string) (string, error) {
	// work on a copy: the caller's map stays as it was handed in
	params := make(map[string]string, len(body)+3)
	for k, v := range body {
		params[k] = v
	}
	params["MID"] = c.cfg.MerchantID
	params["WEBSITE"] = c.cfg.Website
	params["CALLBACK_URL"] = c.cfg.CallbackURL

	var req initiateRequest
	req.Body = params
	req.Head.Signature = Sign(params, c.cfg.MerchantKey)

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("paytm: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/theia/api/v1/initiateTransaction?mid=%s&orderId=%s", c.cfg.GatewayURL, c.cfg.MerchantID, params["ORDER_ID"])
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("paytm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGatewayUnreachable, err)
	}

	var out initiateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: malformed response", ErrGatewayRejected)
	}
	if out.Body.TxnToken == "" {
		msg := out.Body.ResultInfo.ResultMsg
		if msg == "" {
			msg = "no transaction token in response"
		}
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, msg)
	}

	return out.Body.TxnToken, nil
}
