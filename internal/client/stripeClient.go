package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"storefront-platform/internal/apperr"
	"storefront-platform/internal/config"
	"storefront-platform/internal/model"
)

type SessionLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CreateSessionParams struct {
	OrderID            string
	StoreID            string
	CustomerEmail      string
	LineItems          []SessionLineItem
	PlatformFee        int64
	DestinationAccount string
	SuccessURL         string
	CancelURL          string
}

type CreateSessionResponse struct {
	SessionID string
	URL       string
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params *CreateSessionParams) (*CreateSessionResponse, error)
	CreateExpressAccount(ctx context.Context, email string) (string, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	VerifyWebhookSignature(sigHeader string, body []byte) error
}

type stripeClientImpl struct {
	http          *resty.Client
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseApiURL).
		SetTimeout(15 * time.Second).
		SetBasicAuth(cfg.SecretKey, "").
		SetHeader("Content-Type", "application/x-www-form-urlencoded")

	return &stripeClientImpl{
		http:          httpClient,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     time.Duration(cfg.SignatureTolerance) * time.Second,
		now:           time.Now,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CreateSessionParams) (*CreateSessionResponse, error) {
	form := map[string]string{
		"mode":                    "payment",
		"payment_method_types[0]": "card",
		"customer_email":          params.CustomerEmail,
		"success_url":             params.SuccessURL,
		"cancel_url":              params.CancelURL,
		"metadata[orderId]":       params.OrderID,
		"metadata[storeId]":       params.StoreID,
	}
	form["payment_intent_data[application_fee_amount]"] = strconv.FormatInt(params.PlatformFee, 10)
	form["payment_intent_data[transfer_data][destination]"] = params.DestinationAccount
	form["payment_intent_data[metadata][orderId]"] = params.OrderID
	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form[prefix+"[price_data][currency]"] = "usd"
		form[prefix+"[price_data][product_data][name]"] = item.Name
		form[prefix+"[price_data][unit_amount]"] = strconv.FormatInt(item.UnitAmount, 10)
		form[prefix+"[quantity]"] = strconv.FormatInt(item.Quantity, 10)
	}

	var session model.CheckoutSessionObject
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternalProcessor, "create checkout session", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.KindExternalProcessor,
			fmt.Sprintf("create checkout session: status=%d body=%s", resp.StatusCode(), resp.String()))
	}

	return &CreateSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (c *stripeClientImpl) CreateExpressAccount(ctx context.Context, email string) (string, error) {
	form := map[string]string{
		"type":    "express",
		"country": "US",
		"email":   email,
	}
	form["capabilities[card_payments][requested]"] = "true"
	form["capabilities[transfers][requested]"] = "true"

	var account model.AccountObject
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&account).
		Post("/v1/accounts")
	if err != nil {
		return "", apperr.Wrap(apperr.KindExternalProcessor, "create express account", err)
	}
	if resp.IsError() {
		return "", apperr.New(apperr.KindExternalProcessor,
			fmt.Sprintf("create express account: status=%d body=%s", resp.StatusCode(), resp.String()))
	}

	return account.ID, nil
}

func (c *stripeClientImpl) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	form := map[string]string{
		"account":     accountID,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
		"type":        "account_onboarding",
	}

	var link model.AccountLinkObject
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&link).
		Post("/v1/account_links")
	if err != nil {
		return "", apperr.Wrap(apperr.KindExternalProcessor, "create account link", err)
	}
	if resp.IsError() {
		return "", apperr.New(apperr.KindExternalProcessor,
			fmt.Sprintf("create account link: status=%d body=%s", resp.StatusCode(), resp.String()))
	}

	return link.URL, nil
}

// VerifyWebhookSignature checks a "t=<unix>,v1=<hex>" header: the v1 value
// must be HMAC-SHA256(secret, "<t>.<body>") and t must be within the clock
// tolerance. Any failure means the event is not acted on.
func (c *stripeClientImpl) VerifyWebhookSignature(sigHeader string, body []byte) error {
	var ts int64
	var sigs []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return apperr.New(apperr.KindInvalidSignature, "malformed signature timestamp")
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return apperr.New(apperr.KindInvalidSignature, "missing signature header fields")
	}

	age := c.now().Sub(time.Unix(ts, 0))
	if age > c.tolerance || age < -c.tolerance {
		return apperr.New(apperr.KindInvalidSignature, "signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return apperr.New(apperr.KindInvalidSignature, "signature mismatch")
}

// SignPayload builds a valid signature header for body; test helper for
// exercising the webhook path end to end.
func SignPayload(secret string, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
