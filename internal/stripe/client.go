package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/giving-api/internal"
)

// Client talks to the payment provider's REST API. Every call is keyed by a
// tenant secret key; the client itself holds no credentials. Amounts cross
// this boundary in major currency units and are converted to minor units
// (cents) immediately before each call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// toMinorUnits converts a major-unit amount to integer cents.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (c *Client) do(ctx context.Context, secretKey, method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewInternalError("failed to create provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("provider request failed", "method", method, "path", path, "error", err)
		return nil, errors.NewExternalError("provider request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalError("failed to read provider response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("provider returned error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"response", string(respBody))
		return nil, errors.NewExternalError(
			fmt.Sprintf("provider call failed with status %d", resp.StatusCode), nil).
			WithDetails(json.RawMessage(respBody))
	}

	return respBody, nil
}

func (c *Client) postForm(ctx context.Context, secretKey, path string, form url.Values) ([]byte, error) {
	return c.do(ctx, secretKey, http.MethodPost, path, form)
}

func (c *Client) get(ctx context.Context, secretKey, path string) ([]byte, error) {
	return c.do(ctx, secretKey, http.MethodGet, path, nil)
}

func (c *Client) delete(ctx context.Context, secretKey, path string) ([]byte, error) {
	return c.do(ctx, secretKey, http.MethodDelete, path, nil)
}

// CreateCheckoutSession opens a hosted one-time payment page and returns the
// session id the browser is redirected with.
func (c *Client) CreateCheckoutSession(ctx context.Context, secretKey string, amount float64, successURL, cancelURL string) (string, error) {
	form := url.Values{}
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][product_data][name]", "Donation")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(toMinorUnits(amount), 10))
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	body, err := c.postForm(ctx, secretKey, "/v1/checkout/sessions", form)
	if err != nil {
		return "", err
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", errors.NewExternalError("failed to decode checkout session", err)
	}

	c.logger.Info("checkout session created", "session_id", session.ID)
	return session.ID, nil
}

func (c *Client) CreateCustomer(ctx context.Context, secretKey, email, name string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	if name != "" {
		form.Set("name", name)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/customers", form)
	if err != nil {
		return "", err
	}

	var cust struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &cust); err != nil {
		return "", errors.NewExternalError("failed to decode customer", err)
	}
	return cust.ID, nil
}

type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer"`
	Card     *struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	} `json:"card,omitempty"`
}

func (c *Client) AttachPaymentMethod(ctx context.Context, secretKey, paymentMethodID, customerID string) (*PaymentMethod, error) {
	form := url.Values{}
	form.Set("customer", customerID)

	body, err := c.postForm(ctx, secretKey, "/v1/payment_methods/"+url.PathEscape(paymentMethodID)+"/attach", form)
	if err != nil {
		return nil, err
	}

	var pm PaymentMethod
	if err := json.Unmarshal(body, &pm); err != nil {
		return nil, errors.NewExternalError("failed to decode payment method", err)
	}
	return &pm, nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, secretKey, paymentMethodID string) error {
	_, err := c.postForm(ctx, secretKey, "/v1/payment_methods/"+url.PathEscape(paymentMethodID)+"/detach", url.Values{})
	return err
}

type CardUpdate struct {
	ExpMonth int
	ExpYear  int
}

func (c *Client) UpdateCard(ctx context.Context, secretKey, paymentMethodID string, card CardUpdate) (*PaymentMethod, error) {
	form := url.Values{}
	if card.ExpMonth > 0 {
		form.Set("card[exp_month]", strconv.Itoa(card.ExpMonth))
	}
	if card.ExpYear > 0 {
		form.Set("card[exp_year]", strconv.Itoa(card.ExpYear))
	}

	body, err := c.postForm(ctx, secretKey, "/v1/payment_methods/"+url.PathEscape(paymentMethodID), form)
	if err != nil {
		return nil, err
	}

	var pm PaymentMethod
	if err := json.Unmarshal(body, &pm); err != nil {
		return nil, errors.NewExternalError("failed to decode payment method", err)
	}
	return &pm, nil
}

type BankAccount struct {
	ID       string `json:"id"`
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
	Status   string `json:"status"`
}

func (c *Client) CreateBankAccount(ctx context.Context, secretKey, customerID, source string) (*BankAccount, error) {
	form := url.Values{}
	form.Set("source", source)

	body, err := c.postForm(ctx, secretKey, "/v1/customers/"+url.PathEscape(customerID)+"/sources", form)
	if err != nil {
		return nil, err
	}

	var ba BankAccount
	if err := json.Unmarshal(body, &ba); err != nil {
		return nil, errors.NewExternalError("failed to decode bank account", err)
	}
	return &ba, nil
}

type BankUpdate struct {
	AccountHolderName string
	AccountHolderType string
}

func (c *Client) UpdateBank(ctx context.Context, secretKey, bankAccountID, customerID string, bank BankUpdate) (*BankAccount, error) {
	form := url.Values{}
	if bank.AccountHolderName != "" {
		form.Set("account_holder_name", bank.AccountHolderName)
	}
	if bank.AccountHolderType != "" {
		form.Set("account_holder_type", bank.AccountHolderType)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/customers/"+url.PathEscape(customerID)+"/sources/"+url.PathEscape(bankAccountID), form)
	if err != nil {
		return nil, err
	}

	var ba BankAccount
	if err := json.Unmarshal(body, &ba); err != nil {
		return nil, errors.NewExternalError("failed to decode bank account", err)
	}
	return &ba, nil
}

// BankVerificationResult is a typed success/failure variant: a failed
// micro-deposit check is a result, not an error through the success channel.
type BankVerificationResult struct {
	Verified bool
	Status   string
	Message  string
}

func (c *Client) VerifyBank(ctx context.Context, secretKey, bankAccountID, customerID string, amounts [2]int64) (*BankVerificationResult, error) {
	form := url.Values{}
	form.Set("amounts[0]", strconv.FormatInt(amounts[0], 10))
	form.Set("amounts[1]", strconv.FormatInt(amounts[1], 10))

	body, err := c.postForm(ctx, secretKey, "/v1/customers/"+url.PathEscape(customerID)+"/sources/"+url.PathEscape(bankAccountID)+"/verify", form)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Type == errors.ErrorTypeExternal {
			return &BankVerificationResult{Verified: false, Status: "failed", Message: appErr.Message}, nil
		}
		return nil, err
	}

	var ba BankAccount
	if err := json.Unmarshal(body, &ba); err != nil {
		return nil, errors.NewExternalError("failed to decode bank account", err)
	}
	return &BankVerificationResult{Verified: ba.Status == "verified", Status: ba.Status}, nil
}

func (c *Client) DeleteBankAccount(ctx context.Context, secretKey, customerID, bankAccountID string) error {
	_, err := c.delete(ctx, secretKey, "/v1/customers/"+url.PathEscape(customerID)+"/sources/"+url.PathEscape(bankAccountID))
	return err
}

func (c *Client) GetCustomerPaymentMethods(ctx context.Context, secretKey, customerID string) ([]PaymentMethod, error) {
	body, err := c.get(ctx, secretKey, "/v1/payment_methods?customer="+url.QueryEscape(customerID)+"&type=card")
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []PaymentMethod `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errors.NewExternalError("failed to decode payment methods", err)
	}
	return list.Data, nil
}

// ChargeRequest describes a one-time charge. Exactly one of PaymentMethodID
// or SourceID must be set (cards attach as payment methods, bank accounts as
// legacy sources).
type ChargeRequest struct {
	Amount          float64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	SourceID        string
	Description     string
	Metadata        map[string]string
}

type ChargeResult struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
}

// Donate executes a one-time charge. The major-to-minor unit conversion
// happens here and nowhere else.
func (c *Client) Donate(ctx context.Context, secretKey string, req ChargeRequest) (*ChargeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(toMinorUnits(req.Amount), 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("customer", req.CustomerID)
	form.Set("confirm", "true")
	form.Set("off_session", "true")
	if req.PaymentMethodID != "" {
		form.Set("payment_method", req.PaymentMethodID)
	}
	if req.SourceID != "" {
		form.Set("source", req.SourceID)
	}
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}

	var result ChargeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewExternalError("failed to decode charge result", err)
	}

	c.logger.Info("charge created", "charge_id", result.ID, "status", result.Status)
	return &result, nil
}

type SubscriptionRequest struct {
	CustomerID      string
	PaymentMethodID string
	SourceID        string
	ProductID       string
	Amount          float64
	Interval        string
	IntervalCount   int
	Metadata        map[string]string
}

type SubscriptionResult struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
}

func (c *Client) CreateSubscription(ctx context.Context, secretKey string, req SubscriptionRequest) (*SubscriptionResult, error) {
	interval := req.Interval
	if interval == "" {
		interval = "month"
	}
	intervalCount := req.IntervalCount
	if intervalCount <= 0 {
		intervalCount = 1
	}

	form := url.Values{}
	form.Set("customer", req.CustomerID)
	form.Set("items[0][price_data][currency]", "usd")
	form.Set("items[0][price_data][product]", req.ProductID)
	form.Set("items[0][price_data][unit_amount]", strconv.FormatInt(toMinorUnits(req.Amount), 10))
	form.Set("items[0][price_data][recurring][interval]", interval)
	form.Set("items[0][price_data][recurring][interval_count]", strconv.Itoa(intervalCount))
	if req.PaymentMethodID != "" {
		form.Set("default_payment_method", req.PaymentMethodID)
	}
	if req.SourceID != "" {
		form.Set("default_source", req.SourceID)
	}
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/subscriptions", form)
	if err != nil {
		return nil, err
	}

	var result SubscriptionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewExternalError("failed to decode subscription", err)
	}

	c.logger.Info("subscription created", "subscription_id", result.ID, "status", result.Status)
	return &result, nil
}

func (c *Client) UpdateSubscription(ctx context.Context, secretKey, subscriptionID, paymentMethodRef string) error {
	form := url.Values{}
	if strings.HasPrefix(paymentMethodRef, "ba_") {
		form.Set("default_source", paymentMethodRef)
	} else {
		form.Set("default_payment_method", paymentMethodRef)
	}

	_, err := c.postForm(ctx, secretKey, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form)
	return err
}

func (c *Client) DeleteSubscription(ctx context.Context, secretKey, subscriptionID string) error {
	_, err := c.delete(ctx, secretKey, "/v1/subscriptions/"+url.PathEscape(subscriptionID))
	return err
}

func (c *Client) GetCustomerSubscriptions(ctx context.Context, secretKey, customerID string) ([]SubscriptionResult, error) {
	body, err := c.get(ctx, secretKey, "/v1/subscriptions?customer="+url.QueryEscape(customerID))
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []SubscriptionResult `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, errors.NewExternalError("failed to decode subscriptions", err)
	}
	return list.Data, nil
}

func (c *Client) CreateProduct(ctx context.Context, secretKey, name string) (string, error) {
	form := url.Values{}
	form.Set("name", name)

	body, err := c.postForm(ctx, secretKey, "/v1/products", form)
	if err != nil {
		return "", err
	}

	var product struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &product); err != nil {
		return "", errors.NewExternalError("failed to decode product", err)
	}
	return product.ID, nil
}

type WebhookEndpoint struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

func (c *Client) CreateWebhookEndpoint(ctx context.Context, secretKey, endpointURL string) (*WebhookEndpoint, error) {
	form := url.Values{}
	form.Set("url", endpointURL)
	form.Set("enabled_events[0]", "charge.succeeded")
	form.Set("enabled_events[1]", "charge.failed")
	form.Set("enabled_events[2]", "charge.dispute.created")
	form.Set("enabled_events[3]", "invoice.paid")
	form.Set("enabled_events[4]", "customer.subscription.deleted")

	body, err := c.postForm(ctx, secretKey, "/v1/webhook_endpoints", form)
	if err != nil {
		return nil, err
	}

	var endpoint WebhookEndpoint
	if err := json.Unmarshal(body, &endpoint); err != nil {
		return nil, errors.NewExternalError("failed to decode webhook endpoint", err)
	}
	return &endpoint, nil
}

// DeleteWebhooksByChurchID removes every registered endpoint whose URL
// carries the tenant's churchId query parameter. Used before re-registering
// and when a gateway is deleted.
func (c *Client) DeleteWebhooksByChurchID(ctx context.Context, secretKey, churchID string) error {
	body, err := c.get(ctx, secretKey, "/v1/webhook_endpoints")
	if err != nil {
		return err
	}

	var list struct {
		Data []WebhookEndpoint `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return errors.NewExternalError("failed to decode webhook endpoints", err)
	}

	for _, endpoint := range list.Data {
		if !strings.Contains(endpoint.URL, "churchId="+churchID) {
			continue
		}
		if _, err := c.delete(ctx, secretKey, "/v1/webhook_endpoints/"+url.PathEscape(endpoint.ID)); err != nil {
			return err
		}
		c.logger.Info("webhook endpoint deleted", "endpoint_id", endpoint.ID, "church_id", churchID)
	}
	return nil
}
