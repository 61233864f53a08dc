// Package orderbackend is C1: the HTTP client to the e-commerce order
// backend. There is no HTTP client library in the teacher's or pack's
// dependency set that adds anything over net/http for a handful of
// authenticated REST calls, so this stays on the standard library; see
// DESIGN.md.
package orderbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperr "github.com/retailvoice/callbridge/pkg/errors"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	"github.com/retailvoice/callbridge/internal/domain/valueobject"
)

// Config configures the order backend client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration
}

// Client implements domain/repository.OrderBackend against a REST API
// protected by an OAuth2 client-credentials-style bearer token that the
// client refreshes on demand.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger

	tokenMu     sync.Mutex
	accessToken string
	expiresAt   time.Time
}

var _ repository.OrderBackend = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "order_backend_client")),
	}
}

// token returns a valid access token, refreshing it under a process-wide
// lock so only one refresh is ever in flight at a time.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}
	return c.refreshLocked(ctx)
}

func (c *Client) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", c.cfg.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Transient("token refresh request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", apperr.AuthExpired("token refresh rejected", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "decode token response", err)
	}

	c.accessToken = payload.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second).Add(-30 * time.Second)
	return c.accessToken, nil
}

// wireOrder is the search endpoint's canonical order record. Every column
// is a string on the wire, per the backend's own convention.
type wireOrder struct {
	OrderID        string          `json:"orderId"`
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail"`
	CustomerPhone  string          `json:"customerPhone"`
	Status         string          `json:"status"`
	OrderDate      string          `json:"orderDate"`
	ShippedDate    string          `json:"shippedDate"`
	DeliveryMethod string          `json:"deliveryMethod"`
	TrackingNumber string          `json:"trackingNumber"`
	TrackingURL    string          `json:"trackingUrl"`
	StoreID        string          `json:"storeId"`
	TotalAmount    string          `json:"totalAmount"`
	Items          []wireOrderItem `json:"items"`
}

type wireOrderItem struct {
	Name  string `json:"name"`
	Qty   string `json:"qty"`
	Price string `json:"price"`
}

// searchEnvelope wraps every search-endpoint response.
type searchEnvelope struct {
	Result  string      `json:"result"`
	Message string      `json:"message"`
	Count   int         `json:"count"`
	Data    []wireOrder `json:"data"`
}

// toOrder maps a raw wire record onto the domain's closed status enum,
// carrier name, and platform — the one legal path from backend codes to
// domain values, per mapStatus/extractCarrier/InferPlatform.
func toOrder(w wireOrder) entity.Order {
	total, _ := strconv.ParseFloat(w.TotalAmount, 64)

	items := make([]entity.OrderItem, 0, len(w.Items))
	for _, it := range w.Items {
		qty, _ := strconv.Atoi(it.Qty)
		price, _ := strconv.ParseFloat(it.Price, 64)
		items = append(items, entity.OrderItem{Name: it.Name, Qty: qty, Price: price})
	}

	return entity.Order{
		OrderID:        w.OrderID,
		CustomerName:   w.CustomerName,
		CustomerEmail:  w.CustomerEmail,
		CustomerPhone:  w.CustomerPhone,
		Status:         valueobject.MapStatus(w.Status),
		OrderDate:      w.OrderDate,
		ShippedDate:    w.ShippedDate,
		Carrier:        valueobject.ExtractCarrier(w.DeliveryMethod),
		TrackingNumber: w.TrackingNumber,
		TrackingURL:    w.TrackingURL,
		Items:          items,
		TotalAmount:    total,
		Platform:       valueobject.InferPlatform(w.StoreID),
	}
}

func toSummary(o entity.Order) entity.OrderSummary {
	return entity.OrderSummary{
		OrderID:        o.OrderID,
		Status:         o.Status,
		StatusMessage:  valueobject.StatusMessage(o.Status, o.Carrier, o.TrackingNumber),
		OrderDate:      o.OrderDate,
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
		TrackingURL:    o.TrackingURL,
		Items:          o.Items,
		TotalAmount:    o.TotalAmount,
	}
}

// doAuthedSearch POSTs form-encoded search conditions to the backend's
// search endpoint, refreshing the token exactly once on a 401 before
// giving up, and unwraps the {result,message,count,data} envelope.
func (c *Client) doAuthedSearch(ctx context.Context, path string, form url.Values) (*searchEnvelope, error) {
	attempt := func(forceRefresh bool) (*http.Response, error) {
		if forceRefresh {
			c.tokenMu.Lock()
			c.accessToken = ""
			c.tokenMu.Unlock()
		}
		tok, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewBufferString(form.Encode()))
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "build backend request", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+tok)
		return c.http.Do(req)
	}

	resp, err := attempt(false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		resp, err = attempt(true)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperr.Transient("order backend returned a server error", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperr.New(apperr.CodeInvalidInput, fmt.Sprintf("order backend rejected the request: status %d: %s", resp.StatusCode, body))
	}

	var env searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "decode order backend response", err)
	}
	if env.Result == "error" {
		return nil, apperr.New(apperr.CodeInvalidInput, "order backend reported an error: "+env.Message)
	}
	return &env, nil
}

// SearchByPhone resolves the caller's identity and order summaries.
func (c *Client) SearchByPhone(ctx context.Context, phoneNumber string) (*entity.IdentificationContext, error) {
	form := url.Values{"phone-like": []string{phoneNumber}}
	env, err := c.doAuthedSearch(ctx, "/orders/search", form)
	if err != nil {
		return &entity.IdentificationContext{Found: false, Error: true}, err
	}
	if env.Count == 0 || len(env.Data) == 0 {
		return &entity.IdentificationContext{Found: false}, nil
	}

	summaries := make([]entity.OrderSummary, 0, len(env.Data))
	for _, w := range env.Data {
		summaries = append(summaries, toSummary(toOrder(w)))
	}

	return &entity.IdentificationContext{
		Found:        true,
		CustomerName: env.Data[0].CustomerName,
		Orders:       summaries,
	}, nil
}

// SearchOrders returns orders matching a broader query (used by tools
// that search by phone with a result limit, as opposed to the webhook's
// single-shot identification lookup).
func (c *Client) SearchOrders(ctx context.Context, q repository.OrderSearchQuery) ([]entity.Order, error) {
	form := url.Values{}
	if q.Phone != "" {
		form.Set("phone-like", q.Phone)
	}
	if q.OrderID != "" {
		form.Set("orderId-eq", q.OrderID)
	}
	if q.Limit > 0 {
		form.Set("limit", strconv.Itoa(q.Limit))
	}

	env, err := c.doAuthedSearch(ctx, "/orders/search", form)
	if err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(env.Data))
	for _, w := range env.Data {
		orders = append(orders, toOrder(w))
	}
	return orders, nil
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	form := url.Values{"orderId-eq": []string{orderID}}
	env, err := c.doAuthedSearch(ctx, "/orders/search", form)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, apperr.New(apperr.CodeNotFound, "order not found: "+orderID)
	}
	order := toOrder(env.Data[0])
	return &order, nil
}

// RegisterReturn submits a return/exchange request. The return id is
// generated locally rather than trusted from the backend, per the
// return-registration contract.
func (c *Client) RegisterReturn(ctx context.Context, in entity.ReturnInput) (*entity.ReturnResult, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	returnID := "RET-" + uuid.NewString()

	payload, err := json.Marshal(struct {
		entity.ReturnInput
		ReturnID string `json:"returnId"`
	}{ReturnInput: in, ReturnID: returnID})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "encode return input", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/returns", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "build return request", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transient("register return request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperr.Transient("order backend returned a server error", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "decode return response", err)
	}

	return &entity.ReturnResult{
		Success:  out.Success,
		ReturnID: returnID,
		Message:  out.Message,
	}, nil
}
