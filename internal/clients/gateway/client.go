package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tesseract-hub/storefront-service/internal/models"
)

const (
	DefaultBaseURL  = "https://sandbox.wompi.co/v1"
	DefaultTimeout  = 15 * time.Second
	DefaultCurrency = "COP"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrRejected is returned when the gateway answered with an error or an incomplete body
	ErrRejected = errors.New("payment gateway rejected the request")
	// ErrUnsupportedMethod is returned for methods settled outside the gateway
	ErrUnsupportedMethod = errors.New("payment method is not handled by the gateway")
)

// Config holds the hosted checkout settings
type Config struct {
	BaseURL     string
	PrivateKey  string
	Currency    string
	RedirectURL string
	Timeout     time.Duration
}

// CheckoutRequest describes the order being paid
type CheckoutRequest struct {
	OrderID       uint
	Amount        int64
	CustomerEmail string
	Method        models.PaymentMethod
}

// Checkout is the hosted checkout created by the gateway
type Checkout struct {
	Reference string
	URL       string
}

type paymentMethodBody struct {
	Type string `json:"type"`
}

type transactionBody struct {
	AmountInCents int64             `json:"amount_in_cents"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	PaymentMethod paymentMethodBody `json:"payment_method"`
	Reference     string            `json:"reference"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
}

type transactionResponse struct {
	Data struct {
		ID            string `json:"id"`
		Reference     string `json:"reference"`
		Status        string `json:"status"`
		PaymentMethod struct {
			Extra struct {
				AsyncPaymentURL string `json:"async_payment_url"`
			} `json:"extra"`
		} `json:"payment_method"`
	} `json:"data"`
}

// Client creates hosted checkouts through the gateway REST API
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	now        func() time.Time
}

// NewClient creates a gateway client wrapped in a circuit breaker
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from":            from.String(),
				"to":              to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		now:        time.Now,
	}
}

// methodType maps a storefront payment method to the gateway's method type
func methodType(method models.PaymentMethod) (string, error) {
	switch method {
	case models.PaymentMethodNequi:
		return "NEQUI", nil
	case models.PaymentMethodDaviplata:
		return "DAVIPLATA", nil
	case models.PaymentMethodTransfer:
		return "PSE", nil
	default:
		return "", ErrUnsupportedMethod
	}
}

// Reference builds the unique gateway reference of an order payment attempt
func Reference(orderID uint, at time.Time) string {
	return fmt.Sprintf("pedido-%d-%d", orderID, at.Unix())
}

func (c *Client) redirectURL(orderID uint) string {
	if c.cfg.RedirectURL == "" {
		return ""
	}
	id := strconv.FormatUint(uint64(orderID), 10)
	if strings.Contains(c.cfg.RedirectURL, "{id}") {
		return strings.ReplaceAll(c.cfg.RedirectURL, "{id}", id)
	}
	return strings.TrimRight(c.cfg.RedirectURL, "/") + "/" + id
}

// CreateCheckout opens a hosted checkout for the order
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	kind, err := methodType(req.Method)
	if err != nil {
		return nil, err
	}

	body := transactionBody{
		AmountInCents: req.Amount * 100,
		Currency:      c.cfg.Currency,
		CustomerEmail: req.CustomerEmail,
		PaymentMethod: paymentMethodBody{Type: kind},
		Reference:     Reference(req.OrderID, c.now()),
		RedirectURL:   c.redirectURL(req.OrderID),
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postTransaction(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"order_id":  req.OrderID,
			"reference": body.Reference,
		}).Error("Gateway checkout failed")
		return nil, err
	}

	return result.(*Checkout), nil
}

func (c *Client) postTransaction(ctx context.Context, body transactionBody) (*Checkout, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.PrivateKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(raw))
	}

	var result transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", ErrRejected, err)
	}

	checkoutURL := result.Data.PaymentMethod.Extra.AsyncPaymentURL
	if checkoutURL == "" || result.Data.Reference == "" {
		return nil, fmt.Errorf("%w: missing checkout url or reference", ErrRejected)
	}

	return &Checkout{Reference: result.Data.Reference, URL: checkoutURL}, nil
}

// State reports the circuit breaker state
func (c *Client) State() string {
	return c.breaker.State().String()
}
