// Package client is the resilient HTTP client of the package shipping
// service. Both operations share a single retry policy and circuit breaker:
// transient failures are retried with backoff, an open breaker fails fast
// without touching the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zlatkom/package-self-service/internal/config"
	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/pkg/correlation"
	"github.com/zlatkom/package-self-service/pkg/resilience"
)

// ErrMissingLocation marks a 201 response without a Location header, which
// the shipping service contract does not allow.
var ErrMissingLocation = errors.New("created response is missing Location header")

// ErrRequestRejected marks a 4xx response: the shipping service deemed the
// request itself invalid, so resending it can never succeed.
var ErrRequestRejected = errors.New("request rejected by shipping service")

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

func New(logger *slog.Logger, cfg config.Shipping) *Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		WindowSize:       cfg.BreakerWindowSize,
		MinCalls:         cfg.BreakerMinCalls,
		FailureThreshold: cfg.BreakerFailureThreshold,
		Cooldown:         cfg.BreakerCooldown,
		TrialCalls:       cfg.BreakerTrialCalls,
		OnStateChange: func(from, to resilience.State) {
			breakerState.Set(float64(to))
			logger.Warn("shipping breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		logger:  logger.With(slog.String("client", "shipping")),
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
		},
		breaker: breaker,
	}
}

// CreateOrder submits a new shipping order and returns the location of the
// created resource. A 409 maps to DuplicatePackageNameError and is never
// retried. When the breaker is open, ErrShippingUnavailable is returned
// without a network attempt.
func (c *Client) CreateOrder(ctx context.Context, order ShippingOrder) (string, error) {
	var location string

	err := resilience.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			loc, err := c.doCreate(ctx, order)
			if err != nil {
				return err
			}
			location = loc
			return nil
		})
	}, entities.ErrDuplicatePackageName, ErrMissingLocation, ErrRequestRejected, resilience.ErrOpen)

	if err != nil {
		return "", c.observe("createShippingOrder", err)
	}
	downstreamRequests.WithLabelValues("createShippingOrder", outcomeSuccess).Inc()
	return location, nil
}

// GetOrder fetches the current state of a shipping order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (OrderSnapshot, error) {
	var snapshot OrderSnapshot

	err := resilience.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			snap, err := c.doGet(ctx, orderID)
			if err != nil {
				return err
			}
			snapshot = snap
			return nil
		})
	}, entities.ErrOrderNotFound, ErrRequestRejected, resilience.ErrOpen)

	if err != nil {
		return OrderSnapshot{}, c.observe("getOrderDetails", err)
	}
	downstreamRequests.WithLabelValues("getOrderDetails", outcomeSuccess).Inc()
	return snapshot, nil
}

func (c *Client) doCreate(ctx context.Context, order ShippingOrder) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shipping order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shippingOrders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setTracingHeaders(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create shipping order: %w", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		location := resp.Header.Get("Location")
		if location == "" {
			return "", ErrMissingLocation
		}
		return location, nil
	case http.StatusConflict:
		return "", &entities.DuplicatePackageNameError{PackageName: order.PackageName}
	default:
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", fmt.Errorf("create shipping order: status %d: %w", resp.StatusCode, ErrRequestRejected)
		}
		return "", fmt.Errorf("create shipping order: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) doGet(ctx context.Context, orderID string) (OrderSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/shippingOrders/"+orderID, nil)
	if err != nil {
		return OrderSnapshot{}, fmt.Errorf("failed to build request: %w", err)
	}
	c.setTracingHeaders(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return OrderSnapshot{}, fmt.Errorf("get order details: %w", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var details orderDetails
		if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
			return OrderSnapshot{}, fmt.Errorf("failed to decode order details: %w", err)
		}
		snap, err := details.toSnapshot()
		if err != nil {
			return OrderSnapshot{}, fmt.Errorf("failed to decode order details: %w", err)
		}
		return snap, nil
	case http.StatusNotFound:
		return OrderSnapshot{}, entities.ErrOrderNotFound
	default:
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return OrderSnapshot{}, fmt.Errorf("get order details: status %d: %w", resp.StatusCode, ErrRequestRejected)
		}
		return OrderSnapshot{}, fmt.Errorf("get order details: unexpected status %d", resp.StatusCode)
	}
}

// setTracingHeaders forwards the correlation id of the inbound request
// verbatim and mints a fresh per-hop request id.
func (c *Client) setTracingHeaders(ctx context.Context, req *http.Request) {
	if id := correlation.ID(ctx); id != "" {
		req.Header.Set(correlation.HeaderCorrelationID, id)
	}
	req.Header.Set(correlation.HeaderRequestID, correlation.NewID())
}

func (c *Client) observe(operation string, err error) error {
	switch {
	case errors.Is(err, resilience.ErrOpen):
		downstreamRequests.WithLabelValues(operation, outcomeShortCircuit).Inc()
		c.logger.Error("breaker open, shipping call short-circuited", slog.String("operation", operation))
		return fmt.Errorf("%w: %s short-circuited by open breaker", entities.ErrShippingUnavailable, operation)
	case errors.Is(err, entities.ErrDuplicatePackageName):
		downstreamRequests.WithLabelValues(operation, outcomeDuplicate).Inc()
		return err
	case errors.Is(err, entities.ErrOrderNotFound):
		downstreamRequests.WithLabelValues(operation, outcomeNotFound).Inc()
		return err
	default:
		downstreamRequests.WithLabelValues(operation, outcomeError).Inc()
		return err
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
