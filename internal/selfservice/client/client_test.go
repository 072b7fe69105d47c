package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zlatkom/package-self-service/internal/config"
	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/internal/selfservice/client"
	"github.com/zlatkom/package-self-service/pkg/correlation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.Shipping {
	return config.Shipping{
		BaseURL: baseURL,
		Timeout: time.Second,

		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,

		BreakerWindowSize:       5,
		BreakerMinCalls:         5,
		BreakerFailureThreshold: 0.5,
		BreakerCooldown:         time.Minute,
		BreakerTrialCalls:       1,
	}
}

func newClient(t *testing.T, cfg config.Shipping) *client.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return client.New(logger, cfg)
}

func TestCreateOrder_Success(t *testing.T) {
	var correlationHeader, requestIDHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/shippingOrders", r.URL.Path)
		correlationHeader = r.Header.Get(correlation.HeaderCorrelationID)
		requestIDHeader = r.Header.Get(correlation.HeaderRequestID)
		w.Header().Set("Location", "http://shipping/shippingOrders/abc")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))
	ctx := correlation.WithID(context.Background(), "corr-1")

	location, err := c.CreateOrder(ctx, client.ShippingOrder{PackageName: "gift-1", PackageSize: "M"})
	require.NoError(t, err)
	assert.Equal(t, "http://shipping/shippingOrders/abc", location)
	assert.Equal(t, "corr-1", correlationHeader)
	assert.NotEmpty(t, requestIDHeader)
	assert.NotEqual(t, "corr-1", requestIDHeader)
}

func TestCreateOrder_DuplicateIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	_, err := c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "taken"})
	require.ErrorIs(t, err, entities.ErrDuplicatePackageName)

	var dup *entities.DuplicatePackageNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "taken", dup.PackageName)
	assert.EqualValues(t, 1, hits.Load(), "conflict must not be retried")
}

func TestCreateOrder_ValidationRejectionIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	_, err := c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "gift-1"})
	require.ErrorIs(t, err, client.ErrRequestRejected)
	assert.EqualValues(t, 1, hits.Load(), "a 400 validation response must not be retried")
}

func TestCreateOrder_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Location", "http://shipping/shippingOrders/xyz")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	location, err := c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "gift-2"})
	require.NoError(t, err)
	assert.Equal(t, "http://shipping/shippingOrders/xyz", location)
	assert.EqualValues(t, 3, hits.Load())
}

func TestCreateOrder_MissingLocationIsProtocolViolation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	_, err := c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "gift-3"})
	require.ErrorIs(t, err, client.ErrMissingLocation)
	assert.EqualValues(t, 1, hits.Load())
}

func TestCreateOrder_BreakerShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerWindowSize = 3
	cfg.BreakerMinCalls = 3
	c := newClient(t, cfg)

	// One failed call burns the whole retry budget (3 attempts), which is
	// enough recorded failures to trip the breaker.
	_, err := c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "gift-4"})
	require.Error(t, err)
	require.EqualValues(t, 3, hits.Load())

	_, err = c.CreateOrder(context.Background(), client.ShippingOrder{PackageName: "gift-4"})
	require.ErrorIs(t, err, entities.ErrShippingUnavailable)
	assert.EqualValues(t, 3, hits.Load(), "open breaker must not reach the network")
}

func TestGetOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shippingOrders/abc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"packageId": "abc",
			"packageName": "gift-1",
			"packageSize": "M",
			"postalCode": "1111AA",
			"streetName": "Main Street 1",
			"receiverName": "John Doe",
			"orderStatus": "SENT",
			"expectedDeliveryDate": "2025-06-08",
			"actualDeliveryDateTime": null
		}`))
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	snap, err := c.GetOrder(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", snap.OrderID)
	assert.Equal(t, entities.StatusSent, snap.Status)
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), snap.ExpectedDeliveryDate)
	assert.Nil(t, snap.ActualDeliveryAt)
}

func TestGetOrder_ValidationRejectionIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	_, err := c.GetOrder(context.Background(), "not-a-valid-id")
	require.ErrorIs(t, err, client.ErrRequestRejected)
	assert.EqualValues(t, 1, hits.Load())
}

func TestGetOrder_NotFoundIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newClient(t, testConfig(srv.URL))

	_, err := c.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, entities.ErrOrderNotFound)
	assert.EqualValues(t, 1, hits.Load())
}
