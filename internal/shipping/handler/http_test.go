package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/internal/shipping/handler"
	"github.com/zlatkom/package-self-service/internal/shipping/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) CreateOrder(ctx context.Context, in service.NewOrder) (uuid.UUID, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (entities.ShippingOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.ShippingOrder), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit int) ([]entities.ShippingOrder, error) {
	args := m.Called(ctx, status, offset, limit)
	return args.Get(0).([]entities.ShippingOrder), args.Error(1)
}

func newTestRouter(svc handler.OrderService) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc)
	r := chi.NewRouter()
	h.Init(r)
	return r
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	orderID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	validBody := `{"packageName":"gift-1","postalCode":"1111AA","streetName":"Main Street 1","receiverName":"John Doe","packageSize":"M"}`

	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
		wantLocation string
	}{
		{
			name: "created",
			body: validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("CreateOrder", mock.Anything, service.NewOrder{
					PackageName:  "gift-1",
					PostalCode:   "1111AA",
					StreetName:   "Main Street 1",
					ReceiverName: "John Doe",
					PackageSize:  entities.SizeM,
				}).Return(orderID, nil).Once()
			},
			wantStatus:   http.StatusCreated,
			wantLocation: "/shippingOrders/" + orderID.String(),
		},
		{
			name:       "unknown size",
			body:       `{"packageName":"gift-1","postalCode":"1111AA","streetName":"Main Street 1","receiverName":"John Doe","packageSize":"XXL"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "PackageSize",
		},
		{
			name:       "missing package name",
			body:       `{"postalCode":"1111AA","streetName":"Main Street 1","receiverName":"John Doe","packageSize":"M"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "PackageName",
		},
		{
			name:       "invalid json",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name: "duplicate package name",
			body: validBody,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("CreateOrder", mock.Anything, mock.Anything).
					Return(uuid.Nil, &entities.DuplicatePackageNameError{PackageName: "gift-1"}).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   "already taken",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.mockBehavior != nil {
				tc.mockBehavior(svc)
			}
			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/shippingOrders", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			if tc.wantBody != "" {
				assert.Contains(t, string(body), tc.wantBody)
			}
			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, res.Header.Get("Location"))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	orderID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	delivered := time.Date(2025, 6, 8, 15, 30, 0, 0, time.UTC)

	order := entities.ShippingOrder{
		ID:                   orderID,
		PackageName:          "gift-1",
		PostalCode:           "1111AA",
		StreetName:           "Main Street 1",
		ReceiverName:         "John Doe",
		PackageSize:          entities.SizeM,
		Status:               entities.StatusDelivered,
		ExpectedDeliveryDate: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		ActualDeliveryAt:     &delivered,
	}

	testCases := []struct {
		name         string
		orderID      string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name:    "success",
			orderID: orderID.String(),
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetOrder", mock.Anything, orderID).Return(order, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"expectedDeliveryDate":"2025-06-08"`,
		},
		{
			name:       "malformed id",
			orderID:    "not-a-uuid",
			wantStatus: http.StatusBadRequest,
			wantBody:   "orderId must be a valid UUID",
		},
		{
			name:    "not found",
			orderID: orderID.String(),
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetOrder", mock.Anything, orderID).
					Return(entities.ShippingOrder{}, entities.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "order not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.mockBehavior != nil {
				tc.mockBehavior(svc)
			}
			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/shippingOrders/"+tc.orderID, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	sent := entities.StatusSent
	orders := []entities.ShippingOrder{{
		ID:                   uuid.New(),
		PackageName:          "gift-1",
		Status:               entities.StatusSent,
		ExpectedDeliveryDate: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
	}}

	testCases := []struct {
		name         string
		path         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "all statuses",
			path: "/shippingOrders?offset=2&limit=5",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("ListOrders", mock.Anything, (*entities.OrderStatus)(nil), 2, 5).
					Return(orders, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"packageName":"gift-1"`,
		},
		{
			name: "filtered by status",
			path: "/shippingOrders?status=SENT",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("ListOrders", mock.Anything, &sent, 0, 0).
					Return(orders, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"orderStatus":"SENT"`,
		},
		{
			name:       "unknown status",
			path:       "/shippingOrders?status=LOST",
			wantStatus: http.StatusBadRequest,
			wantBody:   "status must be one of",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.mockBehavior != nil {
				tc.mockBehavior(svc)
			}
			r := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			res := rr.Result()
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Contains(t, string(body), tc.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
