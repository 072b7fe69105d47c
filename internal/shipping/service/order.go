package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"

	"github.com/google/uuid"
)

// deliveryLeadDays is the promised delivery window of every new order,
// counted in calendar days.
const deliveryLeadDays = 7

const (
	minListLimit = 1
	maxListLimit = 10
)

type OrderRepo interface {
	// SaveOrder returns DuplicatePackageNameError when the unique index on
	// package_name rejects the insert.
	SaveOrder(ctx context.Context, o entities.ShippingOrder) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (entities.ShippingOrder, error)
	OrderExistsByPackageName(ctx context.Context, packageName string) (bool, error)
	ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit uint64) ([]entities.ShippingOrder, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entities.OrderStatus, actualDelivery *time.Time) error
}

// NewOrder holds the validated input of an order creation.
type NewOrder struct {
	PackageName  string
	PostalCode   string
	StreetName   string
	ReceiverName string
	PackageSize  entities.PackageSize
}

type orderService struct {
	logger *slog.Logger
	repo   OrderRepo
	now    func() time.Time
}

func NewOrderService(logger *slog.Logger, repo OrderRepo) *orderService {
	return &orderService{
		logger: logger.With(slog.String("service", "order")),
		repo:   repo,
		now:    time.Now,
	}
}

// CreateOrder registers a new shipping order. Package names are unique across
// all orders; the pre-check keeps the common duplicate case off the error
// path and the storage unique index closes the race between two concurrent
// creates of the same name.
func (s *orderService) CreateOrder(ctx context.Context, in NewOrder) (uuid.UUID, error) {
	exists, err := s.repo.OrderExistsByPackageName(ctx, in.PackageName)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, &entities.DuplicatePackageNameError{PackageName: in.PackageName}
	}

	order := entities.ShippingOrder{
		ID:                   uuid.New(),
		PackageName:          in.PackageName,
		PostalCode:           in.PostalCode,
		StreetName:           in.StreetName,
		ReceiverName:         in.ReceiverName,
		PackageSize:          in.PackageSize,
		Status:               entities.StatusInProgress,
		ExpectedDeliveryDate: expectedDelivery(s.now()),
	}

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return uuid.Nil, err
	}

	s.logger.Debug("order created",
		slog.String("order_id", order.ID.String()),
		slog.String("package_name", order.PackageName),
	)
	return order.ID, nil
}

// expectedDelivery is the date-only promise derived from the creation time:
// the calendar date seven days out in the creation time's zone, so a late
// evening creation never shifts the promised day.
func expectedDelivery(createdAt time.Time) time.Time {
	year, month, day := createdAt.Date()
	return time.Date(year, month, day+deliveryLeadDays, 0, 0, 0, 0, createdAt.Location())
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (entities.ShippingOrder, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// ListOrders returns one page of orders. Offset counts pages, not rows, and
// the page size is clamped to [1, 10].
func (s *orderService) ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit int) ([]entities.ShippingOrder, error) {
	if limit < minListLimit {
		limit = minListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrders(ctx, status, uint64(offset)*uint64(limit), uint64(limit))
}

// UpdateOrderStatus applies a fulfillment status update. The actual delivery
// time is only recorded together with a DELIVERED status.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entities.OrderStatus, actualDelivery *time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("unknown order status %q", status)
	}
	if status != entities.StatusDelivered {
		actualDelivery = nil
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, status, actualDelivery); err != nil {
		return err
	}

	s.logger.Debug("order status updated",
		slog.String("order_id", id.String()),
		slog.String("status", string(status)),
	)
	return nil
}
