package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var orderColumns = []string{
	"id", "package_name", "postal_code", "street_name", "receiver_name",
	"package_size", "status", "expected_delivery_date", "actual_delivery_at",
}

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveOrder inserts a new shipping order. The unique index on package_name
// backstops the service-level duplicate check against concurrent creates.
func (r *postgresRepo) SaveOrder(ctx context.Context, o entities.ShippingOrder) error {
	query, args := r.qb.Insert("shipping_orders").
		Columns(orderColumns...).
		Values(o.ID, o.PackageName, o.PostalCode, o.StreetName, o.ReceiverName,
			string(o.PackageSize), string(o.Status), o.ExpectedDeliveryDate, o.ActualDeliveryAt).
		MustSql()

	_, err := r.db.ExecContext(ctx, query, args...)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &entities.DuplicatePackageNameError{PackageName: o.PackageName}
	}
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (entities.ShippingOrder, error) {
	query, args := r.qb.Select(orderColumns...).
		From("shipping_orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	var order ShippingOrder
	err := r.db.GetContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.ShippingOrder{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.ShippingOrder{}, fmt.Errorf("failed to get order: %w", err)
	}
	return OrderToEntity(order), nil
}

func (r *postgresRepo) OrderExistsByPackageName(ctx context.Context, packageName string) (bool, error) {
	query, args := r.qb.Select("1").
		From("shipping_orders").
		Where(sq.Eq{"package_name": packageName}).
		MustSql()

	var one int
	err := r.db.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check package name: %w", err)
	}
	return true, nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit uint64) ([]entities.ShippingOrder, error) {
	builder := r.qb.Select(orderColumns...).
		From("shipping_orders").
		OrderBy("package_name").
		Offset(offset).
		Limit(limit)
	if status != nil {
		builder = builder.Where(sq.Eq{"status": string(*status)})
	}
	query, args := builder.MustSql()

	var rows []ShippingOrder
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]entities.ShippingOrder, 0, len(rows))
	for _, row := range rows {
		result = append(result, OrderToEntity(row))
	}
	return result, nil
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status entities.OrderStatus, actualDelivery *time.Time) error {
	query, args := r.qb.Update("shipping_orders").
		Set("status", string(status)).
		Set("actual_delivery_at", actualDelivery).
		Where(sq.Eq{"id": id}).
		MustSql()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}
