package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zlatkom/package-self-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

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

func (r *postgresRepo) GetEmployeeByID(ctx context.Context, id uuid.UUID) (entities.Employee, error) {
	query, args := r.qb.Select("id", "name", "street", "city", "state", "postal_code", "country").
		From("employees").
		Where(sq.Eq{"id": id}).
		MustSql()

	var employee Employee
	err := r.db.GetContext(ctx, &employee, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Employee{}, entities.ErrEmployeeNotFound
	}
	if err != nil {
		return entities.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return EmployeeToEntity(employee), nil
}

// SavePackage persists a local package record. The insert is idempotent on
// the downstream order URL, so retries and reconciliation replays cannot
// produce a second record for the same shipping order.
func (r *postgresRepo) SavePackage(ctx context.Context, p entities.Package) error {
	query, args := r.qb.Insert("packages").
		Columns("id", "package_name", "weight_in_grams", "sender_id", "recipient_id", "order_url", "registered_at").
		Values(p.ID, p.PackageName, p.WeightInGrams, p.SenderID, p.RecipientID, p.OrderURL, p.RegisteredAt).
		Suffix("ON CONFLICT (order_url) DO NOTHING").
		MustSql()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save package: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetPackageByIDAndSender(ctx context.Context, id, senderID uuid.UUID) (entities.Package, error) {
	query, args := r.qb.Select("id", "package_name", "weight_in_grams", "sender_id", "recipient_id", "order_url", "registered_at").
		From("packages").
		Where(sq.Eq{"id": id, "sender_id": senderID}).
		MustSql()

	var pkg Package
	err := r.db.GetContext(ctx, &pkg, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Package{}, entities.ErrPackageNotFound
	}
	if err != nil {
		return entities.Package{}, fmt.Errorf("failed to get package: %w", err)
	}
	return PackageToEntity(pkg), nil
}

func (r *postgresRepo) ListPackagesBySender(ctx context.Context, senderID uuid.UUID) ([]entities.Package, error) {
	query, args := r.qb.Select("id", "package_name", "weight_in_grams", "sender_id", "recipient_id", "order_url", "registered_at").
		From("packages").
		Where(sq.Eq{"sender_id": senderID}).
		OrderBy("registered_at").
		MustSql()

	var rows []Package
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	result := make([]entities.Package, 0, len(rows))
	for _, row := range rows {
		result = append(result, PackageToEntity(row))
	}
	return result, nil
}

func (r *postgresRepo) SaveOrphan(ctx context.Context, o entities.OrphanedOrder) error {
	query, args := r.qb.Insert("orphaned_orders").
		Columns("order_url", "package_name", "weight_in_grams", "sender_id", "recipient_id", "recorded_at").
		Values(o.OrderURL, o.Submission.PackageName, o.Submission.WeightInGrams,
			o.Submission.SenderID, o.Submission.RecipientID, o.RecordedAt).
		Suffix("ON CONFLICT (order_url) DO NOTHING").
		MustSql()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save orphaned order: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListOrphans(ctx context.Context, limit int) ([]entities.OrphanedOrder, error) {
	query, args := r.qb.Select("order_url", "package_name", "weight_in_grams", "sender_id", "recipient_id", "recorded_at").
		From("orphaned_orders").
		OrderBy("recorded_at").
		Limit(uint64(limit)).
		MustSql()

	var rows []OrphanedOrder
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned orders: %w", err)
	}

	result := make([]entities.OrphanedOrder, 0, len(rows))
	for _, row := range rows {
		result = append(result, OrphanToEntity(row))
	}
	return result, nil
}

func (r *postgresRepo) DeleteOrphan(ctx context.Context, orderURL string) error {
	query, args := r.qb.Delete("orphaned_orders").
		Where(sq.Eq{"order_url": orderURL}).
		MustSql()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned order: %w", err)
	}
	return nil
}
