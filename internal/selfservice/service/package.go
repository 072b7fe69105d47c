package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/internal/selfservice/client"
	"github.com/zlatkom/package-self-service/pkg/resilience"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type EmployeeRepo interface {
	GetEmployeeByID(ctx context.Context, id uuid.UUID) (entities.Employee, error)
}

type PackageRepo interface {
	// SavePackage is idempotent on the downstream order URL.
	SavePackage(ctx context.Context, p entities.Package) error
	GetPackageByIDAndSender(ctx context.Context, id, senderID uuid.UUID) (entities.Package, error)
	ListPackagesBySender(ctx context.Context, senderID uuid.UUID) ([]entities.Package, error)

	SaveOrphan(ctx context.Context, o entities.OrphanedOrder) error
	ListOrphans(ctx context.Context, limit int) ([]entities.OrphanedOrder, error)
	DeleteOrphan(ctx context.Context, orderURL string) error
}

type ShippingClient interface {
	CreateOrder(ctx context.Context, order client.ShippingOrder) (string, error)
	GetOrder(ctx context.Context, orderID string) (client.OrderSnapshot, error)
}

// Limiter admits or rejects an operation at call time. *rate.Limiter
// satisfies it.
type Limiter interface {
	Allow() bool
}

type Options struct {
	// EnrichConcurrency caps the parallel downstream reads of ListPackageDetails.
	EnrichConcurrency int
	// PersistRetry governs the local-persistence retry after a remote order
	// was already created.
	PersistRetry resilience.RetryConfig
	// ReconcileBatch is the maximum number of orphaned orders handled per
	// reconciliation run.
	ReconcileBatch int
}

type packageService struct {
	logger    *slog.Logger
	employees EmployeeRepo
	packages  PackageRepo
	shipping  ShippingClient
	limiter   Limiter
	opts      Options
}

func NewPackageService(
	logger *slog.Logger,
	employees EmployeeRepo,
	packages PackageRepo,
	shipping ShippingClient,
	limiter Limiter,
	opts Options,
) *packageService {
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 8
	}
	if opts.ReconcileBatch <= 0 {
		opts.ReconcileBatch = 100
	}
	return &packageService{
		logger:    logger.With(slog.String("service", "package")),
		employees: employees,
		packages:  packages,
		shipping:  shipping,
		limiter:   limiter,
		opts:      opts,
	}
}

// SubmitPackage validates the sender and recipient, creates a shipping order
// downstream and persists the local package record. The remote creation
// always happens before local persistence; when persistence keeps failing
// after the order was created, the submission is recorded as an orphaned
// order for the reconciliation job and the error is returned.
func (s *packageService) SubmitPackage(ctx context.Context, sub entities.Submission) (uuid.UUID, error) {
	if !s.limiter.Allow() {
		return uuid.Nil, entities.ErrRateLimited
	}

	if _, err := s.getSender(ctx, sub.SenderID); err != nil {
		return uuid.Nil, err
	}
	recipient, err := s.getRecipient(ctx, sub.RecipientID)
	if err != nil {
		return uuid.Nil, err
	}

	order := client.ShippingOrder{
		PackageName:  sub.PackageName,
		PostalCode:   recipient.PostalCode,
		StreetName:   recipient.Street,
		ReceiverName: recipient.Name,
		PackageSize:  string(entities.SizeFromWeight(sub.WeightInGrams)),
	}

	location, err := s.shipping.CreateOrder(ctx, order)
	if err != nil {
		return uuid.Nil, err
	}

	pkg := entities.Package{
		ID:            uuid.New(),
		PackageName:   sub.PackageName,
		WeightInGrams: sub.WeightInGrams,
		SenderID:      sub.SenderID,
		RecipientID:   sub.RecipientID,
		OrderURL:      location,
		RegisteredAt:  time.Now(),
	}

	// The shipping order already exists, so only the local insert is
	// retried; re-running the downstream create would risk a duplicate.
	err = resilience.Retry(ctx, s.opts.PersistRetry, func() error {
		return s.packages.SavePackage(ctx, pkg)
	})
	if err != nil {
		s.recordOrphan(ctx, sub, location)
		return uuid.Nil, fmt.Errorf("failed to persist package for order %s: %w", location, err)
	}

	s.logger.Debug("package submitted",
		slog.String("package_id", pkg.ID.String()),
		slog.String("order_url", location),
	)
	return pkg.ID, nil
}

// GetPackageDetails returns the sender's package enriched with the live
// shipping order state. The lookup is scoped to the sender: a package id
// owned by someone else reads as not found.
func (s *packageService) GetPackageDetails(ctx context.Context, packageID, senderID uuid.UUID) (entities.PackageDetails, error) {
	if !s.limiter.Allow() {
		return entities.PackageDetails{}, entities.ErrRateLimited
	}

	if _, err := s.getSender(ctx, senderID); err != nil {
		return entities.PackageDetails{}, err
	}

	pkg, err := s.packages.GetPackageByIDAndSender(ctx, packageID, senderID)
	if err != nil {
		return entities.PackageDetails{}, err
	}

	return s.enrich(ctx, pkg)
}

// ListPackageDetails enriches all of the sender's packages concurrently and
// optionally filters them by live status.
func (s *packageService) ListPackageDetails(ctx context.Context, senderID uuid.UUID, status *entities.OrderStatus) ([]entities.PackageDetails, error) {
	if !s.limiter.Allow() {
		return nil, entities.ErrRateLimited
	}

	if _, err := s.getSender(ctx, senderID); err != nil {
		return nil, err
	}

	pkgs, err := s.packages.ListPackagesBySender(ctx, senderID)
	if err != nil {
		return nil, err
	}

	enriched := make([]entities.PackageDetails, len(pkgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.EnrichConcurrency)
	for i, pkg := range pkgs {
		i, pkg := i, pkg
		g.Go(func() error {
			details, err := s.enrich(gctx, pkg)
			if err != nil {
				return err
			}
			enriched[i] = details
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if status == nil {
		return enriched, nil
	}
	filtered := make([]entities.PackageDetails, 0, len(enriched))
	for _, details := range enriched {
		if details.Status == *status {
			filtered = append(filtered, details)
		}
	}
	return filtered, nil
}

// ReconcileOrphans re-persists package records for shipping orders whose
// local insert failed at submission time. SavePackage is idempotent on the
// order URL, so replays are harmless.
func (s *packageService) ReconcileOrphans(ctx context.Context) error {
	orphans, err := s.packages.ListOrphans(ctx, s.opts.ReconcileBatch)
	if err != nil {
		return err
	}

	for _, orphan := range orphans {
		pkg := entities.Package{
			ID:            uuid.New(),
			PackageName:   orphan.Submission.PackageName,
			WeightInGrams: orphan.Submission.WeightInGrams,
			SenderID:      orphan.Submission.SenderID,
			RecipientID:   orphan.Submission.RecipientID,
			OrderURL:      orphan.OrderURL,
			RegisteredAt:  orphan.RecordedAt,
		}
		if err := s.packages.SavePackage(ctx, pkg); err != nil {
			return fmt.Errorf("failed to reconcile order %s: %w", orphan.OrderURL, err)
		}
		if err := s.packages.DeleteOrphan(ctx, orphan.OrderURL); err != nil {
			return fmt.Errorf("failed to clear orphaned order %s: %w", orphan.OrderURL, err)
		}
		s.logger.Info("orphaned order reconciled", slog.String("order_url", orphan.OrderURL))
	}
	return nil
}

func (s *packageService) enrich(ctx context.Context, pkg entities.Package) (entities.PackageDetails, error) {
	orderID := lastPathSegment(pkg.OrderURL)

	snapshot, err := s.shipping.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, entities.ErrOrderNotFound) {
			// A local record always points at an existing order; this is a
			// data integrity anomaly, not a user error.
			s.logger.Error("local package references missing shipping order",
				slog.String("package_id", pkg.ID.String()),
				slog.String("order_url", pkg.OrderURL),
			)
		}
		return entities.PackageDetails{}, err
	}

	recipient, err := s.employees.GetEmployeeByID(ctx, pkg.RecipientID)
	if err != nil {
		return entities.PackageDetails{}, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	return entities.PackageDetails{
		PackageID:            pkg.ID,
		PackageName:          pkg.PackageName,
		RegisteredAt:         pkg.RegisteredAt,
		Status:               snapshot.Status,
		ExpectedDeliveryDate: snapshot.ExpectedDeliveryDate,
		ActualDeliveryAt:     snapshot.ActualDeliveryAt,
		Recipient: entities.Recipient{
			ID:      recipient.ID,
			Name:    recipient.Name,
			Address: recipient.Address(),
		},
	}, nil
}

func (s *packageService) getSender(ctx context.Context, id uuid.UUID) (entities.Employee, error) {
	sender, err := s.employees.GetEmployeeByID(ctx, id)
	if errors.Is(err, entities.ErrEmployeeNotFound) {
		return entities.Employee{}, entities.ErrSenderNotFound
	}
	return sender, err
}

func (s *packageService) getRecipient(ctx context.Context, id uuid.UUID) (entities.Employee, error) {
	recipient, err := s.employees.GetEmployeeByID(ctx, id)
	if errors.Is(err, entities.ErrEmployeeNotFound) {
		return entities.Employee{}, entities.ErrRecipientNotFound
	}
	return recipient, err
}

func (s *packageService) recordOrphan(ctx context.Context, sub entities.Submission, orderURL string) {
	orphan := entities.OrphanedOrder{
		OrderURL:   orderURL,
		Submission: sub,
		RecordedAt: time.Now(),
	}
	if err := s.packages.SaveOrphan(ctx, orphan); err != nil {
		// The order URL survives in the logs as a last resort.
		s.logger.Error("failed to record orphaned order",
			slog.String("order_url", orderURL),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Warn("shipping order orphaned, queued for reconciliation",
		slog.String("order_url", orderURL),
	)
}

func lastPathSegment(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
