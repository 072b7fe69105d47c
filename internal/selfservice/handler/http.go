package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type PackageService interface {
	SubmitPackage(ctx context.Context, sub entities.Submission) (uuid.UUID, error)
	GetPackageDetails(ctx context.Context, packageID, senderID uuid.UUID) (entities.PackageDetails, error)
	ListPackageDetails(ctx context.Context, senderID uuid.UUID, status *entities.OrderStatus) ([]entities.PackageDetails, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      PackageService
}

func NewHTTPHandler(logger *slog.Logger, svc PackageService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/api/package-self-service", func(r chi.Router) {
		r.Post("/", h.SubmitPackage)
		r.Get("/", h.ListPackages)
		r.Get("/{packageId}", h.GetPackage)
	})
}

func (h *HTTPHandler) SubmitPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SubmitPackage
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	sub := entities.Submission{
		PackageName:   body.PackageName,
		WeightInGrams: body.WeightInGrams,
		SenderID:      uuid.MustParse(body.SenderID),
		RecipientID:   uuid.MustParse(body.RecipientID),
	}

	id, err := h.svc.SubmitPackage(ctx, sub)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+id.String())
	utils.WriteJSON(w, SubmitPackageResponse{PackageID: id.String()}, http.StatusCreated)
}

func (h *HTTPHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	packageID, err := uuid.Parse(chi.URLParam(r, "packageId"))
	if err != nil {
		utils.WriteError(w, "packageId must be a valid UUID", http.StatusBadRequest)
		return
	}
	senderID, err := uuid.Parse(r.URL.Query().Get("senderId"))
	if err != nil {
		utils.WriteError(w, "senderId must be a valid UUID", http.StatusBadRequest)
		return
	}

	details, err := h.svc.GetPackageDetails(ctx, packageID, senderID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PackageDetailsToJSON(details), http.StatusOK)
}

func (h *HTTPHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	senderID, err := uuid.Parse(r.URL.Query().Get("senderId"))
	if err != nil {
		utils.WriteError(w, "senderId must be a valid UUID", http.StatusBadRequest)
		return
	}

	var status *entities.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := entities.OrderStatus(raw)
		if !s.Valid() {
			utils.WriteError(w, "status must be one of: IN_PROGRESS, SENT, DELIVERED", http.StatusBadRequest)
			return
		}
		status = &s
	}

	details, err := h.svc.ListPackageDetails(ctx, senderID, status)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	res := make([]PackageDetails, 0, len(details))
	for _, d := range details {
		res = append(res, PackageDetailsToJSON(d))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}

// writeServiceError maps service errors onto the shared error envelope.
// Identity misses, the unknown package included, surface as 400: the caller
// sent a reference we cannot resolve, which is a client error here, not a
// missing resource.
func (h *HTTPHandler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrSenderNotFound):
		utils.WriteError(w, "sender not found", http.StatusBadRequest)
	case errors.Is(err, entities.ErrRecipientNotFound):
		utils.WriteError(w, "recipient not found", http.StatusBadRequest)
	case errors.Is(err, entities.ErrPackageNotFound):
		utils.WriteError(w, "package not found", http.StatusBadRequest)
	case errors.Is(err, entities.ErrDuplicatePackageName):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrRateLimited):
		utils.WriteError(w, "too many requests", http.StatusTooManyRequests)
	case errors.Is(err, entities.ErrShippingUnavailable):
		h.logger.ErrorContext(ctx, "shipping service unavailable", slog.Any("error", err))
		utils.WriteError(w, "shipping service unavailable", http.StatusInternalServerError)
	default:
		h.logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
