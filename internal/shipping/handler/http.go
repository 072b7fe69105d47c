package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/internal/shipping/service"
	"github.com/zlatkom/package-self-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.NewOrder) (uuid.UUID, error)
	GetOrder(ctx context.Context, id uuid.UUID) (entities.ShippingOrder, error)
	ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit int) ([]entities.ShippingOrder, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/shippingOrders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderId}", h.GetOrder)
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body CreateOrder
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	id, err := h.svc.CreateOrder(ctx, CreateOrderToNewOrder(body))
	if errors.Is(err, entities.ErrDuplicatePackageName) {
		utils.WriteError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+id.String())
	w.WriteHeader(http.StatusCreated)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, "orderId must be a valid UUID", http.StatusBadRequest)
		return
	}

	order, err := h.svc.GetOrder(ctx, id)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order", slog.Any("error", err), slog.String("order_id", id.String()))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var status *entities.OrderStatus
	if raw := query.Get("status"); raw != "" {
		s := entities.OrderStatus(raw)
		if !s.Valid() {
			utils.WriteError(w, "status must be one of: IN_PROGRESS, SENT, DELIVERED", http.StatusBadRequest)
			return
		}
		status = &s
	}

	// Unparsable paging values fall back to the first page; the service
	// clamps the limit.
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	orders, err := h.svc.ListOrders(ctx, status, offset, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]Order, 0, len(orders))
	for _, order := range orders {
		res = append(res, OrderEntityToJSON(order))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}
