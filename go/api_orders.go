package bookstoreserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/hamrobooks/bookstore-api/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/hamrobooks/bookstore-api/internal/domains/orders/application"
	orderdomain "github.com/hamrobooks/bookstore-api/internal/domains/orders/domain"
	ordersports "github.com/hamrobooks/bookstore-api/internal/domains/orders/ports"
	apierrors "github.com/hamrobooks/bookstore-api/internal/shared/errors"
)

var errMissingRef = errors.New("pidx is required")

// OrdersAPI wires HTTP transport with the orders bounded context service and
// the durable settlement workflows.
type OrdersAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Post /api/orders
// Place an order from the authenticated buyer's cart
func (api *OrdersAPI) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, errMissingToken)
		return
	}
	var payload orderhttpmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input, err := orderhttpmapper.ToCheckoutInput(user.ID, payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.service.Checkout(c.Request.Context(), input)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromCheckoutResult(result))
}

// Get /api/orders/my-orders
// List the authenticated buyer's orders, newest first
func (api *OrdersAPI) GetMyOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, errMissingToken)
		return
	}
	orders, err := api.service.MyOrders(c.Request.Context(), user.ID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrderList(orders))
}

// Post /api/orders/verify-payment
// Settle a wallet payment after the buyer returns from the provider.
// Unauthenticated: the provider redirect carries no session.
func (api *OrdersAPI) VerifyPayment(c *gin.Context) {
	var payload orderhttpmapper.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	ref := orderhttpmapper.NormalizeRef(payload.TransactionRef)
	if ref == "" {
		respondError(c, http.StatusBadRequest, errMissingRef)
		return
	}
	order, err := api.settlePayment(c.Request.Context(), ref)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

func (api *OrdersAPI) settlePayment(ctx context.Context, ref string) (*orderdomain.Order, error) {
	if api.workflows != nil {
		return api.workflows.SettlePayment(ctx, ref)
	}
	return api.service.VerifyPayment(ctx, ref)
}

// Get /api/orders
// List every order (admin)
func (api *OrdersAPI) GetAllOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrderList(orders))
}

// Get /api/orders/:orderId
// Find order by ID (admin)
func (api *OrdersAPI) GetOrderById(c *gin.Context) {
	order, err := api.service.GetByID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Put /api/orders/:orderId/status
// Move an order through the fulfillment pipeline (admin)
func (api *OrdersAPI) UpdateOrderStatus(c *gin.Context) {
	var payload orderhttpmapper.StatusUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	status, err := orderhttpmapper.ToStatus(payload)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.UpdateOrderStatus(c.Request.Context(), ordersports.StatusUpdateInput{
		OrderID: c.Param("orderId"),
		Status:  status,
	})
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, ordersapp.ErrBookNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, ordersapp.ErrInsufficientStock):
		respondProblem(c, apierrors.ErrInsufficientStock.WithDetail(err.Error()))
	case errors.Is(err, ordersapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		respondError(c, http.StatusConflict, err)
	case errors.Is(err, ordersports.ErrGateway):
		respondProblem(c, apierrors.ErrPaymentGateway.WithDetail(err.Error()))
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
