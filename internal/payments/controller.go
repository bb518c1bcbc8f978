package payments

import (
	"errors"
	"net/http"

	"wedbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	callbacks *CallbackProcessor
}

func NewController(callbacks *CallbackProcessor) *Controller {
	return &Controller{callbacks: callbacks}
}

// Callback receives the hosted widget's result for a pending checkout
func (c *Controller) Callback(ctx *gin.Context) {
	var req CallbackResult
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}
	if req.Status == CallbackSuccess && req.PaymentID == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, "paymentId is required for a successful payment")
		return
	}

	if err := c.callbacks.Deliver(req); err != nil {
		statusCode := http.StatusConflict
		if errors.Is(err, ErrNoPendingCheckout) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Checkout is not awaiting a result", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusAccepted, "Payment result received", nil, nil)
}

// GetPendingCheckout lets the widget pick up order id and amount for a receipt
func (c *Controller) GetPendingCheckout(ctx *gin.Context) {
	pending, ok := c.callbacks.Pending(ctx.Param("receipt"))
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "No pending checkout", nil, nil)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Pending checkout retrieved successfully", pending, nil)
}
