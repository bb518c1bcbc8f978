package escrow

import (
	"errors"
	"net/http"
	"time"

	"wedbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	ledger *Ledger
}

func NewController(ledger *Ledger) *Controller {
	return &Controller{ledger: ledger}
}

type accountView struct {
	*Account
	ReleaseDeadline *time.Time `json:"releaseDeadline,omitempty"`
}

func viewOf(a *Account) accountView {
	v := accountView{Account: a}
	if deadline, ok := ReleaseDeadline(a); ok {
		v.ReleaseDeadline = &deadline
	}
	return v
}

func (c *Controller) GetAccount(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid escrow ID", nil, err.Error())
		return
	}

	account, err := c.ledger.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "Failed to get escrow account", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Escrow account retrieved successfully", viewOf(account), nil)
}

func (c *Controller) Release(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid escrow ID", nil, err.Error())
		return
	}

	account, err := c.ledger.Release(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "Failed to release escrow", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Escrow released successfully", viewOf(account), nil)
}

func (c *Controller) Refund(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid escrow ID", nil, err.Error())
		return
	}

	account, err := c.ledger.Refund(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, "Failed to refund escrow", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Escrow refunded successfully", viewOf(account), nil)
}

func respondError(ctx *gin.Context, message string, err error) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		statusCode = http.StatusConflict
	}
	response.RespondJSON(ctx, "error", statusCode, message, nil, err.Error())
}
