package promos

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/middleware"
	"go.uber.org/zap"
)

// Handler exposes promo code checks over HTTP
type Handler struct {
	validator PromoValidator
	decimals  int
}

// NewHandler creates a new promos handler. decimals is the display currency precision.
func NewHandler(validator PromoValidator, decimals int) *Handler {
	return &Handler{validator: validator, decimals: decimals}
}

// ValidateResponse is returned by ValidatePromoCode
type ValidateResponse struct {
	Valid            bool      `json:"valid"`
	Discount         *Discount `json:"discount,omitempty"`
	DiscountedAmount float64   `json:"discounted_amount"`
}

// ValidatePromoCode previews a promo code against an amount
func (h *Handler) ValidatePromoCode(c *gin.Context) {
	var req struct {
		Code   string  `json:"code" binding:"required" validate:"required,max=32"`
		Amount float64 `json:"amount" binding:"required,gt=0" validate:"gt=0"`
	}
	if !middleware.BindJSON(c, &req) {
		return
	}

	discount, err := h.validator.ValidatePromoCode(c.Request.Context(), req.Code, req.Amount)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("promo validation failed", zap.String("code", req.Code), zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to validate promo code")
		return
	}

	resp := ValidateResponse{Valid: discount != nil, DiscountedAmount: req.Amount}
	if discount != nil {
		resp.Discount = discount
		resp.DiscountedAmount, _ = discount.Apply(req.Amount, h.decimals)
	}
	common.SuccessResponse(c, resp)
}

// RegisterRoutes mounts the promo endpoints on rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/promos/validate", h.ValidatePromoCode)
}
