package rides

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/middleware"
	"go.uber.org/zap"
)

// Quoter prices a ride at booking time
type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.Quote, error)
}

// Handler handles HTTP requests for rides
type Handler struct {
	service *Service
	quoter  Quoter
}

// NewHandler creates a new rides handler
func NewHandler(service *Service, quoter Quoter) *Handler {
	return &Handler{service: service, quoter: quoter}
}

// CreateRideResponse is returned when a ride is booked
type CreateRideResponse struct {
	Ride  *Ride          `json:"ride"`
	Quote *pricing.Quote `json:"quote"`
}

// CreateRide books a ride at the quoted, pre-discount price. Discounts are
// taken again at settlement.
func (h *Handler) CreateRide(c *gin.Context) {
	var req pricing.EstimateRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	if req.RiderID == nil {
		common.ErrorResponse(c, http.StatusBadRequest, "rider_id is required")
		return
	}
	if _, ok := tariffs.ParseCategory(req.Category); !ok {
		common.ErrorResponse(c, http.StatusBadRequest, "unknown vehicle category")
		return
	}

	ctx := c.Request.Context()
	qr := req.ToQuoteRequest()
	quote, err := h.quoter.Quote(ctx, qr)
	if err != nil {
		h.fail(c, "failed to quote ride", err)
		return
	}

	in := NewRide{
		RiderID:              *req.RiderID,
		VehicleCategory:      quote.Fare.Category,
		ServiceType:          string(quote.Fare.ServiceType),
		EstimatedPrice:       quote.Fare.Amount,
		Currency:             quote.Currency,
		DistanceKm:           quote.Route.DistanceKm,
		EstimatedDurationMin: quote.Route.DurationMin,
		PickupTime:           quote.PickupTime,
	}
	if req.PromoCode != "" {
		in.PromoCode = &req.PromoCode
	}

	ride, err := h.service.CreateRide(ctx, in)
	if err != nil {
		h.fail(c, "failed to create ride", err)
		return
	}

	common.CreatedResponse(c, CreateRideResponse{Ride: ride, Quote: quote})
}

// GetRide returns the ride record; passenger clients poll it
func (h *Handler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		h.fail(c, "failed to get ride", err)
		return
	}

	common.SuccessResponse(c, ride)
}

// UpdateRide applies a driver patch
func (h *Handler) UpdateRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	var patch Patch
	if !middleware.BindJSON(c, &patch) {
		return
	}
	if patch.IsEmpty() {
		common.ErrorResponse(c, http.StatusBadRequest, "empty patch")
		return
	}

	ride, err := h.service.UpdateRide(c.Request.Context(), rideID, patch)
	if err != nil {
		h.fail(c, "failed to update ride", err)
		return
	}

	common.SuccessResponse(c, ride)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if common.StatusCode(err) >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(msg, zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, msg)
		return
	}
	common.AppErrorResponse(c, err)
}

// RegisterRoutes registers ride routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rides := rg.Group("/rides")
	{
		rides.POST("", h.CreateRide)
		rides.GET("/:id", h.GetRide)
		rides.PATCH("/:id", h.UpdateRide)
	}
}
