package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/middleware"
	"go.uber.org/zap"
)

// PricingService is the pricing surface the meter endpoints use
type PricingService interface {
	Pricer
	Settler
}

// Handler exposes the server-side meter view and settlement pricing
type Handler struct {
	rides      rides.Reader
	pricing    PricingService
	freeWindow time.Duration
	now        func() time.Time
}

// NewHandler creates a new billing handler
func NewHandler(reader rides.Reader, svc PricingService, freeWindow time.Duration) *Handler {
	if freeWindow <= 0 {
		freeWindow = FreeWaitingWindow
	}
	return &Handler{rides: reader, pricing: svc, freeWindow: freeWindow, now: time.Now}
}

// GetMeter returns the meter snapshot at server time
func (h *Handler) GetMeter(c *gin.Context) {
	ride, ok := h.loadRide(c)
	if !ok {
		return
	}
	common.SuccessResponse(c, SnapshotFor(ride, h.now(), h.freeWindow, h.pricing))
}

// SettlementRequest is the body of POST /rides/:id/settlement. Without
// elapsed_seconds the server-derived elapsed time is used.
type SettlementRequest struct {
	ElapsedSeconds *int64 `json:"elapsed_seconds" validate:"omitempty,gte=0"`
}

// PriceSettlement prices a ride for a frozen elapsed billing time. It does
// not write anything: the driver records the completion.
func (h *Handler) PriceSettlement(c *gin.Context) {
	var req SettlementRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	ride, ok := h.loadRide(c)
	if !ok {
		return
	}
	if ride.Status != rides.StatusInProgress && ride.Status != rides.StatusCompleted {
		common.ErrorResponse(c, http.StatusConflict, "ride is not in progress")
		return
	}

	elapsed := RestoreMeter(ride, h.freeWindow).Elapsed(h.now())
	if req.ElapsedSeconds != nil {
		elapsed = *req.ElapsedSeconds
	}

	settlement, err := h.pricing.Settle(c.Request.Context(), SettleRequestFor(ride, elapsed))
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to price settlement", zap.String("ride_id", ride.ID.String()), zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to price settlement")
		return
	}
	common.SuccessResponse(c, settlement)
}

func (h *Handler) loadRide(c *gin.Context) (*rides.Ride, bool) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return nil, false
	}
	ride, err := h.rides.GetRide(c.Request.Context(), rideID)
	if err != nil {
		if common.StatusCode(err) >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).Error("failed to get ride", zap.String("ride_id", rideID.String()), zap.Error(err))
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to get ride")
			return nil, false
		}
		common.AppErrorResponse(c, err)
		return nil, false
	}
	return ride, true
}

// RegisterRoutes mounts the meter endpoints on rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rides/:id/meter", h.GetMeter)
	rg.POST("/rides/:id/settlement", h.PriceSettlement)
}
