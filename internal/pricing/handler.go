package pricing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/geo"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/middleware"
	"go.uber.org/zap"
)

// Quoter is the part of Service the handler needs
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	Config() PricingConfig
}

// Handler handles HTTP requests for pricing
type Handler struct {
	quoter Quoter
	table  tariffs.Table
}

// NewHandler creates a new pricing handler
func NewHandler(quoter Quoter, table tariffs.Table) *Handler {
	return &Handler{quoter: quoter, table: table}
}

// EstimateRequest is the body of POST /estimates
type EstimateRequest struct {
	PickupLat   float64    `json:"pickup_lat" validate:"latitude"`
	PickupLng   float64    `json:"pickup_lng" validate:"longitude"`
	DropoffLat  float64    `json:"dropoff_lat" validate:"latitude"`
	DropoffLng  float64    `json:"dropoff_lng" validate:"longitude"`
	Category    string     `json:"category" binding:"required" validate:"required,max=32"`
	ServiceType string     `json:"service_type" validate:"omitempty,trip_type"`
	RoundTrip   bool       `json:"round_trip"`
	RemoteZone  *bool      `json:"remote_zone,omitempty"`
	RiderID     *uuid.UUID `json:"rider_id,omitempty"`
	PromoCode   string     `json:"promo_code" validate:"omitempty,max=32"`
	PickupTime  *time.Time `json:"pickup_time,omitempty"`
}

// ToQuoteRequest converts the wire request
func (r EstimateRequest) ToQuoteRequest() QuoteRequest {
	serviceType, _ := ParseServiceType(r.ServiceType)
	q := QuoteRequest{
		From:        geo.LatLng{Lat: r.PickupLat, Lng: r.PickupLng},
		To:          geo.LatLng{Lat: r.DropoffLat, Lng: r.DropoffLng},
		Category:    tariffs.VehicleCategory(r.Category),
		ServiceType: serviceType,
		RoundTrip:   r.RoundTrip,
		RemoteZone:  r.RemoteZone,
		RiderID:     r.RiderID,
		PromoCode:   r.PromoCode,
	}
	if r.PickupTime != nil {
		q.PickupTime = *r.PickupTime
	}
	return q
}

// CreateEstimate prices a pickup/dropoff pair
func (h *Handler) CreateEstimate(c *gin.Context) {
	var req EstimateRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	quote, err := h.quoter.Quote(c.Request.Context(), req.ToQuoteRequest())
	if err != nil {
		if common.StatusCode(err) >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).Error("failed to compute estimate", zap.Error(err))
		}
		common.AppErrorResponse(c, err)
		return
	}

	common.SuccessResponse(c, quote)
}

// TariffsResponse lists the tariff table with the current pricing context
type TariffsResponse struct {
	Tariffs tariffs.Table `json:"tariffs"`
	Pricing PricingConfig `json:"pricing"`
}

// GetTariffs returns the tariff table
func (h *Handler) GetTariffs(c *gin.Context) {
	common.SuccessResponse(c, TariffsResponse{Tariffs: h.table, Pricing: h.quoter.Config()})
}

// RegisterRoutes mounts the pricing endpoints on rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/estimates", h.CreateEstimate)
	rg.GET("/tariffs", h.GetTariffs)
}
