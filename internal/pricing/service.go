package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/geo"
	"github.com/richxcame/ridemeter/internal/promos"
	"github.com/richxcame/ridemeter/internal/routing"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/logger"
	"github.com/richxcame/ridemeter/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// QuoteRequest asks for a priced route
type QuoteRequest struct {
	From        geo.LatLng
	To          geo.LatLng
	Category    tariffs.VehicleCategory
	ServiceType ServiceType
	RoundTrip   bool
	RemoteZone  *bool // nil derives the flag from the zone index
	RiderID     *uuid.UUID
	PromoCode   string
	PickupTime  time.Time // zero means now
}

// Quote is a route estimate plus its fare
type Quote struct {
	Route         *routing.RouteEstimate `json:"route"`
	Fare          FareQuote              `json:"fare"`
	Discounts     DiscountResult         `json:"discounts"`
	Applied       Discounts              `json:"applied"`
	Total         float64                `json:"total"`
	Currency      string                 `json:"currency"`
	FormattedFare string                 `json:"formatted_fare"`
	TimeOfDay     tariffs.TimeOfDay      `json:"time_of_day"`
	PickupTime    time.Time              `json:"pickup_time"`
}

// Service orchestrates route estimation, fare computation and discount lookups
type Service struct {
	calc      *Calculator
	estimator RouteEstimator
	clock     Clock
	rates     RateProvider
	zones     *geo.ZoneIndex
	wallets   promos.WalletLookup
	promos    promos.PromoValidator
	settings  *config.PricingConfig
	now       func() time.Time
}

// NewService wires the pricing service. zones, wallets and promoValidator may be nil.
func NewService(calc *Calculator, estimator RouteEstimator, clock Clock, rates RateProvider, zones *geo.ZoneIndex,
	wallets promos.WalletLookup, promoValidator promos.PromoValidator, settings *config.PricingConfig) *Service {
	return &Service{
		calc:      calc,
		estimator: estimator,
		clock:     clock,
		rates:     rates,
		zones:     zones,
		wallets:   wallets,
		promos:    promoValidator,
		settings:  settings,
		now:       time.Now,
	}
}

// Calculator returns the underlying calculator
func (s *Service) Calculator() *Calculator {
	return s.calc
}

// Config returns the pricing context in effect right now
func (s *Service) Config() PricingConfig {
	return NewPricingConfig(s.settings, s.rates.Current())
}

// TimeOfDayAt exposes the tariff clock
func (s *Service) TimeOfDayAt(t time.Time) tariffs.TimeOfDay {
	return s.clock.TimeOfDayAt(t)
}

// Quote estimates the route and prices it. Wallet and promo lookup failures
// only drop the corresponding discount.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	ctx, span := tracing.Tracer("pricing").Start(ctx, "Service.Quote")
	defer span.End()

	route, err := s.estimator.EstimateRoute(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}

	pickup := req.PickupTime
	if pickup.IsZero() {
		pickup = s.now()
	}
	tod := s.clock.TimeOfDayAt(pickup)

	remote := s.zones.AnyRemote(req.From, req.To)
	if req.RemoteZone != nil {
		remote = *req.RemoteZone
	}

	serviceType := req.ServiceType
	if serviceType == "" {
		serviceType = ServiceHourly
	}

	cfg := s.Config()
	fare := s.calc.ComputeFare(cfg, FareRequest{
		Category:    req.Category,
		ServiceType: serviceType,
		DurationMin: route.DurationMin,
		DistanceKm:  route.DistanceKm,
		TimeOfDay:   tod,
		Flags:       FareFlags{RemoteZone: remote, RoundTrip: req.RoundTrip},
	})

	applied := s.LookupDiscounts(ctx, cfg, req.RiderID, req.PromoCode, fare.Amount)
	result := s.calc.ApplyDiscounts(cfg, fare.Amount, applied)

	span.SetAttributes(
		attribute.String("fare.category", string(fare.Category)),
		attribute.String("fare.service_type", string(fare.ServiceType)),
		attribute.Float64("fare.amount", fare.Amount),
		attribute.Float64("fare.total", result.Final),
	)

	return &Quote{
		Route:         route,
		Fare:          fare,
		Discounts:     result,
		Applied:       applied,
		Total:         result.Final,
		Currency:      cfg.DisplayCurrency,
		FormattedFare: s.calc.converter.FormatAmount(result.Final, cfg.DisplayCurrency),
		TimeOfDay:     tod,
		PickupTime:    pickup,
	}, nil
}

// LookupDiscounts resolves the wallet tier and promo code for amount (display
// currency). Collaborator failures are logged and ignored.
func (s *Service) LookupDiscounts(ctx context.Context, cfg PricingConfig, riderID *uuid.UUID, promoCode string, amount float64) Discounts {
	var d Discounts
	log := logger.WithContext(ctx)

	if riderID != nil && s.wallets != nil {
		balance, err := s.wallets.GetWalletBalance(ctx, *riderID)
		switch {
		case err != nil && common.IsNotFound(err):
		case err != nil:
			log.Warn("wallet lookup failed, skipping wallet discount", zap.String("rider_id", riderID.String()), zap.Error(err))
		default:
			threshold, ok := cfg.WalletThresholdIn(balance.Currency)
			if !ok {
				log.Warn("wallet currency not comparable to tier threshold",
					zap.String("rider_id", riderID.String()),
					zap.String("wallet_currency", balance.Currency),
				)
				break
			}
			d.WalletQualifies = promos.WalletQualifies(balance.Amount, threshold)
		}
	}

	if promoCode != "" && s.promos != nil {
		discount, err := s.promos.ValidatePromoCode(ctx, promoCode, amount)
		if err != nil {
			log.Warn("promo validation failed, skipping promo discount", zap.String("promo_code", promoCode), zap.Error(err))
		} else {
			d.Promo = discount
		}
	}

	return d
}

// SettleRequest describes a completed ride to settle. EstimatedPrice is in the
// display currency, as stored on the ride.
type SettleRequest struct {
	RideID         uuid.UUID               `json:"ride_id"`
	Category       tariffs.VehicleCategory `json:"category"`
	TimeOfDay      tariffs.TimeOfDay       `json:"time_of_day"`
	EstimatedPrice float64                 `json:"estimated_price"`
	ElapsedSeconds int64                   `json:"elapsed_seconds"`
	RiderID        *uuid.UUID              `json:"rider_id,omitempty"`
	PromoCode      string                  `json:"promo_code,omitempty"`
}

// Settle computes the final fare of a ride: estimate plus the hourly-slot
// surcharge for elapsedSeconds minus discounts, never negative.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*Settlement, error) {
	cfg := s.Config()
	surcharge := s.calc.Surcharge(cfg, req.Category, req.TimeOfDay, req.ElapsedSeconds)
	discounts := s.LookupDiscounts(ctx, cfg, req.RiderID, req.PromoCode, req.EstimatedPrice)

	settlement := s.calc.Settle(cfg, req.EstimatedPrice, surcharge, discounts)
	if settlement.Clamped {
		logger.WithContext(ctx).Warn("settlement clamped at zero",
			zap.String("ride_id", req.RideID.String()),
			zap.Float64("estimated_price", req.EstimatedPrice),
			zap.Float64("surcharge", surcharge),
			zap.Float64("total_discount", settlement.TotalDiscount),
		)
	}
	return &settlement, nil
}

// Surcharge returns the display-currency surcharge for elapsedSeconds of
// active billing
func (s *Service) Surcharge(category tariffs.VehicleCategory, tod tariffs.TimeOfDay, elapsedSeconds int64) float64 {
	return s.calc.Surcharge(s.Config(), category, tod, elapsedSeconds)
}
