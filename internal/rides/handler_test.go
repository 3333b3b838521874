package rides

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/routing"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuoter struct {
	mock.Mock
}

func (m *mockQuoter) Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

func setupRouter(repo *mockRepository, quoter *mockQuoter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(repo), quoter).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestHandler_CreateRide(t *testing.T) {
	rider := uuid.New()
	pickup := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	quote := &pricing.Quote{
		Route:      &routing.RouteEstimate{DistanceKm: 5.7, DurationMin: 27},
		Fare:       pricing.FareQuote{Category: tariffs.Standard, ServiceType: pricing.ServiceHourly, Amount: 19600},
		Total:      18620,
		Currency:   "CDF",
		PickupTime: pickup,
	}
	promo := "KIN10"

	repo := new(mockRepository)
	quoter := new(mockQuoter)
	quoter.On("Quote", mock.Anything, mock.MatchedBy(func(q pricing.QuoteRequest) bool {
		return q.Category == tariffs.Standard && q.RiderID != nil && *q.RiderID == rider && q.PromoCode == promo
	})).Return(quote, nil)
	repo.On("CreateRide", mock.Anything, NewRide{
		RiderID:              rider,
		VehicleCategory:      tariffs.Standard,
		ServiceType:          "hourly",
		EstimatedPrice:       19600,
		Currency:             "CDF",
		DistanceKm:           5.7,
		EstimatedDurationMin: 27,
		PickupTime:           pickup,
		PromoCode:            &promo,
	}).Return(&Ride{ID: uuid.New(), RiderID: rider, EstimatedPrice: 19600, Status: StatusPending}, nil)

	body := `{"pickup_lat":-4.30,"pickup_lng":15.30,"dropoff_lat":-4.33,"dropoff_lng":15.31,` +
		`"category":"standard","rider_id":"` + rider.String() + `","promo_code":"KIN10"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rides", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setupRouter(repo, quoter).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data CreateRideResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 19600.0, resp.Data.Ride.EstimatedPrice)
	assert.Equal(t, 18620.0, resp.Data.Quote.Total)
	repo.AssertExpectations(t)
	quoter.AssertExpectations(t)
}

func TestHandler_CreateRide_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing rider", `{"pickup_lat":-4.3,"pickup_lng":15.3,"dropoff_lat":-4.3,"dropoff_lng":15.3,"category":"standard"}`},
		{"unknown category", `{"pickup_lat":-4.3,"pickup_lng":15.3,"dropoff_lat":-4.3,"dropoff_lng":15.3,"category":"limousine","rider_id":"` + uuid.NewString() + `"}`},
		{"bad latitude", `{"pickup_lat":-140,"pickup_lng":15.3,"dropoff_lat":-4.3,"dropoff_lng":15.3,"category":"standard","rider_id":"` + uuid.NewString() + `"}`},
		{"not json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quoter := new(mockQuoter)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rides", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			setupRouter(new(mockRepository), quoter).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_GetRide(t *testing.T) {
	id := uuid.New()
	repo := new(mockRepository)
	repo.On("GetRide", mock.Anything, id).Return(&Ride{ID: id, Status: StatusInProgress}, nil)

	w := httptest.NewRecorder()
	setupRouter(repo, new(mockQuoter)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rides/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"in_progress"`)
}

func TestHandler_GetRide_InvalidID(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(new(mockRepository), new(mockQuoter)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rides/nope", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UpdateRide(t *testing.T) {
	id := uuid.New()

	t.Run("conflict surfaces as 409", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("GetRide", mock.Anything, id).Return(&Ride{ID: id, Status: StatusPending}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rides/"+id.String(), strings.NewReader(`{"status":"completed"}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(repo, new(mockQuoter)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rides/"+id.String(), strings.NewReader(`{"status":"flying"}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(new(mockRepository), new(mockQuoter)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rides/"+id.String(), strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(new(mockRepository), new(mockQuoter)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("start ride", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("GetRide", mock.Anything, id).Return(&Ride{ID: id, Status: StatusAccepted}, nil)
		repo.On("UpdateRide", mock.Anything, id, mock.MatchedBy(func(p Patch) bool {
			return p.Status != nil && *p.Status == StatusInProgress && p.StartedAt != nil
		})).Return(&Ride{ID: id, Status: StatusInProgress}, nil)

		w := httptest.NewRecorder()
		body := `{"status":"in_progress","started_at":"2024-06-05T08:00:00Z","time_of_day_at_start":"day"}`
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/rides/"+id.String(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		setupRouter(repo, new(mockQuoter)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})
}
