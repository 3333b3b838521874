package rides

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetRide(t *testing.T) {
	id := uuid.New()
	start := time.Date(2024, 6, 5, 8, 10, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/rides/"+id.String(), r.URL.Path)
		_ = json.NewEncoder(w).Encode(common.Response{Success: true, Data: Ride{ID: id, Status: StatusInProgress, BillingStartTime: &start}})
	}))
	defer srv.Close()

	ride, err := NewClient(srv.URL, time.Second).GetRide(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, ride.ID)
	assert.Equal(t, StatusInProgress, ride.Status)
	require.NotNil(t, ride.BillingStartTime)
	assert.True(t, start.Equal(*ride.BillingStartTime))
}

func TestClient_GetRide_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(common.Response{Error: &common.ErrorInfo{Code: 404, Message: "ride not found"}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).GetRide(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, common.IsNotFound(err))
	assert.Contains(t, err.Error(), "ride not found")
}

func TestClient_UpdateRide(t *testing.T) {
	id := uuid.New()
	start := time.Date(2024, 6, 5, 8, 10, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		var patch Patch
		require.NoError(t, json.Unmarshal(body, &patch))
		require.NotNil(t, patch.BillingStartTime)
		assert.Nil(t, patch.Status)
		_ = json.NewEncoder(w).Encode(common.Response{Success: true, Data: Ride{ID: id, Status: StatusInProgress, BillingStartTime: patch.BillingStartTime}})
	}))
	defer srv.Close()

	ride, err := NewClient(srv.URL, time.Second).UpdateRide(context.Background(), id, Patch{BillingStartTime: &start})

	require.NoError(t, err)
	assert.True(t, start.Equal(*ride.BillingStartTime))
}

func TestClient_Settle(t *testing.T) {
	id := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/rides/"+id.String()+"/settlement", r.URL.Path)
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(7500), body["elapsed_seconds"])
		_ = json.NewEncoder(w).Encode(common.Response{Success: true, Data: pricing.Settlement{FinalPrice: 44000, Currency: "CDF"}})
	}))
	defer srv.Close()

	settlement, err := NewClient(srv.URL, time.Second).Settle(context.Background(), pricing.SettleRequest{RideID: id, ElapsedSeconds: 7500})

	require.NoError(t, err)
	assert.Equal(t, 44000.0, settlement.FinalPrice)
	assert.Equal(t, "CDF", settlement.Currency)
}
