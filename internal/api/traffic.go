package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/internal/traffic"
	"github.com/richxcame/ridemeter/pkg/common"
)

// TrafficModel is implemented by *traffic.Model
type TrafficModel interface {
	CongestionFor(now time.Time) traffic.Congestion
	TimeOfDayAt(t time.Time) tariffs.TimeOfDay
	Location() *time.Location
}

// TrafficHandler reports the traffic conditions used for estimates
type TrafficHandler struct {
	model TrafficModel
	now   func() time.Time
}

// NewTrafficHandler creates a new traffic handler
func NewTrafficHandler(model TrafficModel) *TrafficHandler {
	return &TrafficHandler{model: model, now: time.Now}
}

// TrafficResponse describes the current traffic window
type TrafficResponse struct {
	traffic.Congestion
	Description string            `json:"description"`
	TimeOfDay   tariffs.TimeOfDay `json:"time_of_day"`
	LocalTime   string            `json:"local_time"`
	Timezone    string            `json:"timezone"`
}

// GetTraffic returns the current congestion bucket
func (h *TrafficHandler) GetTraffic(c *gin.Context) {
	now := h.now()
	congestion := h.model.CongestionFor(now)
	common.SuccessResponse(c, TrafficResponse{
		Congestion:  congestion,
		Description: traffic.Describe(congestion.Bucket),
		TimeOfDay:   h.model.TimeOfDayAt(now),
		LocalTime:   now.In(h.model.Location()).Format("15:04"),
		Timezone:    h.model.Location().String(),
	})
}

// RegisterRoutes mounts the traffic endpoint on rg
func (h *TrafficHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/traffic", h.GetTraffic)
}
