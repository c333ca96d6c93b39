package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pmservice/assistant-service/internal/api/dto"
	"github.com/pmservice/assistant-service/internal/api/middleware"
	domainerrors "github.com/pmservice/assistant-service/internal/domain/errors"
	"github.com/pmservice/assistant-service/internal/services/telemetry"
)

// TelemetryHandler serves the telemetry views.
type TelemetryHandler struct {
	collector *telemetry.Collector
}

// NewTelemetryHandler creates a new TelemetryHandler.
func NewTelemetryHandler(collector *telemetry.Collector) *TelemetryHandler {
	return &TelemetryHandler{collector: collector}
}

// SessionMetrics handles GET /telemetry/metrics
// @Summary Session metrics
// @Description Aggregates over the events tracked since the process started
// @Tags Telemetry
// @Produce json
// @Success 200 {object} telemetry.Metrics
// @Security BearerAuth
// @Router /api/v1/pm-assistant/telemetry/metrics [get]
func (h *TelemetryHandler) SessionMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.SessionMetrics())
}

// Summary handles GET /telemetry/summary
// @Summary Telemetry summary
// @Description Aggregates over the stored history and the session events
// @Tags Telemetry
// @Produce json
// @Success 200 {object} telemetry.Metrics
// @Security BearerAuth
// @Router /api/v1/pm-assistant/telemetry/summary [get]
func (h *TelemetryHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Summary(c.Request.Context()))
}

// Activity handles GET /telemetry/activity
// @Summary Recent activity
// @Tags Telemetry
// @Produce json
// @Param limit query int false "Number of entries" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.TelemetryActivityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/telemetry/activity [get]
func (h *TelemetryHandler) Activity(c *gin.Context) {
	limit, ok := intQuery(c, "limit", telemetry.DefaultActivityLimit, 100)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.TelemetryActivityResponse{Activity: h.collector.RecentActivity(c.Request.Context(), limit)})
}

// Performance handles GET /telemetry/performance
// @Summary Hourly performance
// @Tags Telemetry
// @Produce json
// @Param hours query int false "Look-back window in hours" default(3) minimum(1) maximum(168)
// @Success 200 {object} dto.TelemetryPerformanceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/pm-assistant/telemetry/performance [get]
func (h *TelemetryHandler) Performance(c *gin.Context) {
	hours, ok := intQuery(c, "hours", telemetry.DefaultPerformanceHours, 168)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.TelemetryPerformanceResponse{Points: h.collector.PerformanceSeries(c.Request.Context(), hours)})
}

func intQuery(c *gin.Context, name string, def, upper int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > upper {
		middleware.HandleError(c, domainerrors.NewValidationError(
			"invalid query parameter", name+" must be between 1 and "+strconv.Itoa(upper)))
		return 0, false
	}
	return n, true
}
