package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/infra/telemetry"
	"github.com/sepehr-mohseni/site-engagement/internal/transport/http/middleware"
	"github.com/sepehr-mohseni/site-engagement/internal/usecase"
)

// AnalyticsHandler exposes the page-view beacon and per-path stats.
type AnalyticsHandler struct {
	analytics *usecase.AnalyticsService
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *usecase.AnalyticsService, metrics *telemetry.Metrics, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{analytics: analytics, metrics: metrics, logger: logger}
}

type trackPageViewRequest struct {
	Path         string `json:"path"`
	WindowWidth  int    `json:"windowWidth"`
	WindowHeight int    `json:"windowHeight"`
	Referrer     string `json:"referrer"`
}

type trackPageViewResponse struct {
	OK     bool `json:"ok"`
	Unique bool `json:"unique"`
}

// TrackPageView records one beacon. Losing an analytics event is preferable to
// blocking a page render, so storage failures answer with ok=false instead of
// failing the caller's navigation.
func (h *AnalyticsHandler) TrackPageView(c *gin.Context) {
	var req trackPageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid analytics payload"})
		return
	}

	if req.Path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return
	}

	unique, err := h.analytics.TrackPageView(c.Request.Context(), usecase.TrackPageViewInput{
		Path:         req.Path,
		ClientAddr:   middleware.ClientAddress(c),
		UserAgent:    middleware.UserAgent(c),
		WindowWidth:  req.WindowWidth,
		WindowHeight: req.WindowHeight,
		Referrer:     req.Referrer,
	})
	if err != nil {
		h.logger.Warn("track page view failed", zap.String("path", req.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, trackPageViewResponse{OK: false})
		return
	}

	if h.metrics != nil {
		h.metrics.PageViews.WithLabelValues(strconv.FormatBool(unique)).Inc()
	}

	c.JSON(http.StatusOK, trackPageViewResponse{OK: true, Unique: unique})
}

type pageStatsResponse struct {
	TotalViews     int64 `json:"totalViews"`
	UniqueVisitors int64 `json:"uniqueVisitors"`
	Last24h        int64 `json:"last24h"`
	Last7d         int64 `json:"last7d"`
}

// PageStats aggregates the view log for the requested path.
func (h *AnalyticsHandler) PageStats(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return
	}

	stats, err := h.analytics.PageStats(c.Request.Context(), path)
	if err != nil {
		h.logger.Warn("page stats failed", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load page stats"})
		return
	}

	c.JSON(http.StatusOK, pageStatsResponse{
		TotalViews:     stats.TotalViews,
		UniqueVisitors: stats.UniqueVisitors,
		Last24h:        stats.Last24h,
		Last7d:         stats.Last7d,
	})
}
